// cmd/ecatlink/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/ecatlink/internal/config"
	"github.com/tamzrod/ecatlink/internal/observability"
	"github.com/tamzrod/ecatlink/internal/poller"
	"github.com/tamzrod/ecatlink/internal/poller/nic"
	"github.com/tamzrod/ecatlink/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: ecatlink <config.yaml|config.toml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	logger := observability.InitLogger("ecatlink", cfg.Log.Level)
	logger = logger.With().Str("master", cfg.Master.Name).Logger()

	// --------------------
	// Links + frame port
	// --------------------

	port, err := openPort(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("link open failed")
	}
	defer port.Close()

	logger.Info().
		Str("link", cfg.Master.Link).
		Bool("redundant", cfg.Master.RedundantInterface != "" || cfg.Sim.Redundant).
		Msg("frame port ready")

	// --------------------
	// Prober
	// --------------------

	client, err := nic.New(port, nic.Config{Timeout: cfg.Probe.Timeout()})
	if err != nil {
		logger.Fatal().Err(err).Msg("probe client failed")
	}

	p, err := poller.Build(cfg, client)
	if err != nil {
		logger.Fatal().Err(err).Msg("poller build failed")
	}

	// --------------------
	// Status block (optional)
	// --------------------

	var sw writer.StatusWriter
	if plan, ok := writer.BuildStatusPlan(cfg.Status); ok {
		cli, err := writer.BuildStatusClient(cfg.Status)
		if err != nil {
			logger.Fatal().Err(err).Msg("status client failed")
		}
		defer cli.Close()

		dsw, err := writer.NewDeviceStatusWriter(plan, cli)
		if err != nil {
			logger.Fatal().Err(err).Msg("status writer failed")
		}
		sw = dsw
	}

	// --------------------
	// Metrics
	// --------------------

	observability.RegisterMetrics()
	prometheus.MustRegister(observability.NewPortCollector(port))

	// --------------------
	// Run until signalled
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	out := make(chan poller.PollResult)

	g.Go(func() error {
		p.Run(ctx, out)
		return nil
	})
	g.Go(func() error {
		return orchestrate(ctx, out, port, sw, logger)
	})

	g.Go(func() error {
		return config.Watch(ctx, cfgPath, func(next *config.Config) {
			lvl := observability.SetLevel(next.Log.Level)
			logger.Info().Str("level", lvl.String()).Msg("config reloaded")
		}, func(err error) {
			logger.Warn().Err(err).Msg("config reload rejected")
		})
	})

	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info().Str("listen", srv.Addr).Msg("metrics endpoint")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("stopped with error")
		return
	}
	logger.Info().Msg("stopped")
}
