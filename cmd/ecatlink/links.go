// cmd/ecatlink/links.go
package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/ecatlink/internal/config"
	"github.com/tamzrod/ecatlink/internal/link"
	"github.com/tamzrod/ecatlink/internal/nicdrv"
	"github.com/tamzrod/ecatlink/internal/sim"
)

// openPort opens the configured links and builds the frame port on them.
func openPort(cfg *config.Config, logger zerolog.Logger) (*nicdrv.Port, error) {
	primary, secondary, err := openLinks(cfg, logger)
	if err != nil {
		return nil, err
	}

	pcfg := nicdrv.Config{
		Name:          cfg.Master.Name,
		ReturnTimeout: cfg.Master.ReturnTimeout(),
		PollInterval:  cfg.Master.PollInterval(),
		Logger:        &logger,
	}

	var port *nicdrv.Port
	if secondary != nil {
		port, err = nicdrv.NewRedundant(primary, secondary, pcfg)
	} else {
		port, err = nicdrv.New(primary, pcfg)
	}
	if err != nil {
		_ = primary.Close()
		if secondary != nil {
			_ = secondary.Close()
		}
		return nil, err
	}
	return port, nil
}

func openLinks(cfg *config.Config, logger zerolog.Logger) (nicdrv.Device, nicdrv.Device, error) {
	if cfg.Master.Link == config.LinkSim {
		breakAt := sim.NoBreak
		if cfg.Sim.BreakAt != nil {
			breakAt = *cfg.Sim.BreakAt
		}
		seg, err := sim.NewSegment(sim.Config{
			Slaves:    cfg.Sim.Slaves,
			Redundant: cfg.Sim.Redundant,
			BreakAt:   breakAt,
			Reorder:   cfg.Sim.Reorder,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info().
			Int("slaves", cfg.Sim.Slaves).
			Bool("redundant", cfg.Sim.Redundant).
			Int("break_at", breakAt).
			Msg("simulated segment")

		if cfg.Sim.Redundant {
			return seg.Primary(), seg.Secondary(), nil
		}
		return seg.Primary(), nil, nil
	}

	primary, err := openRaw(cfg.Master.Interface, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Master.RedundantInterface == "" {
		return primary, nil, nil
	}

	secondary, err := openRaw(cfg.Master.RedundantInterface, logger)
	if err != nil {
		_ = primary.Close()
		return nil, nil, err
	}
	return primary, secondary, nil
}

func openRaw(name string, logger zerolog.Logger) (nicdrv.Device, error) {
	ad, err := link.LookupAdapter(name)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", name, err)
	}
	if !ad.Up {
		logger.Warn().Str("interface", ad.Name).Msg("interface is down")
	}

	dev, err := link.Open(ad.Name)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("interface", ad.Name).
		Str("desc", ad.Desc).
		Str("hwaddr", ad.HardwareAddr.String()).
		Msg("raw link open")
	return dev, nil
}
