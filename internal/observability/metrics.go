package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/ecatlink/internal/nicdrv"
)

var (
	registerOnce sync.Once

	probeCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecatlink",
			Subsystem: "probe",
			Name:      "cycles_total",
			Help:      "Probe cycles run against the segment.",
		},
		[]string{"master", "success"},
	)
	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ecatlink",
			Subsystem: "probe",
			Name:      "cycle_duration_seconds",
			Help:      "Probe cycle duration in seconds.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{"master"},
	)
	probeWorkcounter = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ecatlink",
			Subsystem: "probe",
			Name:      "workcounter",
			Help:      "Workcounter of the first read of the last successful cycle.",
		},
		[]string{"master"},
	)
	statusWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecatlink",
			Subsystem: "status",
			Name:      "writes_total",
			Help:      "Status block publish attempts.",
		},
		[]string{"master", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(probeCycles, probeDuration, probeWorkcounter, statusWrites)
	})
}

func RecordProbe(master string, wkc uint16, duration time.Duration, success bool) {
	RegisterMetrics()
	probeCycles.WithLabelValues(master, strconv.FormatBool(success)).Inc()
	probeDuration.WithLabelValues(master).Observe(duration.Seconds())
	if success {
		probeWorkcounter.WithLabelValues(master).Set(float64(wkc))
	}
}

func RecordStatusWrite(master string, success bool) {
	RegisterMetrics()
	statusWrites.WithLabelValues(master, strconv.FormatBool(success)).Inc()
}

// ---- PORT COLLECTOR ----

// PortSource is the read side of a frame port.
type PortSource interface {
	Name() string
	RedMode() nicdrv.RedMode
	RedState() nicdrv.RedState
	Stats(stack nicdrv.Stack) (nicdrv.StatsSnapshot, error)
}

type portCounter struct {
	desc  *prometheus.Desc
	value func(s nicdrv.StatsSnapshot) uint64
}

// PortCollector exports the link counters of a port at scrape time.
type PortCollector struct {
	port     PortSource
	counters []portCounter
	redState *prometheus.Desc
}

func NewPortCollector(port PortSource) *PortCollector {
	labels := []string{"port", "link"}
	counter := func(name, help string, value func(s nicdrv.StatsSnapshot) uint64) portCounter {
		return portCounter{
			desc:  prometheus.NewDesc(prometheus.BuildFQName("ecatlink", "link", name), help, labels, nil),
			value: value,
		}
	}

	return &PortCollector{
		port: port,
		counters: []portCounter{
			counter("frames_sent_total", "Frames handed to the link.", func(s nicdrv.StatsSnapshot) uint64 { return s.FramesSent }),
			counter("send_errors_total", "Frames the link rejected.", func(s nicdrv.StatsSnapshot) uint64 { return s.SendErrors }),
			counter("frames_received_total", "Frames pulled from the link.", func(s nicdrv.StatsSnapshot) uint64 { return s.FramesReceived }),
			counter("receive_errors_total", "Failed receive calls.", func(s nicdrv.StatsSnapshot) uint64 { return s.RecvErrors }),
			counter("frames_matched_total", "Frames resolved by their own caller.", func(s nicdrv.StatsSnapshot) uint64 { return s.FramesMatched }),
			counter("frames_stored_total", "Frames filed for another caller.", func(s nicdrv.StatsSnapshot) uint64 { return s.FramesStored }),
			counter("frames_foreign_total", "Non-EtherCAT frames discarded.", func(s nicdrv.StatsSnapshot) uint64 { return s.FramesForeign }),
			counter("frames_dropped_total", "Malformed or unexpected EtherCAT frames.", func(s nicdrv.StatsSnapshot) uint64 { return s.FramesDropped }),
			counter("timeouts_total", "Exchanges that ended without a frame.", func(s nicdrv.StatsSnapshot) uint64 { return s.Timeouts }),
			counter("retries_total", "Confirmed exchange retransmissions.", func(s nicdrv.StatsSnapshot) uint64 { return s.Retries }),
			counter("exhausted_total", "Allocations refused for lack of free slots.", func(s nicdrv.StatsSnapshot) uint64 { return s.Exhausted }),
			counter("reroutes_total", "Frames resent through the secondary link.", func(s nicdrv.StatsSnapshot) uint64 { return s.Reroutes }),
		},
		redState: prometheus.NewDesc(
			prometheus.BuildFQName("ecatlink", "link", "redundancy_state"),
			"Outcome of the last redundant exchange: 0 none, 1 intact, 2 broken, 3 lost.",
			[]string{"port"}, nil,
		),
	}
}

func (c *PortCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, pc := range c.counters {
		ch <- pc.desc
	}
	ch <- c.redState
}

func (c *PortCollector) Collect(ch chan<- prometheus.Metric) {
	stacks := []nicdrv.Stack{nicdrv.Primary}
	if c.port.RedMode() == nicdrv.RedDouble {
		stacks = append(stacks, nicdrv.Secondary)
	}

	for _, st := range stacks {
		snap, err := c.port.Stats(st)
		if err != nil {
			continue
		}
		for _, pc := range c.counters {
			ch <- prometheus.MustNewConstMetric(pc.desc, prometheus.CounterValue, float64(pc.value(snap)), c.port.Name(), st.String())
		}
	}

	ch <- prometheus.MustNewConstMetric(c.redState, prometheus.GaugeValue, float64(c.port.RedState()), c.port.Name())
}
