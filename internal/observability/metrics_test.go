package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/ecatlink/internal/nicdrv"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordProbe("master-a", 3, 2*time.Millisecond, true)
	RecordProbe("master-a", 0, 20*time.Millisecond, false)
	RecordStatusWrite("master-a", true)
}

type fakePort struct {
	mode  nicdrv.RedMode
	state nicdrv.RedState
	stats map[nicdrv.Stack]nicdrv.StatsSnapshot
}

func (f *fakePort) Name() string              { return "eth0" }
func (f *fakePort) RedMode() nicdrv.RedMode   { return f.mode }
func (f *fakePort) RedState() nicdrv.RedState { return f.state }
func (f *fakePort) Stats(st nicdrv.Stack) (nicdrv.StatsSnapshot, error) {
	s, ok := f.stats[st]
	if !ok {
		return nicdrv.StatsSnapshot{}, nicdrv.ErrNoSecondary
	}
	return s, nil
}

func gather(t *testing.T, c prometheus.Collector) map[string][]float64 {
	t.Helper()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string][]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] = append(out[mf.GetName()], m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				out[mf.GetName()] = append(out[mf.GetName()], m.GetGauge().GetValue())
			}
		}
	}
	return out
}

func TestPortCollectorSingleLink(t *testing.T) {
	port := &fakePort{
		stats: map[nicdrv.Stack]nicdrv.StatsSnapshot{
			nicdrv.Primary: {FramesSent: 7, Timeouts: 2},
		},
	}

	got := gather(t, NewPortCollector(port))
	require.Equal(t, []float64{7}, got["ecatlink_link_frames_sent_total"])
	require.Equal(t, []float64{2}, got["ecatlink_link_timeouts_total"])
	require.Equal(t, []float64{0}, got["ecatlink_link_redundancy_state"])
}

func TestPortCollectorRedundant(t *testing.T) {
	port := &fakePort{
		mode:  nicdrv.RedDouble,
		state: nicdrv.RedStateBroken,
		stats: map[nicdrv.Stack]nicdrv.StatsSnapshot{
			nicdrv.Primary:   {FramesSent: 4, Reroutes: 1},
			nicdrv.Secondary: {FramesSent: 5},
		},
	}

	got := gather(t, NewPortCollector(port))
	require.ElementsMatch(t, []float64{4, 5}, got["ecatlink_link_frames_sent_total"])
	require.ElementsMatch(t, []float64{1, 0}, got["ecatlink_link_reroutes_total"])
	require.Equal(t, []float64{2}, got["ecatlink_link_redundancy_state"])
}
