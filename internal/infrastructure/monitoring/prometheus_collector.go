package monitoring

import (
	"time"

	"mosaic/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements the metrics hooks of the playback
// controller, the retry sweeper, the persistence service and the
// websocket hub.
type PrometheusCollector struct {
	// Gauges
	slotsByState    *prometheus.GaugeVec
	wsClients       prometheus.Gauge
	storageDegraded prometheus.Gauge
	gridSize        prometheus.Gauge

	// Counters
	loadsTotal        prometheus.Counter
	loadFailuresTotal prometheus.Counter
	retriesTotal      prometheus.Counter
	breakerSkipsTotal prometheus.Counter
	eventsTotal       *prometheus.CounterVec

	// Histograms
	loadDuration     prometheus.Histogram
	snapshotDuration prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		slotsByState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mosaic_slots_by_state",
			Help: "Number of slots currently in each playback state",
		}, []string{"state"}),

		wsClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mosaic_ws_clients",
			Help: "Number of connected dashboard websocket clients",
		}),

		storageDegraded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mosaic_storage_degraded",
			Help: "1 when the primary store is unreachable and the file snapshot is serving",
		}),

		gridSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mosaic_grid_size",
			Help: "Current number of grid slots",
		}),

		loadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mosaic_stream_loads_total",
			Help: "Total number of stream load attempts",
		}),

		loadFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mosaic_stream_load_failures_total",
			Help: "Total number of failed stream load attempts",
		}),

		retriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mosaic_retry_sweeps_total",
			Help: "Total number of reloads issued by the retry sweeper",
		}),

		breakerSkipsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mosaic_retry_breaker_skips_total",
			Help: "Total number of retries skipped by an open circuit breaker",
		}),

		eventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mosaic_player_events_total",
			Help: "Total number of player events ingested, by kind",
		}, []string{"kind"}),

		loadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mosaic_stream_load_duration_seconds",
			Help:    "Duration of playlist fetch and parse per load",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),

		snapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mosaic_snapshot_save_duration_seconds",
			Help:    "Duration of grid snapshot persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

func (p *PrometheusCollector) RecordLoad(slotID domain.SlotID) {
	p.loadsTotal.Inc()
}

func (p *PrometheusCollector) RecordLoadFailure(slotID domain.SlotID) {
	p.loadFailuresTotal.Inc()
}

func (p *PrometheusCollector) RecordRetry(slotID domain.SlotID) {
	p.retriesTotal.Inc()
}

func (p *PrometheusCollector) RecordBreakerSkip(slotID domain.SlotID) {
	p.breakerSkipsTotal.Inc()
}

func (p *PrometheusCollector) RecordPlayerEvent(kind domain.EventKind) {
	p.eventsTotal.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusCollector) RecordLoadDuration(d time.Duration) {
	p.loadDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordSnapshotSave(d time.Duration) {
	p.snapshotDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) SetWSClients(n int) {
	p.wsClients.Set(float64(n))
}

func (p *PrometheusCollector) SetStorageDegraded(degraded bool) {
	if degraded {
		p.storageDegraded.Set(1)
	} else {
		p.storageDegraded.Set(0)
	}
}

func (p *PrometheusCollector) SetGridSize(n int) {
	p.gridSize.Set(float64(n))
}

// UpdateSlotStates refreshes the per-state gauge from a full status sweep.
func (p *PrometheusCollector) UpdateSlotStates(statuses []domain.SlotStatus) {
	counts := make(map[string]int)
	for _, st := range domain.AllSessionStates() {
		counts[st.String()] = 0
	}
	for _, status := range statuses {
		counts[status.State.String()]++
	}
	for state, n := range counts {
		p.slotsByState.WithLabelValues(state).Set(float64(n))
	}
}
