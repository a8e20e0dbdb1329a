// Package metrics exposes the engine's Prometheus collectors (SPEC_FULL
// §4.L): bounded-label gauges/histograms/counters tracking mixer timing,
// active voice count, pool growth, and deferred-free activity.
//
// Grounded on the teacher's internal/api/observability.go promauto pattern
// (package-level var block of promauto collectors, no per-instance labels
// to keep cardinality bounded), reused here for the mixer instead of the
// game tick.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mixDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "soundengine_mixer_tick_duration_seconds",
		Help:    "Time spent inside one mixer kernel invocation",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	})

	activeVoiceCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "soundengine_active_voice_count",
		Help: "Number of sound/music instances in the active list at last tick",
	})

	poolPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soundengine_pool_pages_total",
		Help: "Number of instance pool page-growth events",
	})

	sourcesFreedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soundengine_sources_freed_total",
		Help: "Audio sources released immediately or after their deferred-free queue wait",
	})

	sourcesDeferredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soundengine_sources_deferred_total",
		Help: "Audio source frees deferred because playing_count was still > 0",
	})

	musicState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "soundengine_music_state",
		Help: "Current music state machine state, as its numeric tag",
	})
)

// RecordMixDuration observes one mixer kernel invocation's wall time.
func RecordMixDuration(d time.Duration) {
	mixDuration.Observe(d.Seconds())
}

// SetActiveVoiceCount updates the active-voice gauge.
func SetActiveVoiceCount(n int) {
	activeVoiceCount.Set(float64(n))
}

// IncPoolPages records one instance-pool page growth event.
func IncPoolPages() {
	poolPagesTotal.Inc()
}

// IncSourcesFreed records one audio source release.
func IncSourcesFreed() {
	sourcesFreedTotal.Inc()
}

// IncSourcesDeferred records one audio source free that had to wait for
// playing_count to reach zero.
func IncSourcesDeferred() {
	sourcesDeferredTotal.Inc()
}

// SetMusicState updates the music-state gauge with the machine's current
// numeric state tag.
func SetMusicState(state int) {
	musicState.Set(float64(state))
}
