/*
Copyright 2026 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exposes the process-wide Prometheus collectors for the
// wave pipeline: per-wave duration and error counts, cache hit/miss
// rates, and the contradiction/routing counters the validator and the
// auto-router emit alongside their signals.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WaveDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "imagewave_wave_duration_seconds",
		Help:    "Time spent inside one wave's Analyze call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"wave"})

	WaveErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagewave_wave_errors_total",
		Help: "Count of wave Analyze calls that returned a non-nil error.",
	}, []string{"wave"})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagewave_cache_hits_total",
		Help: "Analyze calls served entirely from a complete cached profile.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagewave_cache_misses_total",
		Help: "Analyze calls that ran at least one wave.",
	})

	ContradictionFindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagewave_contradiction_findings_total",
		Help: "Contradiction validator findings, by severity.",
	}, []string{"severity"})

	RoutingDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagewave_routing_decisions_total",
		Help: "Auto-router decisions, by chosen route.",
	}, []string{"route"})

	OCRFramesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagewave_ocr_frames_processed_total",
		Help: "Animated-image frames the OCR pipeline ran text extraction on.",
	})
)

// ObserveWaveDuration implements orchestrator.Metrics.
func ObserveWaveDuration(wave string, d time.Duration) {
	WaveDurationSeconds.WithLabelValues(wave).Observe(d.Seconds())
}

// IncWaveError implements orchestrator.Metrics.
func IncWaveError(wave string) {
	WaveErrorsTotal.WithLabelValues(wave).Inc()
}

// IncCacheHit implements orchestrator.Metrics.
func IncCacheHit() {
	CacheHitsTotal.Inc()
}

// IncCacheMiss implements orchestrator.Metrics.
func IncCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordContradictionFinding records one validator finding at severity.
func RecordContradictionFinding(severity string) {
	ContradictionFindingsTotal.WithLabelValues(severity).Inc()
}

// RecordRoutingDecision records one auto-router decision for route.
func RecordRoutingDecision(route string) {
	RoutingDecisionsTotal.WithLabelValues(route).Inc()
}

// RecordOCRFrame records one animated-image frame processed by the OCR
// pipeline.
func RecordOCRFrame() {
	OCRFramesProcessedTotal.Inc()
}

// Timer measures elapsed wall-clock time for a single wave invocation and
// reports it through ObserveWaveDuration when the caller is done.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer at the current instant.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// RecordWave reports the elapsed time under wave's label.
func (t *Timer) RecordWave(wave string) {
	ObserveWaveDuration(wave, t.Elapsed())
}

// Collector implements orchestrator.Metrics by delegating to the package
// level functions above; orchestrator.New accepts it as the Metrics
// option so callers don't have to hand-write an adapter.
type Collector struct{}

func NewCollector() Collector { return Collector{} }

func (Collector) ObserveWaveDuration(wave string, d time.Duration) { ObserveWaveDuration(wave, d) }
func (Collector) IncWaveError(wave string)                        { IncWaveError(wave) }
func (Collector) IncCacheHit()                                    { IncCacheHit() }
func (Collector) IncCacheMiss()                                   { IncCacheMiss() }
