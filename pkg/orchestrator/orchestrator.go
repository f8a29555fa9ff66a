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

// Package orchestrator implements the schedule algorithm (spec §4.3):
// cache probe, priority-ordered tag-filtered wave walk, failure
// containment, and profile persistence, with per-hash request
// deduplication across concurrent callers.
package orchestrator

import (
	"context"
	"os"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/jordigilh/imagewave/pkg/hashing"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/store"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
	"github.com/jordigilh/imagewave/pkg/xerrors"
)

// Metrics is the narrow set of counters/histograms the orchestrator
// reports; pkg/metrics provides the Prometheus-backed implementation.
// A nil Metrics is valid — every call becomes a no-op.
type Metrics interface {
	ObserveWaveDuration(wave string, d time.Duration)
	IncWaveError(wave string)
	IncCacheHit()
	IncCacheMiss()
}

// Orchestrator runs the registered wave schedule over one image at a
// time, deduplicating concurrent requests for the same content hash.
type Orchestrator struct {
	registry   *wave.Registry
	store      store.SignalStore
	strategies *signal.StrategyRegistry
	metrics    Metrics
	tracer     trace.Tracer
	logger     logr.Logger

	group singleflight.Group
}

type Option func(*Orchestrator)

func WithStrategies(s *signal.StrategyRegistry) Option { return func(o *Orchestrator) { o.strategies = s } }
func WithMetrics(m Metrics) Option                     { return func(o *Orchestrator) { o.metrics = m } }
func WithLogger(l logr.Logger) Option                  { return func(o *Orchestrator) { o.logger = l } }

func New(registry *wave.Registry, st store.SignalStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		store:    st,
		tracer:   otel.Tracer("imagewave/orchestrator"),
		logger:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze runs (or replays, on cache hit) the wave schedule for the image
// at path, restricted to the waves required_wave_tags(requestedSignals)
// selects. Concurrent calls for the same content hash share one run.
func (o *Orchestrator) Analyze(ctx context.Context, imagePath string, requestedSignals []string) (map[string]signal.Signal, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, xerrors.InvalidInput("read image file", err).WithResource(imagePath)
	}
	digest := hashing.FromBytes(data)

	v, err, _ := o.group.Do(digest.SHA256, func() (interface{}, error) {
		return o.runOnce(ctx, imagePath, digest, requestedSignals)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]signal.Signal), nil
}

func (o *Orchestrator) runOnce(ctx context.Context, imagePath string, digest hashing.Digest, requestedSignals []string) (map[string]signal.Signal, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.analyze", trace.WithAttributes(
		attribute.String("image_hash", digest.SHA256),
	))
	defer span.End()

	required := signal.RequiredWaveTags(requestedSignals)

	if profile, hit, err := o.store.GetProfile(ctx, digest.SHA256); err == nil && hit {
		if profile.IsComplete(required) {
			o.incCacheHit()
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return profile.Signals, nil
		}
	}
	o.incCacheMiss()

	actx := wavectx.New(digest.SHA256, imagePath, o.strategies, o.logger)
	scheduled := o.registry.Schedule(required)

	for _, w := range scheduled {
		if err := ctx.Err(); err != nil {
			return nil, xerrors.Cancelled("run wave schedule")
		}

		if actx.IsWaveSkippedByRouting(w.Name()) {
			o.emitSkipped(actx, w.Name())
			continue
		}
		if !w.ShouldRun(ctx, imagePath, actx) {
			continue
		}

		sigs, err := o.runWave(ctx, w, imagePath, actx)
		if err != nil && xerrors.Is(err, xerrors.KindCancelled) {
			return nil, err
		}
		actx.SetValues(sigs)
		if err != nil && !xerrors.Is(err, xerrors.KindContradictionCritical) {
			o.emitWaveError(actx, w.Name(), err)
		}
		if err != nil && xerrors.Is(err, xerrors.KindContradictionCritical) {
			o.persist(ctx, digest, imagePath, actx)
			return actx.AllSignals(), err
		}
	}

	actx.Finalize()
	o.persist(ctx, digest, imagePath, actx)
	return actx.AllSignals(), nil
}

func (o *Orchestrator) runWave(ctx context.Context, w wave.Wave, imagePath string, actx *wavectx.Context) ([]signal.Signal, error) {
	ctx, span := o.tracer.Start(ctx, "wave."+w.Name())
	defer span.End()

	start := time.Now()
	sigs, err := w.Analyze(ctx, imagePath, actx)
	elapsed := time.Since(start)

	o.observeDuration(w.Name(), elapsed)
	if err != nil {
		span.RecordError(err)
		o.incWaveError(w.Name())
		actx.Logger.V(1).Info("wave failed", "wave", w.Name(), "image_hash", actx.ImageHash, "error", err.Error())
	}
	return sigs, err
}

func (o *Orchestrator) emitSkipped(actx *wavectx.Context, waveName string) {
	s, err := signal.New(waveName+".skipped", signal.BoolValue(true), 1.0, "orchestrator", []string{"routing"}, time.Now().UTC())
	if err != nil {
		return
	}
	actx.SetValue(s)
}

func (o *Orchestrator) emitWaveError(actx *wavectx.Context, waveName string, cause error) {
	s, err := signal.New(waveName+".error", signal.StringValue(cause.Error()), 0, "orchestrator", []string{"error"}, time.Now().UTC())
	if err != nil {
		return
	}
	actx.SetValue(s)
}

func (o *Orchestrator) persist(ctx context.Context, digest hashing.Digest, imagePath string, actx *wavectx.Context) {
	profile := store.Profile{
		SHA256:    digest.SHA256,
		XXHash64:  digest.XXHash,
		Path:      imagePath,
		CreatedAt: time.Now().UTC(),
		Signals:   actx.AllSignals(),
	}
	if err := o.store.PutProfile(ctx, profile); err != nil {
		actx.Logger.Error(err, "persist profile failed", "image_hash", digest.SHA256)
	}
}

func (o *Orchestrator) observeDuration(waveName string, d time.Duration) {
	if o.metrics != nil {
		o.metrics.ObserveWaveDuration(waveName, d)
	}
}

func (o *Orchestrator) incWaveError(waveName string) {
	if o.metrics != nil {
		o.metrics.IncWaveError(waveName)
	}
}

func (o *Orchestrator) incCacheHit() {
	if o.metrics != nil {
		o.metrics.IncCacheHit()
	}
}

func (o *Orchestrator) incCacheMiss() {
	if o.metrics != nil {
		o.metrics.IncCacheMiss()
	}
}
