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

package wavecatalog

import (
	"context"
	"image"
	"time"

	"github.com/jordigilh/imagewave/pkg/imgio"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

// MotionWave runs at priority 48 and only has anything to say about
// animated inputs: frame-to-frame luma difference as a cheap proxy for
// how much the animation actually moves, versus a near-static GIF used
// only for its looping/format properties.
type MotionWave struct{}

func NewMotionWave() *MotionWave { return &MotionWave{} }

func (w *MotionWave) Name() string   { return "Motion" }
func (w *MotionWave) Priority() int  { return wave.PriorityMotion }
func (w *MotionWave) Tags() []string { return []string{"motion"} }
func (w *MotionWave) ShouldRun(_ context.Context, _ string, actx *wavectx.Context) bool {
	return actx.GetBool("identity.is_animated", false)
}

func (w *MotionWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	frames, ok := wavectx.GetCached[[]imgio.Frame](actx, "identity.frames")
	if !ok || len(frames) < 2 {
		return nil, nil
	}

	avgDiff, maxDiff := frameDiffStats(frames)
	now := time.Now().UTC()
	return []signal.Signal{
		w.sig("motion.avg_frame_diff", signal.FloatValue(avgDiff), 0.6, now),
		w.sig("motion.max_frame_diff", signal.FloatValue(maxDiff), 0.6, now),
		w.sig("motion.is_significant", signal.BoolValue(avgDiff > 0.05), 0.5, now),
	}, nil
}

// frameDiffStats samples a coarse grid per consecutive frame pair and
// averages the absolute luma delta, the same sampling budget imgstat.go
// uses elsewhere so an animated multi-frame pass stays cheap.
func frameDiffStats(frames []imgio.Frame) (avg, max float64) {
	var sum float64
	var count int
	for i := 1; i < len(frames); i++ {
		d := frameDiff(frames[i-1].Image, frames[i].Image)
		sum += d
		count++
		if d > max {
			max = d
		}
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), max
}

func frameDiff(a, b image.Image) float64 {
	boundsA := a.Bounds()
	const samples = 32
	stepX := boundsA.Dx() / samples
	stepY := boundsA.Dy() / samples
	if stepX == 0 {
		stepX = 1
	}
	if stepY == 0 {
		stepY = 1
	}

	var sum float64
	var count int
	for y := boundsA.Min.Y; y < boundsA.Max.Y; y += stepY {
		for x := boundsA.Min.X; x < boundsA.Max.X; x += stepX {
			if !(image.Point{X: x, Y: y}.In(b.Bounds())) {
				continue
			}
			sum += abs64(luma(a.At(x, y)) - luma(b.At(x, y)))
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func (w *MotionWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"motion"}, at)
	if err != nil {
		panic(err)
	}
	return s
}

// ComplexModeWave runs at priority 45: decides whether an animated image
// warrants the full multi-frame OCR/caption pipeline (spec's
// "complex mode") rather than single-frame treatment, based on frame
// count and how much motion.avg_frame_diff reports.
type ComplexModeWave struct{}

func NewComplexModeWave() *ComplexModeWave { return &ComplexModeWave{} }

func (w *ComplexModeWave) Name() string   { return "ComplexMode" }
func (w *ComplexModeWave) Priority() int  { return wave.PriorityComplexMode }
func (w *ComplexModeWave) Tags() []string { return []string{"motion"} }
func (w *ComplexModeWave) ShouldRun(_ context.Context, _ string, actx *wavectx.Context) bool {
	return actx.GetBool("identity.is_animated", false)
}

func (w *ComplexModeWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	frameCount := actx.GetInt64("identity.frame_count", 1)
	avgDiff := actx.GetFloat64("motion.avg_frame_diff", 0)

	enabled := frameCount > 3 && avgDiff > 0.03
	now := time.Now().UTC()
	return []signal.Signal{
		w.sig("complex_mode.enabled", signal.BoolValue(enabled), 0.6, now),
	}, nil
}

func (w *ComplexModeWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"motion"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
