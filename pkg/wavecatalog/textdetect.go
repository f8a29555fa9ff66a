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

	"github.com/jordigilh/imagewave/pkg/autorouter"
	"github.com/jordigilh/imagewave/pkg/imgio"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

// TextDetectionWave runs at priority 82, just after auto-routing. It
// reuses the region list AutoRoutingWave already cached under
// ocr.opencv.text_regions rather than re-scanning the image, and turns
// the raw rectangle count into the has-text boolean the OCR tier and the
// text_likeliness_vs_ocr contradiction rule both consume.
type TextDetectionWave struct{}

func NewTextDetectionWave() *TextDetectionWave { return &TextDetectionWave{} }

func (w *TextDetectionWave) Name() string   { return "TextDetection" }
func (w *TextDetectionWave) Priority() int  { return wave.PriorityTextDetection }
func (w *TextDetectionWave) Tags() []string { return []string{"ocr", "content"} }
func (w *TextDetectionWave) ShouldRun(context.Context, string, *wavectx.Context) bool {
	return true
}

func (w *TextDetectionWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	regions, ok := wavectx.GetCached[[]image.Rectangle](actx, "ocr.opencv.text_regions")
	if !ok {
		regions = w.detectFresh(actx)
	}

	now := time.Now().UTC()
	hasText := len(regions) > 0
	coverage := actx.GetFloat64("route.text_coverage", 0)

	return []signal.Signal{
		w.sig("ocr.has_text", signal.BoolValue(hasText), 0.7, now),
		w.sig("ocr.region_count", signal.IntValue(int64(len(regions))), 0.7, now),
		w.sig("content.text_coverage_estimate", signal.FloatValue(coverage), 0.6, now),
	}, nil
}

// detectFresh re-runs the inline detector when AutoRoutingWave's cache
// entry is missing — a memoized routing decision skips the detector
// entirely, so this wave can't assume the cache is always populated.
func (w *TextDetectionWave) detectFresh(actx *wavectx.Context) []image.Rectangle {
	frames, ok := wavectx.GetCached[[]imgio.Frame](actx, "identity.frames")
	if !ok || len(frames) == 0 {
		return nil
	}
	result := autorouter.DetectText(frames[0].Image)
	return result.Regions
}

func (w *TextDetectionWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"ocr"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
