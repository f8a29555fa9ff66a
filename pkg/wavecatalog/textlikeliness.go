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
	"time"

	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

// TextLikelinessWave runs at priority 40: folds the inline detector's
// region count/coverage (from AutoRoutingWave) and the edge-density
// quality signal into a single likelihood that the image is
// meaningfully text-bearing, independent of whether OCR has actually
// run yet. content.text_likeliness feeds the router on a future cached
// request; text_likeliness.is_text_heavy is what the
// text_likeliness_vs_ocr contradiction rule cross-checks against
// ocr.has_text.
type TextLikelinessWave struct{}

func NewTextLikelinessWave() *TextLikelinessWave { return &TextLikelinessWave{} }

func (w *TextLikelinessWave) Name() string   { return "TextLikeliness" }
func (w *TextLikelinessWave) Priority() int  { return wave.PriorityTextLikeliness }
func (w *TextLikelinessWave) Tags() []string { return []string{"content"} }
func (w *TextLikelinessWave) ShouldRun(context.Context, string, *wavectx.Context) bool {
	return true
}

func (w *TextLikelinessWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	coverage := actx.GetFloat64("route.text_coverage", 0)
	regionCount := actx.GetInt64("route.text_region_count", 0)
	edgeDensity := actx.GetFloat64("quality.edge_density", 0)

	likeliness := textLikeliness(coverage, regionCount, edgeDensity)
	isHeavy := likeliness > 0.4

	now := time.Now().UTC()
	return []signal.Signal{
		w.sig("content.text_likeliness", signal.FloatValue(likeliness), 0.6, now),
		w.sig("text_likeliness.is_text_heavy", signal.BoolValue(isHeavy), 0.6, now),
	}, nil
}

func textLikeliness(coverage float64, regionCount int64, edgeDensity float64) float64 {
	score := coverage * 0.6
	if regionCount > 10 {
		score += 0.2
	} else if regionCount > 3 {
		score += 0.1
	}
	score += edgeDensity * 0.2
	if score > 1 {
		score = 1
	}
	return score
}

func (w *TextLikelinessWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"content"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
