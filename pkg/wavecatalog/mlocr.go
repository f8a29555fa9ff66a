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

// MlOcrWave runs at priority 28, after the real OCR passes have already
// run: a second, independent opinion on whether the image actually had
// text, built only from signals the other waves already produced
// (region count, corrected-text length, text likeliness) rather than a
// real learned OCR-triage model. Its value is as a cheap cross-check for
// the contradiction validator and for telemetry on how often the
// detector-driven ocr.has_text and the post-hoc text-length-based
// opinion disagree, not as an input to this request's own OCR tier
// decision (that decision has already been made by the time this runs).
type MlOcrWave struct{}

func NewMlOcrWave() *MlOcrWave { return &MlOcrWave{} }

func (w *MlOcrWave) Name() string   { return "MlOcr" }
func (w *MlOcrWave) Priority() int  { return wave.PriorityMlOcr }
func (w *MlOcrWave) Tags() []string { return []string{"ocr", "content"} }
func (w *MlOcrWave) ShouldRun(context.Context, string, *wavectx.Context) bool { return true }

func (w *MlOcrWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	finalText := actx.GetString("ocr.final.corrected_text", "")
	regionCount := actx.GetInt64("ocr.region_count", 0)
	likeliness := actx.GetFloat64("content.text_likeliness", 0)

	confidence := mlOcrConfidence(finalText, regionCount, likeliness)
	likelyHasText := confidence > 0.5

	now := time.Now().UTC()
	return []signal.Signal{
		w.sig("ocr.ml.likely_has_text", signal.BoolValue(likelyHasText), 0.4, now),
		w.sig("ocr.ml.confidence", signal.FloatValue(confidence), 0.4, now),
	}, nil
}

func mlOcrConfidence(finalText string, regionCount int64, likeliness float64) float64 {
	score := 0.0
	if len(finalText) > 3 {
		score += 0.5
	}
	if regionCount > 0 {
		score += 0.3
	}
	score += likeliness * 0.2
	if score > 1 {
		score = 1
	}
	return score
}

func (w *MlOcrWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"ocr"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
