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

package ocr

import (
	"context"
	"time"

	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/imgio"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
	"github.com/jordigilh/imagewave/pkg/xerrors"
)

// AdvancedOcrWave runs the full multi-frame pipeline on animated inputs.
// It is given wave.PriorityOcr (60) so it runs before the simple OCR
// wave's interlock check, despite the constant's name — PriorityOcr
// marks the slot for the primary/heavy text-extraction wave, and
// PriorityAdvancedOcr marks the slot for whichever wave checks its
// output second.
type AdvancedOcrWave struct {
	pipeline *Pipeline
}

func NewAdvancedOcrWave(pipeline *Pipeline) *AdvancedOcrWave {
	return &AdvancedOcrWave{pipeline: pipeline}
}

func (w *AdvancedOcrWave) Name() string   { return "AdvancedOcr" }
func (w *AdvancedOcrWave) Priority() int  { return wave.PriorityOcr }
func (w *AdvancedOcrWave) Tags() []string { return []string{"ocr", "content"} }

func (w *AdvancedOcrWave) ShouldRun(_ context.Context, _ string, actx *wavectx.Context) bool {
	if actx.IsWaveSkippedByRouting(w.Name()) {
		return false
	}
	isAnimated := actx.GetBool("identity.is_animated", false)
	frameCount := actx.GetInt64("identity.frame_count", 1)
	return isAnimated && frameCount >= 2
}

func (w *AdvancedOcrWave) Analyze(ctx context.Context, imagePath string, actx *wavectx.Context) ([]signal.Signal, error) {
	frames, err := imgio.DecodeFrames(imagePath)
	if err != nil {
		return nil, xerrors.InvalidInput("decode animation frames", err).WithResource(imagePath)
	}

	var textChangedIndices []int
	if cached, ok := wavectx.GetCached[[]int](actx, "ocr.ml.text_changed_indices"); ok {
		textChangedIndices = cached
	}

	result, err := w.pipeline.Run(ctx, frames, textChangedIndices)
	now := time.Now().UTC()
	if err != nil {
		return resultToSignals(w.Name(), result, now), xerrors.WaveFailure(w.Name(), err)
	}

	actx.SetCached("ocr.advanced.result", result)
	return resultToSignals(w.Name(), result, now), nil
}

func resultToSignals(source string, r Result, at time.Time) []signal.Signal {
	var sigs []signal.Signal
	add := func(key string, v signal.Value, conf float64) {
		s, err := signal.New(key, v, conf, source, []string{"ocr", "content"}, at)
		if err != nil {
			return
		}
		sigs = append(sigs, s)
	}

	add("ocr.advanced.performance", signal.IntValue(int64(r.FramesSelected)), 1.0)
	if r.StabilizationSuccess || r.StabilizationConfidence > 0 {
		add("ocr.stabilization.confidence", signal.FloatValue(r.StabilizationConfidence), 1.0)
		add("ocr.stabilization.success", signal.BoolValue(r.StabilizationSuccess), 1.0)
	}
	add("ocr.temporal_median.computed", signal.BoolValue(true), 1.0)
	add("ocr.temporal_median.full_text", signal.StringValue(r.PrimaryText), clampConf(r.PrimaryConfidence))

	if r.EarlyExit {
		add("ocr.advanced.early_exit", signal.BoolValue(true), 1.0)
		return sigs
	}

	if r.ConsensusText != "" {
		add("ocr.voting.consensus_text", signal.StringValue(r.ConsensusText), clampConf(r.AgreementScore))
	}
	add("ocr.corrected.text", signal.StringValue(r.FinalText), clampConf(r.PrimaryConfidence))

	finalSig, err := signal.New("ocr.final.corrected_text", signal.StringValue(r.FinalText), clampConf(r.PrimaryConfidence), source, []string{"ocr", "content"}, at)
	if err == nil {
		finalSig = finalSig.WithMetadata(map[string]signal.Value{
			"tier2_applied": signal.BoolValue(r.Tier2Applied),
			"tier3_applied": signal.BoolValue(r.Tier3Applied),
			"original_text": signal.StringValue(r.OriginalText),
		})
		sigs = append(sigs, finalSig)
	}

	if r.VerifiedRan {
		add("ocr.concordance", signal.FloatValue(r.Concordance), 1.0)
		add("ocr.verified_text", signal.StringValue(r.VerifiedText), clampConf(r.Concordance))
	}

	return sigs
}

func clampConf(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SimpleOcrWave runs a single-frame OCR pass. It defers to AdvancedOcrWave
// whenever the latter has already produced a result, emitting
// ocr.simple.skipped instead of duplicating the work (spec §4.5's
// interlock).
type SimpleOcrWave struct {
	engine collab.OCREngine
}

func NewSimpleOcrWave(engine collab.OCREngine) *SimpleOcrWave {
	return &SimpleOcrWave{engine: engine}
}

func (w *SimpleOcrWave) Name() string   { return "Ocr" }
func (w *SimpleOcrWave) Priority() int  { return wave.PriorityAdvancedOcr }
func (w *SimpleOcrWave) Tags() []string { return []string{"ocr", "content"} }

func (w *SimpleOcrWave) ShouldRun(_ context.Context, _ string, actx *wavectx.Context) bool {
	return !actx.IsWaveSkippedByRouting(w.Name())
}

func (w *SimpleOcrWave) interlocked(actx *wavectx.Context) bool {
	for _, key := range []string{"ocr.advanced.performance", "ocr.corrected.text", "ocr.voting.consensus_text"} {
		if _, ok := actx.Signal(key); ok {
			return true
		}
	}
	return false
}

func (w *SimpleOcrWave) Analyze(ctx context.Context, imagePath string, actx *wavectx.Context) ([]signal.Signal, error) {
	now := time.Now().UTC()
	if w.interlocked(actx) {
		s, err := signal.New("ocr.simple.skipped", signal.BoolValue(true), 1.0, w.Name(), []string{"ocr", "content"}, now)
		if err != nil {
			return nil, err
		}
		return []signal.Signal{s}, nil
	}

	regions, err := w.engine.ExtractTextWithCoordinates(ctx, imagePath)
	if err != nil {
		return nil, xerrors.ModelUnavailable("ocr_engine", w.Name(), err)
	}

	if len(regions) == 0 {
		return nil, nil
	}

	values := make([]signal.Value, 0, len(regions))
	var totalConf float64
	for _, r := range regions {
		values = append(values, signal.MapValue(map[string]signal.Value{
			"text":       signal.StringValue(r.Text),
			"confidence": signal.FloatValue(r.Confidence),
		}))
		totalConf += r.Confidence
	}

	s, err := signal.New("ocr.text_region", signal.ListValue(values), clampConf(totalConf/float64(len(regions))), w.Name(), []string{"ocr", "content"}, now)
	if err != nil {
		return nil, err
	}
	return []signal.Signal{s}, nil
}
