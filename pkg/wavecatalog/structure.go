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

// StructureWave runs at priority 52: a cheap layout classifier built
// from edge density, grayscale ratio, and text coverage rather than a
// real document/layout model (out of scope, same rationale as the
// autorouter's inline text detector). It's the source of
// heuristic.content_type, the signal the llm_vs_heuristic_type
// contradiction rule checks against VisionLlmWave's vision.llm.content_type.
type StructureWave struct{}

func NewStructureWave() *StructureWave { return &StructureWave{} }

func (w *StructureWave) Name() string   { return "Structure" }
func (w *StructureWave) Priority() int  { return wave.PriorityStructure }
func (w *StructureWave) Tags() []string { return []string{"content"} }
func (w *StructureWave) ShouldRun(context.Context, string, *wavectx.Context) bool { return true }

func (w *StructureWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	edgeDen := actx.GetFloat64("quality.edge_density", 0)
	grayRatio := actx.GetFloat64("color.grayscale_ratio", 0)
	textCoverage := actx.GetFloat64("route.text_coverage", 0)
	isScreenshot := actx.GetBool("identity.is_screenshot", false)
	isIcon := actx.GetBool("identity.is_icon", false)

	heuristicType := classifyHeuristicType(edgeDen, grayRatio, textCoverage, isScreenshot, isIcon)
	symmetry := symmetryScoreFrom(actx)

	now := time.Now().UTC()
	sigs := []signal.Signal{
		w.sig("heuristic.content_type", signal.StringValue(heuristicType), 0.5, now),
		w.sig("structure.symmetry", signal.FloatValue(symmetry), 0.5, now),
		w.sig("structure.edge_density", signal.FloatValue(edgeDen), 0.6, now),
	}
	if routeType := routeContentTypeFor(heuristicType); routeType != "" {
		// content.type runs at priority 52, after AutoRoutingWave (98) has
		// already decided a route for this request — it's here for
		// observability and for a future request against the same cached
		// image, not for this request's own routing decision.
		sigs = append(sigs, w.sig("content.type", signal.StringValue(routeType), 0.5, now))
	}
	return sigs, nil
}

// classifyHeuristicType is a coarse decision tree over signals already
// produced by earlier waves. Its vocabulary (photo/illustration/
// screenshot/icon/diagram/chart/document) matches what
// llm_vs_heuristic_type cross-checks against vision.llm.content_type,
// not the router's separate Diagram/Chart/ScannedDocument/Screenshot
// vocabulary — see routeContentTypeFor for that mapping.
func classifyHeuristicType(edgeDensity, grayRatio, textCoverage float64, isScreenshot, isIcon bool) string {
	switch {
	case isIcon:
		return "icon"
	case textCoverage > 0.40 && grayRatio > 0.6:
		return "document"
	case isScreenshot && textCoverage > 0.10:
		return "screenshot"
	case edgeDensity > 0.25 && grayRatio > 0.4:
		return "diagram"
	case edgeDensity > 0.15 && textCoverage > 0.15:
		return "chart"
	case edgeDensity > 0.2:
		return "illustration"
	default:
		return "photo"
	}
}

// routeContentTypeFor maps the heuristic classification onto the
// content.type vocabulary the router's qualityScore understands. Not
// every heuristic category has a router-relevant counterpart.
func routeContentTypeFor(heuristicType string) string {
	switch heuristicType {
	case "diagram":
		return "Diagram"
	case "chart":
		return "Chart"
	case "document":
		return "ScannedDocument"
	case "screenshot":
		return "Screenshot"
	default:
		return ""
	}
}

// symmetryScoreFrom reads the cached decoded frame (if IdentityWave ran)
// and scores left/right luma mirror symmetry in [0,1]; 1 is a perfect
// mirror, useful as a weak structural signal for icons/logos/diagrams
// which tend to be more symmetric than photographs.
func symmetryScoreFrom(actx *wavectx.Context) float64 {
	frames, ok := wavectx.GetCached[[]imgio.Frame](actx, "identity.frames")
	if !ok || len(frames) == 0 {
		return 0
	}
	return horizontalSymmetry(frames[0].Image)
}

func horizontalSymmetry(img image.Image) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 2 || h == 0 {
		return 0
	}
	const maxSamples = 32
	stepY := h / maxSamples
	if stepY == 0 {
		stepY = 1
	}
	stepX := (w / 2) / maxSamples
	if stepX == 0 {
		stepX = 1
	}

	var total, diffSum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Min.X+w/2; x += stepX {
			mirrorX := bounds.Max.X - 1 - (x - bounds.Min.X)
			l1 := luma(img.At(x, y))
			l2 := luma(img.At(mirrorX, y))
			diffSum += abs64(l1 - l2)
			total++
		}
	}
	if total == 0 {
		return 0
	}
	avgDiff := diffSum / total
	score := 1 - avgDiff
	if score < 0 {
		score = 0
	}
	return score
}

func (w *StructureWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"content"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
