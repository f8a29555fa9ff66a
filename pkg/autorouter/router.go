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

// Package autorouter implements AutoRoutingWave (spec §4.4): a
// deterministic scoring pass over cheap early signals that selects a
// route (Fast/Balanced/Quality) and text tier, then emits the
// corresponding wave skip-set.
package autorouter

import (
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

type Route string

const (
	RouteFast     Route = "fast"
	RouteBalanced Route = "balanced"
	RouteQuality  Route = "quality"
)

type TextTier string

const (
	TierCaption    TextTier = "caption"
	TierModerate   TextTier = "moderate"
	TierSubstantial TextTier = "substantial"
	TierDocument   TextTier = "document"
)

// Decision is the router's output (spec §3 Routing Decision, minus the
// persistence envelope which pkg/store owns).
type Decision struct {
	Route     Route
	TextTier  TextTier
	SkipWaves []string
	Reason    string
}

// inputs is the set of cheap early signals the router reads: identity.*
// and color.* from waves at priority >= 99, route.* from this wave's own
// inline detector, and content.*/quality.* only when a lower-priority wave
// has already emitted them (otherwise the defaults apply).
type inputs struct {
	isAnimated      bool
	frameCount      int64
	pixelCount      int64
	isGrayscale     bool
	textLikeliness  float64
	edgeDensity     float64
	contentType     string
	textCoverage    float64
	textRegionCount int64
	hasSubtitles    bool
}

func readInputs(ctx *wavectx.Context) inputs {
	return inputs{
		isAnimated:      ctx.GetBool("identity.is_animated", false),
		frameCount:      ctx.GetInt64("identity.frame_count", 1),
		pixelCount:      ctx.GetInt64("identity.pixel_count", 0),
		isGrayscale:     ctx.GetBool("color.is_grayscale", false),
		textLikeliness:  ctx.GetFloat64("content.text_likeliness", 0),
		edgeDensity:     ctx.GetFloat64("quality.edge_density", 0),
		contentType:     ctx.GetString("content.type", ""),
		textCoverage:    ctx.GetFloat64("route.text_coverage", 0),
		textRegionCount: ctx.GetInt64("route.text_region_count", 0),
		hasSubtitles:    ctx.GetBool("route.has_subtitles", false),
	}
}

// Decide runs the scoring rules from spec §4.4 over in and returns the
// routing decision. The MSER-like inline text detector that produces
// route.text_coverage/route.text_region_count/route.has_subtitles is a
// separate step (see detector.go); Decide assumes those signals are
// already in ctx.
func Decide(ctx *wavectx.Context) Decision {
	in := readInputs(ctx)

	quality, qReason := qualityScore(in)
	fast := fastScore(in)

	var route Route
	var reason string
	switch {
	case quality >= 3:
		route = RouteQuality
		reason = qReason
	case fast >= 3 || (fast >= 2 && quality == 0):
		route = RouteFast
		reason = "low text/complexity indicators"
	default:
		route = RouteBalanced
		reason = "mixed indicators"
	}

	tier := textTierFor(in.textCoverage)
	skip := skipSetFor(route, tier)

	return Decision{Route: route, TextTier: tier, SkipWaves: skip, Reason: reason}
}

func qualityScore(in inputs) (int, string) {
	score := 0
	reason := ""
	switch {
	case in.textCoverage > 0.40:
		score += 3
		reason = "document_text"
	case in.textCoverage > 0.20:
		score += 2
	case in.textCoverage > 0.10:
		score += 1
	}
	if in.textRegionCount > 10 {
		score += 2
	}
	if in.isAnimated && in.frameCount > 3 {
		if !(in.hasSubtitles && in.textCoverage < 0.15) {
			score += 2
		}
	}
	if in.textLikeliness > 0.5 && in.textCoverage < 0.05 {
		score += 1
	}
	switch in.contentType {
	case "Diagram", "Chart", "ScannedDocument", "Screenshot":
		score += 2
	}
	if in.edgeDensity > 0.15 && in.textRegionCount > 5 {
		score += 1
	}
	if in.pixelCount > 2_000_000 && in.textCoverage > 0.05 {
		score += 1
	}
	return score, reason
}

func fastScore(in inputs) int {
	score := 0
	if in.textCoverage < 0.10 && in.textRegionCount <= 3 {
		score += 2
	}
	if !in.isAnimated && in.textCoverage < 0.15 {
		score += 1
	}
	if in.textRegionCount == 0 && in.textLikeliness < 0.1 {
		score += 2
	}
	if in.hasSubtitles && in.textCoverage < 0.15 {
		score += 1
	}
	if in.pixelCount < 100_000 {
		score += 1
	}
	return score
}

func textTierFor(coverage float64) TextTier {
	switch {
	case coverage < 0.10:
		return TierCaption
	case coverage < 0.25:
		return TierModerate
	case coverage < 0.40:
		return TierSubstantial
	default:
		return TierDocument
	}
}

// skipSetFor reproduces the skip-set table from spec §4.4 verbatim.
func skipSetFor(route Route, tier TextTier) []string {
	switch route {
	case RouteFast:
		if tier == TierCaption {
			return []string{"Ocr", "AdvancedOcr", "OcrVerification", "TextDetection", "ClipEmbedding", "FaceDetection"}
		}
		return []string{"AdvancedOcr", "OcrVerification", "ClipEmbedding", "FaceDetection"}
	case RouteBalanced:
		if tier == TierCaption || tier == TierModerate {
			return []string{"AdvancedOcr", "OcrVerification", "ClipEmbedding"}
		}
		return []string{"ClipEmbedding"}
	case RouteQuality:
		return nil
	}
	return nil
}
