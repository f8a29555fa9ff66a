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

package contradiction

import (
	"strings"

	"github.com/jordigilh/imagewave/pkg/signal"
)

// BuiltinRules returns the 8 default consistency checks (spec §4.6).
// Callers may register additional rules on top via Registry.Register.
func BuiltinRules() []Rule {
	return []Rule{
		{
			ID:            "ocr_vs_vision_text",
			Kind:          KindCustom,
			Severity:      SeverityWarning,
			KeyA:          "ocr.final.corrected_text",
			KeyB:          "vision.llm.text_present",
			MinConfidence: 0.5,
			Custom: func(a signal.Signal, b *signal.Signal) bool {
				text, _ := a.Value.CoerceString()
				if strings.TrimSpace(text) == "" {
					return false
				}
				present, ok := b.Value.CoerceBool()
				return ok && !present
			},
		},
		{
			ID:            "text_likeliness_vs_ocr",
			Kind:          KindBooleanOpposite,
			Severity:      SeverityWarning,
			KeyA:          "text_likeliness.is_text_heavy",
			KeyB:          "ocr.has_text",
			MinConfidence: 0.5,
		},
		{
			ID:            "grayscale_vs_colors",
			Kind:          KindCustom,
			Severity:      SeverityInfo,
			KeyA:          "color.is_grayscale",
			KeyB:          "color.dominant_colors",
			MinConfidence: 0.5,
			Custom: func(a signal.Signal, b *signal.Signal) bool {
				isGray, ok := a.Value.CoerceBool()
				if !ok || !isGray {
					return false
				}
				return len(distinctNonGrayColors(b.Value)) > 1
			},
		},
		{
			ID:            "screenshot_vs_photo_noise",
			Kind:          KindCustom,
			Severity:      SeverityWarning,
			KeyA:          "identity.is_screenshot",
			KeyB:          "quality.noise_level",
			MinConfidence: 0.5,
			Custom: func(a signal.Signal, b *signal.Signal) bool {
				isScreenshot, ok := a.Value.CoerceBool()
				if !ok || !isScreenshot {
					return false
				}
				noise, ok := b.Value.CoerceFloat64()
				return ok && noise > 0.35
			},
		},
		{
			ID:            "llm_vs_heuristic_type",
			Kind:          KindValueConflict,
			Severity:      SeverityError,
			KeyA:          "vision.llm.content_type",
			KeyB:          "heuristic.content_type",
			MinConfidence: 0.5,
			ExpectedValuesA: []signal.Value{
				signal.StringValue("photo"),
			},
			ContradictoryValuesB: []signal.Value{
				signal.StringValue("illustration"),
				signal.StringValue("screenshot"),
				signal.StringValue("icon"),
			},
		},
		{
			ID:            "face_vs_icon",
			Kind:          KindMutuallyExclusive,
			Severity:      SeverityError,
			KeyA:          "face.count",
			KeyB:          "identity.is_icon",
			MinConfidence: 0.5,
		},
		{
			ID:            "exif_format_mismatch",
			Kind:          KindCustom,
			Severity:      SeverityInfo,
			KeyA:          "exif.detected_format",
			KeyB:          "identity.format",
			MinConfidence: 0.5,
			Custom: func(a signal.Signal, b *signal.Signal) bool {
				exifFormat, okA := a.Value.CoerceString()
				decodedFormat, okB := b.Value.CoerceString()
				if !okA || !okB {
					return false
				}
				return !strings.EqualFold(exifFormat, decodedFormat)
			},
		},
		{
			ID:            "blur_vs_edges",
			Kind:          KindCustom,
			Severity:      SeverityWarning,
			KeyA:          "quality.sharpness",
			KeyB:          "quality.edge_density",
			MinConfidence: 0.5,
			Custom: func(a signal.Signal, b *signal.Signal) bool {
				sharpness, okA := a.Value.CoerceFloat64()
				edgeDensity, okB := b.Value.CoerceFloat64()
				if !okA || !okB {
					return false
				}
				return sharpness < 0.3 && edgeDensity > 0.6
			},
		},
	}
}

func distinctNonGrayColors(v signal.Value) []string {
	if v.Type != signal.TypeList {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, item := range v.List {
		s, ok := item.CoerceString()
		if !ok {
			continue
		}
		if strings.EqualFold(s, "gray") || strings.EqualFold(s, "grey") ||
			strings.EqualFold(s, "black") || strings.EqualFold(s, "white") {
			continue
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// NewBuiltinRegistry returns a Registry seeded with BuiltinRules.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range BuiltinRules() {
		r.Register(rule)
	}
	return r
}
