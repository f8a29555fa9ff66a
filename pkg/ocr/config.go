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

// Package ocr implements the multi-frame OCR pipeline (spec §4.5):
// text-change-guided frame selection, stabilization, temporal-median
// composition, character-level voting across frames, and the 3-tier
// dictionary/n-gram/vision-LLM correction cascade.
package ocr

// QualityMode selects which phases run and tunes their budgets (spec
// §4.5's phase table).
type QualityMode string

const (
	ModeFast     QualityMode = "fast"
	ModeBalanced QualityMode = "balanced"
	ModeQuality  QualityMode = "quality"
	ModeUltra    QualityMode = "ultra"
)

// PhaseConfig is one row of the quality-mode phase table.
type PhaseConfig struct {
	Stabilization     bool
	TemporalMedian    bool
	TextDetection     bool
	TemporalVoting    bool
	PostCorrection    bool
	MaxVotingFrames   int
	EarlyExitThreshold float64
}

var phaseTable = map[QualityMode]PhaseConfig{
	ModeFast: {
		Stabilization: true, TemporalMedian: true, TextDetection: false,
		TemporalVoting: true, PostCorrection: false,
		MaxVotingFrames: 5, EarlyExitThreshold: 0.90,
	},
	ModeBalanced: {
		Stabilization: true, TemporalMedian: true, TextDetection: true,
		TemporalVoting: true, PostCorrection: true,
		MaxVotingFrames: 8, EarlyExitThreshold: 0.95,
	},
	ModeQuality: {
		Stabilization: true, TemporalMedian: true, TextDetection: true,
		TemporalVoting: true, PostCorrection: true,
		MaxVotingFrames: 10, EarlyExitThreshold: 0.98,
	},
	ModeUltra: {
		Stabilization: true, TemporalMedian: true, TextDetection: true,
		TemporalVoting: true, PostCorrection: true,
		MaxVotingFrames: 15, EarlyExitThreshold: 1.01, // >1.0 never trips: early exit is off in Ultra.
	},
}

// PhaseConfigFor returns the phase table row for mode, defaulting to
// Balanced for an unrecognized mode string.
func PhaseConfigFor(mode QualityMode) PhaseConfig {
	if p, ok := phaseTable[mode]; ok {
		return p
	}
	return phaseTable[ModeBalanced]
}

// Config holds the tunable thresholds spec §4.5 names, sourced from a
// wave manifest's defaults.parameters map.
type Config struct {
	Mode QualityMode

	DedupThreshold                   float64
	StabilizationConfidenceThreshold float64
	SpellCheckQualityThreshold       float64
	MaxFeaturePoints                 int
	IoUClusterThreshold              float64
}

// DefaultConfig returns spec §4.5's named default values.
func DefaultConfig() Config {
	return Config{
		Mode:                             ModeBalanced,
		DedupThreshold:                   0.92,
		StabilizationConfidenceThreshold: 0.6,
		SpellCheckQualityThreshold:       0.5,
		MaxFeaturePoints:                 500,
		IoUClusterThreshold:              0.5,
	}
}
