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

// Package waveconfig loads per-wave YAML manifests (spec §6) and merges
// in the hierarchical `Images.Waves.<name>.Defaults.*` process-config
// overrides, watching the manifest directory for hot reload.
package waveconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jordigilh/imagewave/internal/config"
)

var validate = validator.New()

// Manifest is one wave's YAML configuration file.
type Manifest struct {
	Name     string   `yaml:"name" validate:"required"`
	Priority int      `yaml:"priority" validate:"required"`
	Tags     []string `yaml:"tags"`
	Defaults Defaults `yaml:"defaults"`
}

type Defaults struct {
	Weights    map[string]float64 `yaml:"weights"`
	Confidence float64            `yaml:"confidence" validate:"gte=0,lte=1"`
	Timing     time.Duration      `yaml:"-"`
	Features   map[string]bool    `yaml:"features"`
	Parameters map[string]string  `yaml:"parameters"`
}

type rawManifest struct {
	Name     string       `yaml:"name"`
	Priority int          `yaml:"priority"`
	Tags     []string     `yaml:"tags"`
	Defaults rawDefaults  `yaml:"defaults"`
}

type rawDefaults struct {
	Weights    map[string]float64 `yaml:"weights"`
	Confidence float64            `yaml:"confidence"`
	Timing     string             `yaml:"timing"`
	Features   map[string]bool    `yaml:"features"`
	Parameters map[string]string  `yaml:"parameters"`
}

// LoadManifest parses a single wave YAML file and validates it.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read wave manifest %s: %w", path, err)
	}
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse wave manifest %s: %w", path, err)
	}
	timing, err := time.ParseDuration(orDefault(raw.Defaults.Timing, "0s"))
	if err != nil {
		return Manifest{}, fmt.Errorf("wave manifest %s: invalid defaults.timing: %w", path, err)
	}
	m := Manifest{
		Name:     raw.Name,
		Priority: raw.Priority,
		Tags:     raw.Tags,
		Defaults: Defaults{
			Weights:    raw.Defaults.Weights,
			Confidence: raw.Defaults.Confidence,
			Timing:     timing,
			Features:   raw.Defaults.Features,
			Parameters: raw.Defaults.Parameters,
		},
	}
	if err := validate.Struct(m); err != nil {
		return Manifest{}, fmt.Errorf("wave manifest %s failed validation: %w", path, err)
	}
	return m, nil
}

// LoadDir parses every `*.yaml` manifest in dir, keyed by wave name.
func LoadDir(dir string) (map[string]Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read wave manifest directory %s: %w", dir, err)
	}
	out := map[string]Manifest{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		m, err := LoadManifest(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out[m.Name] = m
	}
	return out, nil
}

// MergeOverride applies a process-config `Images.Waves.<name>.Defaults.*`
// override on top of a manifest's own defaults. Override fields win
// wherever they are non-zero; zero-valued override fields leave the
// manifest's value untouched.
func MergeOverride(m Manifest, override config.WaveDefaults) Manifest {
	merged := m.Defaults
	if override.Confidence != 0 {
		merged.Confidence = override.Confidence
	}
	if override.Timing != 0 {
		merged.Timing = override.Timing
	}
	for k, v := range override.Weights {
		if merged.Weights == nil {
			merged.Weights = map[string]float64{}
		}
		merged.Weights[k] = v
	}
	for k, v := range override.Features {
		if merged.Features == nil {
			merged.Features = map[string]bool{}
		}
		merged.Features[k] = v
	}
	for k, v := range override.Parameters {
		if merged.Parameters == nil {
			merged.Parameters = map[string]string{}
		}
		merged.Parameters[k] = v
	}
	m.Defaults = merged
	return m
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
