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

// Package wave defines the Wave contract (spec §4.3) and the registry the
// orchestrator sorts and filters before running a schedule.
package wave

import (
	"context"
	"sort"

	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

// Authoritative priority bands (spec §4.3). Ordering affects which
// signals are available to later waves, so these constants are load-bearing,
// not cosmetic.
const (
	PriorityIdentity        = 110
	PriorityColor           = 100
	PriorityAutoRouting     = 98
	PriorityExifForensics   = 90
	PriorityDigitalFinger   = 85
	PriorityTextDetection   = 82
	PriorityOcrTesseract    = 80
	PriorityFaceDetection   = 75
	PriorityEmbedding       = 70
	PriorityOcr             = 60
	PriorityAdvancedOcr     = 59
	PriorityOcrQuality      = 58
	PriorityOcrVerification = 55
	PriorityStructure       = 52
	PriorityVisionLlm       = 50
	PriorityMotion          = 48
	PriorityClipEmbedding   = 45
	PriorityComplexMode     = 45
	PriorityTextLikeliness  = 40
	PriorityQuality         = 30
	PriorityMlOcr           = 28
	PriorityContradiction   = 5
)

// Wave is one pluggable analyzer in the pipeline.
type Wave interface {
	Name() string
	Priority() int
	Tags() []string
	// ShouldRun decides whether analyze should run at all, independent of
	// routing skips. Defaults to true in implementations with no
	// precondition.
	ShouldRun(ctx context.Context, imagePath string, actx *wavectx.Context) bool
	// Analyze may block on I/O (model calls, disk reads) and must respect
	// ctx cancellation.
	Analyze(ctx context.Context, imagePath string, actx *wavectx.Context) ([]signal.Signal, error)
}

// Registry holds every registered wave and produces the priority-ordered,
// tag-filtered schedule the orchestrator walks.
type Registry struct {
	waves []Wave
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends w, preserving registration order for priority ties.
func (r *Registry) Register(w Wave) {
	r.waves = append(r.waves, w)
}

// All returns every registered wave, sorted by priority descending, ties
// broken by registration order (spec §4.3 step 2).
func (r *Registry) All() []Wave {
	out := make([]Wave, len(r.waves))
	copy(out, r.waves)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

// Schedule returns the ordered wave list restricted to waves whose tag set
// intersects required. A nil or empty required set means unrestricted.
func (r *Registry) Schedule(required map[string]bool) []Wave {
	ordered := r.All()
	if len(required) == 0 {
		return ordered
	}
	out := make([]Wave, 0, len(ordered))
	for _, w := range ordered {
		if signal.TagSetIntersects(w.Tags(), required) {
			out = append(out, w)
		}
	}
	return out
}

// ByName looks up a registered wave by name, used by skip-set validation
// and tests.
func (r *Registry) ByName(name string) (Wave, bool) {
	for _, w := range r.waves {
		if w.Name() == name {
			return w, true
		}
	}
	return nil, false
}
