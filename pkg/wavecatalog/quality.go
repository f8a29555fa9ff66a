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

	"github.com/jordigilh/imagewave/pkg/imgio"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

// QualityWave runs at priority 30: the three cheap per-pixel measures
// (edge density, sharpness, noise) the router, the blur_vs_edges rule,
// and the screenshot_vs_photo_noise rule all depend on. It runs this
// late rather than early so it can reuse IdentityWave's cached frame
// decode without forcing either of those heuristics to also own a
// decode step.
type QualityWave struct{}

func NewQualityWave() *QualityWave { return &QualityWave{} }

func (w *QualityWave) Name() string   { return "Quality" }
func (w *QualityWave) Priority() int  { return wave.PriorityQuality }
func (w *QualityWave) Tags() []string { return []string{"quality"} }
func (w *QualityWave) ShouldRun(context.Context, string, *wavectx.Context) bool { return true }

func (w *QualityWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	frames, ok := wavectx.GetCached[[]imgio.Frame](actx, "identity.frames")
	if !ok || len(frames) == 0 {
		return nil, nil
	}
	img := frames[0].Image

	edge := edgeDensity(img)
	sharp := sharpness(img)
	noise := noiseLevel(img)

	now := time.Now().UTC()
	return []signal.Signal{
		w.sig("quality.edge_density", signal.FloatValue(edge), 0.6, now),
		w.sig("quality.sharpness", signal.FloatValue(sharp), 0.6, now),
		w.sig("quality.noise_level", signal.FloatValue(noise), 0.5, now),
	}, nil
}

func (w *QualityWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"quality"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
