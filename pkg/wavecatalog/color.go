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
	"image/color"
	"sort"
	"time"

	"github.com/jordigilh/imagewave/pkg/imgio"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

// ColorWave runs at priority 100, right after identity: grayscale
// detection and a coarse dominant-color palette, both read by the
// router and by the contradiction validator's grayscale_vs_colors rule.
type ColorWave struct{}

func NewColorWave() *ColorWave { return &ColorWave{} }

func (w *ColorWave) Name() string    { return "ColorWave" }
func (w *ColorWave) Priority() int   { return wave.PriorityColor }
func (w *ColorWave) Tags() []string  { return []string{"color"} }
func (w *ColorWave) ShouldRun(context.Context, string, *wavectx.Context) bool { return true }

func (w *ColorWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	frames, ok := wavectx.GetCached[[]imgio.Frame](actx, "identity.frames")
	if !ok || len(frames) == 0 {
		return nil, nil
	}
	img := frames[0].Image

	isGray, grayRatio := grayscaleStats(img)
	buckets := dominantBuckets(img, 3)

	now := time.Now().UTC()
	values := make([]signal.Value, len(buckets))
	for i, b := range buckets {
		values[i] = signal.StringValue(b)
	}

	return []signal.Signal{
		w.sig("color.is_grayscale", signal.BoolValue(isGray), 0.8, now),
		w.sig("color.grayscale_ratio", signal.FloatValue(grayRatio), 0.8, now),
		w.sig("color.dominant_colors", signal.ListValue(values), 0.6, now),
	}, nil
}

// grayscaleStats samples the image and reports whether the large
// majority of sampled pixels are achromatic, plus the raw ratio.
func grayscaleStats(img image.Image) (bool, float64) {
	var gray, total int
	sampleGrid(img, 64, func(_, _ int, c color.Color) {
		r, g, b, _ := c.RGBA()
		total++
		if isGrayscalePixel(r, g, b) {
			gray++
		}
	})
	if total == 0 {
		return false, 0
	}
	ratio := float64(gray) / float64(total)
	return ratio > 0.95, ratio
}

// dominantBuckets returns the top n color buckets by sampled frequency,
// ordered most to least frequent.
func dominantBuckets(img image.Image, n int) []string {
	counts := map[string]int{}
	sampleGrid(img, 64, func(_, _ int, c color.Color) {
		counts[colorBucket(c)]++
	})

	type kv struct {
		name  string
		count int
	}
	ranked := make([]kv, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, kv{name, count})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}
	return out
}

func (w *ColorWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"color"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
