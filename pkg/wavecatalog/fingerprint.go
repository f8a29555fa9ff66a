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
	"fmt"
	"image"
	"math/bits"
	"time"

	"github.com/disintegration/imaging"

	"github.com/jordigilh/imagewave/pkg/imgio"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

// DigitalFingerprintWave runs at priority 85: a perceptual average-hash
// (aHash), distinct from the content-addressed SHA256 the store keys
// profiles by. Two visually near-identical images — a recompression, a
// resize, a different crop — hash close together in Hamming distance
// even though their exact bytes (and SHA256) differ completely.
type DigitalFingerprintWave struct{}

func NewDigitalFingerprintWave() *DigitalFingerprintWave { return &DigitalFingerprintWave{} }

func (w *DigitalFingerprintWave) Name() string   { return "DigitalFingerprint" }
func (w *DigitalFingerprintWave) Priority() int  { return wave.PriorityDigitalFinger }
func (w *DigitalFingerprintWave) Tags() []string { return []string{"identity"} }
func (w *DigitalFingerprintWave) ShouldRun(context.Context, string, *wavectx.Context) bool {
	return true
}

func (w *DigitalFingerprintWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	frames, ok := wavectx.GetCached[[]imgio.Frame](actx, "identity.frames")
	if !ok || len(frames) == 0 {
		return nil, nil
	}

	hash, bitsSet := averageHash(frames[0].Image)
	now := time.Now().UTC()

	s, err := signal.New("digital_fingerprint.ahash", signal.StringValue(fmt.Sprintf("%016x", hash)), 0.7, w.Name(), []string{"identity"}, now)
	if err != nil {
		return nil, err
	}
	density, err := signal.New("digital_fingerprint.bit_density", signal.FloatValue(float64(bitsSet)/64.0), 0.7, w.Name(), []string{"identity"}, now)
	if err != nil {
		return nil, err
	}
	return []signal.Signal{s, density}, nil
}

// averageHash implements the classic 8x8 aHash: shrink to 8x8 grayscale,
// compare each cell to the mean luma, set the bit if brighter.
func averageHash(img image.Image) (uint64, int) {
	small := imaging.Resize(img, 8, 8, imaging.Box)

	lumas := make([]float64, 64)
	var sum float64
	i := 0
	bounds := small.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			l := luma(small.At(x, y))
			lumas[i] = l
			sum += l
			i++
		}
	}
	mean := sum / 64.0

	var hash uint64
	for idx, l := range lumas {
		if l >= mean {
			hash |= 1 << uint(idx)
		}
	}
	return hash, bits.OnesCount64(hash)
}

// HammingDistance counts differing bits between two aHash values — the
// near-duplicate distance metric a future dedup pass would use.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
