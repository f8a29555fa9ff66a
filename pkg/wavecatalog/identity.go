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
	"os"
	"time"

	"github.com/jordigilh/imagewave/pkg/imgio"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
	"github.com/jordigilh/imagewave/pkg/xerrors"
)

// IdentityWave runs first (priority 110): decode the image once,
// establish frame count/animation/format/pixel count, and flag the
// screenshot/icon shapes the router and contradiction validator both
// read at priority >= 99.
type IdentityWave struct{}

func NewIdentityWave() *IdentityWave { return &IdentityWave{} }

func (w *IdentityWave) Name() string                                           { return "IdentityWave" }
func (w *IdentityWave) Priority() int                                          { return wave.PriorityIdentity }
func (w *IdentityWave) Tags() []string                                         { return []string{"identity"} }
func (w *IdentityWave) ShouldRun(context.Context, string, *wavectx.Context) bool { return true }

func (w *IdentityWave) Analyze(_ context.Context, imagePath string, actx *wavectx.Context) ([]signal.Signal, error) {
	now := time.Now().UTC()

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, xerrors.InvalidInput("read image", err).WithResource(imagePath)
	}
	format := imgio.SniffFormat(data)

	frames, err := imgio.DecodeFrames(imagePath)
	if err != nil {
		return nil, xerrors.InvalidInput("decode image", err).WithResource(imagePath)
	}
	if len(frames) == 0 {
		return nil, xerrors.InvalidInput("decode image", nil).WithResource(imagePath)
	}

	bounds := frames[0].Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixelCount := int64(width) * int64(height)
	isAnimated := format == "gif" && len(frames) > 1

	actx.SetCached("identity.frames", frames)

	sigs := []signal.Signal{
		w.sig("identity.format", signal.StringValue(format), 1.0, now),
		w.sig("identity.sha256", signal.StringValue(actx.ImageHash), 1.0, now),
		w.sig("identity.width", signal.IntValue(int64(width)), 1.0, now),
		w.sig("identity.height", signal.IntValue(int64(height)), 1.0, now),
		w.sig("identity.pixel_count", signal.IntValue(pixelCount), 1.0, now),
		w.sig("identity.is_animated", signal.BoolValue(isAnimated), 1.0, now),
		w.sig("identity.frame_count", signal.IntValue(int64(len(frames))), 1.0, now),
		w.sig("identity.is_icon", signal.BoolValue(isIconShaped(width, height, pixelCount)), 0.7, now),
		w.sig("identity.is_screenshot", signal.BoolValue(looksLikeScreenshot(width, height)), 0.5, now),
	}
	return sigs, nil
}

// isIconShaped flags small, roughly-square images: favicons, app icons,
// emoji — the shape the face_vs_icon contradiction rule cross-checks
// against face.count.
func isIconShaped(w, h int, pixelCount int64) bool {
	if w == 0 || h == 0 {
		return false
	}
	ratio := float64(w) / float64(h)
	return pixelCount < 40_000 && ratio > 0.8 && ratio < 1.25
}

// looksLikeScreenshot is a weak prior from aspect ratio alone (common
// desktop/mobile screen ratios); it exists to give the
// screenshot_vs_photo_noise contradiction rule something to check
// against, not to be a confident classifier on its own.
func looksLikeScreenshot(w, h int) bool {
	if w == 0 || h == 0 {
		return false
	}
	ratio := float64(w) / float64(h)
	if ratio < 1 {
		ratio = 1 / ratio
	}
	screenRatios := []float64{16.0 / 9, 4.0 / 3, 16.0 / 10, 19.5 / 9}
	for _, r := range screenRatios {
		if abs64(ratio-r) < 0.03 {
			return true
		}
	}
	return false
}

func (w *IdentityWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"identity"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
