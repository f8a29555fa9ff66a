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

// Package imgio decodes input images (including animated GIF frame
// stacks), resizes them for vision-LLM submission, and builds the
// multi-frame filmstrip composite (spec §9 Open Question).
package imgio

import (
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Frame is one decoded animation frame plus its display delay.
type Frame struct {
	Image image.Image
	Delay time.Duration
}

// SniffFormat identifies a format from its leading magic bytes,
// independent of the file extension or which decoder actually handled
// it — IdentityWave and ExifForensics both need this to catch a
// mislabeled or re-extensioned file (spec's exif_format_mismatch rule).
// Returns "" when no known signature matches.
func SniffFormat(data []byte) string {
	switch {
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "png"
	case len(data) >= 3 && string(data[:3]) == "\xFF\xD8\xFF":
		return "jpeg"
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return "gif"
	case len(data) >= 2 && (string(data[:2]) == "BM"):
		return "bmp"
	case len(data) >= 4 && (string(data[:4]) == "II*\x00" || string(data[:4]) == "MM\x00*"):
		return "tiff"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp"
	default:
		return ""
	}
}

// DecodeFrames returns every frame in path. Non-animated formats (png,
// jpeg, bmp, tiff, webp) decode to a single frame with a zero delay.
func DecodeFrames(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgio: open %s: %w", path, err)
	}
	defer f.Close()
	return decodeFrames(f, strings.ToLower(filepath.Ext(path)))
}

func decodeFrames(r io.Reader, ext string) ([]Frame, error) {
	if ext == ".gif" {
		g, err := gif.DecodeAll(r)
		if err != nil {
			return nil, fmt.Errorf("imgio: decode gif: %w", err)
		}
		return framesFromGIF(g), nil
	}
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imgio: decode image: %w", err)
	}
	return []Frame{{Image: img}}, nil
}

// framesFromGIF composites each paletted sub-image onto a running canvas
// sized to the logical screen. Per-frame disposal methods are ignored
// (every frame is drawn over the previous canvas rather than cleared or
// restored to background first) — a simplification the frame-dedup and
// stabilization phases downstream tolerate since they only need visually
// close approximations of each rendered frame, not exact GIF playback.
func framesFromGIF(g *gif.GIF) []Frame {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	canvas := image.NewRGBA(bounds)

	frames := make([]Frame, 0, len(g.Image))
	for i, paletted := range g.Image {
		drawInto(canvas, paletted, paletted.Bounds())
		snapshot := image.NewRGBA(bounds)
		drawInto(snapshot, canvas, bounds)

		delayCs := 10
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delayCs = g.Delay[i]
		}
		frames = append(frames, Frame{Image: snapshot, Delay: time.Duration(delayCs) * 10 * time.Millisecond})
	}
	return frames
}

func drawInto(dst *image.RGBA, src image.Image, rect image.Rectangle) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
}

// WriteTempImage encodes img as a PNG under dir (os.TempDir if dir is
// empty) and returns its path. Used to hand a stabilized/composited
// in-memory frame to an OCREngine whose contract is path-based.
func WriteTempImage(dir string, img image.Image) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "imagewave-frame-*.png")
	if err != nil {
		return "", fmt.Errorf("imgio: create temp file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("imgio: encode temp frame: %w", err)
	}
	return f.Name(), nil
}

// Resize scales img so its longer side is at most maxDim, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func Resize(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img
	}
	if b.Dx() >= b.Dy() {
		return imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDim, imaging.Lanczos)
}

// MaxWidthForModel resolves the model-specific filmstrip width cap (spec
// §9 Open Question): MiniCPM-V gets 2048px, Llama-3.2-Vision gets 1120px,
// everything else defaults to 1024px, matched on a case-insensitive
// substring of the model name.
func MaxWidthForModel(model string) int {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "minicpm"):
		return 2048
	case strings.Contains(lower, "llama") && strings.Contains(lower, "vision"):
		return 1120
	default:
		return 1024
	}
}

// BuildFilmstrip composes up to 8 frames left to right into a single
// strip, each resized to a common height and the whole strip capped at
// maxWidth. More than 8 frames are evenly subsampled to 8 first; fewer
// frames are used as they are.
func BuildFilmstrip(frames []image.Image, maxWidth int) image.Image {
	selected := selectFilmstripFrames(frames, 4, 8)
	if len(selected) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	const stripHeight = 256
	resized := make([]image.Image, len(selected))
	totalWidth := 0
	for i, f := range selected {
		resized[i] = imaging.Resize(f, 0, stripHeight, imaging.Lanczos)
		totalWidth += resized[i].Bounds().Dx()
	}

	strip := image.NewRGBA(image.Rect(0, 0, totalWidth, stripHeight))
	x := 0
	for _, r := range resized {
		imaging.PasteCenter(strip, r, image.Pt(x+r.Bounds().Dx()/2, stripHeight/2))
		x += r.Bounds().Dx()
	}

	if strip.Bounds().Dx() > maxWidth {
		return imaging.Resize(strip, maxWidth, 0, imaging.Lanczos)
	}
	return strip
}

// selectFilmstripFrames evenly subsamples frames to at most max entries,
// and never returns fewer than min unless frames itself is shorter.
func selectFilmstripFrames(frames []image.Image, min, max int) []image.Image {
	n := len(frames)
	if n == 0 {
		return nil
	}
	if n <= max {
		return frames
	}
	out := make([]image.Image, 0, max)
	step := float64(n-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(float64(i)*step + 0.5)
		out = append(out, frames[idx])
	}
	return out
}

