package ocr

import (
	"image"
	"image/color"
	"sort"
)

// TemporalMedian computes the per-pixel, per-channel median across a
// stabilized frame stack (spec §4.5 phase 3). frames must all share the
// same bounds, which Stabilize guarantees.
func TemporalMedian(frames []image.Image) image.Image {
	if len(frames) == 0 {
		return nil
	}
	if len(frames) == 1 {
		return frames[0]
	}

	b := frames[0].Bounds()
	out := image.NewRGBA(b)
	n := len(frames)
	rs := make([]int, n)
	gs := make([]int, n)
	bs := make([]int, n)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			for i, f := range frames {
				r, g, bl, _ := f.At(x, y).RGBA()
				rs[i] = int(r >> 8)
				gs[i] = int(g >> 8)
				bs[i] = int(bl >> 8)
			}
			sort.Ints(rs)
			sort.Ints(gs)
			sort.Ints(bs)
			mid := n / 2
			out.Set(x, y, color.RGBA{
				R: uint8(rs[mid]),
				G: uint8(gs[mid]),
				B: uint8(bs[mid]),
				A: 255,
			})
		}
	}
	return out
}
