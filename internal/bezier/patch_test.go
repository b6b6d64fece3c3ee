package bezier

import (
	"testing"

	"github.com/intuitionamiga/irfusion/internal/imgbuf"
	"github.com/intuitionamiga/irfusion/internal/quadtree"
)

func TestSynthesizePatchCornerFidelity(t *testing.T) {
	src := imgbuf.New(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.Pix[src.At(x, y)] = byte((x*17 + y*31) % 256)
		}
	}
	blob := quadtree.Blob{Rect: quadtree.Rect{Top: 0, Left: 0, Bottom: 16, Right: 16}}
	dst := imgbuf.New(16, 16)
	SynthesizePatch(src, blob, dst)

	grid := controlGrid(src, blob.Rect)
	corners := []struct {
		dx, dy int
		px, py int
	}{
		{0, 0, 0, 0},
		{15, 0, 3, 0},
		{0, 15, 0, 3},
		{15, 15, 3, 3},
	}
	for _, c := range corners {
		got := dst.Pix[dst.At(c.dx, c.dy)]
		want := byte(grid[c.py][c.px])
		if absDiff(got, want) > 1 {
			t.Errorf("corner (%d,%d) = %d, want ~%d (control point)", c.dx, c.dy, got, want)
		}
	}
}

// TestSynthesizePatchTruncatesInteriorFraction picks a control grid whose
// bicubic surface value at a non-corner pixel lands at 2400/27 = 88.888...,
// a case where round-to-nearest (89) and truncation (88) disagree.
func TestSynthesizePatchTruncatesInteriorFraction(t *testing.T) {
	src := imgbuf.New(4, 4)
	rows := [4]byte{0, 200, 0, 0}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Pix[src.At(x, y)] = rows[y]
		}
	}
	blob := quadtree.Blob{Rect: quadtree.Rect{Top: 0, Left: 0, Bottom: 4, Right: 4}}
	dst := imgbuf.New(4, 4)
	SynthesizePatch(src, blob, dst)

	got := dst.Pix[dst.At(1, 1)]
	if got != 88 {
		t.Errorf("interior pixel (1,1) = %d, want 88 (truncated from 88.888..., not rounded to 89)", got)
	}
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
