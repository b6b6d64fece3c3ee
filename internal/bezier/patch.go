package bezier

import (
	"github.com/intuitionamiga/irfusion/internal/imgbuf"
	"github.com/intuitionamiga/irfusion/internal/quadtree"
)

// bernstein is the fixed bicubic Bernstein matrix M.
var bernstein = [4][4]float64{
	{1, 0, 0, 0},
	{-3, 3, 0, 0},
	{3, -6, 3, 0},
	{-1, 3, -3, 1},
}

// truncToByte clamps v into [0,255] and truncates toward zero, distinct
// from the Gaussian blur's round-to-nearest byte conversion.
func truncToByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// controlGrid samples the 4x4 control-point grid P for one blob from the
// min-filtered source image.
func controlGrid(minFiltered imgbuf.Frame, quad quadtree.Rect) [4][4]float64 {
	bw, bh := quad.Width(), quad.Height()
	var p [4][4]float64
	for y := 0; y < 4; y++ {
		sy := quad.Top + (y*bh)/4
		for x := 0; x < 4; x++ {
			sx := quad.Left + (x*bw)/4
			p[y][x] = float64(minFiltered.Pix[minFiltered.At(sx, sy)])
		}
	}
	return p
}

// SynthesizePatch renders the bicubic Bézier surface for one leaf blob,
// sampled from minFiltered, into dst at the blob's rectangle. dst must be
// the same geometry as the source image (the mosaic being assembled).
func SynthesizePatch(minFiltered imgbuf.Frame, blob quadtree.Blob, dst imgbuf.Frame) {
	quad := blob.Rect
	bw, bh := quad.Width(), quad.Height()
	if bw <= 0 || bh <= 0 {
		return
	}
	p := controlGrid(minFiltered, quad)

	// U is (bh x 4): row y = [1, u, u^2, u^3], u = y/(bh-1).
	u := make([][4]float64, bh)
	for y := 0; y < bh; y++ {
		uu := 0.0
		if bh > 1 {
			uu = float64(y) / float64(bh-1)
		}
		u[y] = [4]float64{1, uu, uu * uu, uu * uu * uu}
	}
	// VT is (4 x bw): column x = [1, v, v^2, v^3], v = x/(bw-1).
	vt := make([][4]float64, bw)
	for x := 0; x < bw; x++ {
		vv := 0.0
		if bw > 1 {
			vv = float64(x) / float64(bw-1)
		}
		vt[x] = [4]float64{1, vv, vv * vv, vv * vv * vv}
	}

	// um = U * M  (bh x 4)
	um := make([][4]float64, bh)
	for y := 0; y < bh; y++ {
		for c := 0; c < 4; c++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += u[y][k] * bernstein[k][c]
			}
			um[y][c] = s
		}
	}
	// ump = um * P  (bh x 4)
	ump := make([][4]float64, bh)
	for y := 0; y < bh; y++ {
		for c := 0; c < 4; c++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += um[y][k] * p[k][c]
			}
			ump[y][c] = s
		}
	}
	// umpmt = ump * M^T  (bh x 4)
	umpmt := make([][4]float64, bh)
	for y := 0; y < bh; y++ {
		for c := 0; c < 4; c++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += ump[y][k] * bernstein[c][k]
			}
			umpmt[y][c] = s
		}
	}
	// B = umpmt * VT  (bh x bw)
	for y := 0; y < bh; y++ {
		destRow := dst.Pix[dst.At(quad.Left, quad.Top+y):]
		for x := 0; x < bw; x++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += umpmt[y][k] * vt[x][k]
			}
			destRow[x] = truncToByte(s)
		}
	}
}
