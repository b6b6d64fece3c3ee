package bezier

import (
	"math"

	"github.com/intuitionamiga/irfusion/internal/imgbuf"
)

// gaussianKernel5x5 builds the normalized 1-D weights of a 5-tap Gaussian
// kernel (radius 2) for the given sigma.
func gaussianKernel5x5(sigma float64) [5]float64 {
	var k [5]float64
	var sum float64
	for i := -2; i <= 2; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+2] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianBlur applies a separable 5x5 Gaussian blur (sigma as given) to
// src, replicating edge pixels at the margins.
func GaussianBlur(src imgbuf.Frame, sigma float64) imgbuf.Frame {
	k := gaussianKernel5x5(sigma)
	w, h := src.Width, src.Height

	tmp := imgbuf.New(w, h)
	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+w]
		dstRow := tmp.Pix[y*tmp.Stride : y*tmp.Stride+w]
		for x := 0; x < w; x++ {
			var acc float64
			for t := -2; t <= 2; t++ {
				xx := clampIdx(x+t, w)
				acc += k[t+2] * float64(srcRow[xx])
			}
			dstRow[x] = roundToByte(acc)
		}
	}

	dst := imgbuf.New(w, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var acc float64
			for t := -2; t <= 2; t++ {
				yy := clampIdx(y+t, h)
				acc += k[t+2] * float64(tmp.Pix[yy*tmp.Stride+x])
			}
			dst.Pix[y*dst.Stride+x] = roundToByte(acc)
		}
	}
	return dst
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func roundToByte(v float64) byte {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return byte(r)
}
