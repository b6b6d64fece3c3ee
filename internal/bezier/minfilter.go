package bezier

import "github.com/intuitionamiga/irfusion/internal/imgbuf"

// MinFilter applies a (2*radius+1) square minimum filter to src, replicating
// edge pixels into the margin of width radius. The square
// structuring element is separable: a horizontal min pass followed by a
// vertical min pass of the result yields the same output as the full 2-D
// window minimum.
func MinFilter(src imgbuf.Frame, radius int) imgbuf.Frame {
	w, h := src.Width, src.Height
	tmp := imgbuf.New(w, h)
	minFilterHorizontal(src, tmp, radius)

	dst := imgbuf.New(w, h)
	minFilterVertical(tmp, dst, radius)
	return dst
}

func minFilterHorizontal(src, dst imgbuf.Frame, radius int) {
	w, h := src.Width, src.Height
	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+w]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			lo := x - radius
			hi := x + radius
			if lo < 0 {
				lo = 0
			}
			if hi > w-1 {
				hi = w - 1
			}
			m := byte(255)
			for k := lo; k <= hi; k++ {
				if srcRow[k] < m {
					m = srcRow[k]
				}
			}
			dstRow[x] = m
		}
	}
}

func minFilterVertical(src, dst imgbuf.Frame, radius int) {
	w, h := src.Width, src.Height
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			lo := y - radius
			hi := y + radius
			if lo < 0 {
				lo = 0
			}
			if hi > h-1 {
				hi = h - 1
			}
			m := byte(255)
			for k := lo; k <= hi; k++ {
				v := src.Pix[k*src.Stride+x]
				if v < m {
					m = v
				}
			}
			dst.Pix[y*dst.Stride+x] = m
		}
	}
}
