package registration

import "golang.org/x/image/math/fixed"

// Warp resamples a YUV420 visible frame onto the infrared frame's geometry
// described by lut. The luma plane is bilinearly interpolated; chroma is
// nearest-neighbor copied, computed only at even (x,y) destination
// coordinates per the 4:2:0 subsampling and written into the half-resolution
// chroma planes. Destination pixels whose source coordinate falls outside
// the visible frame are zeroed (luma) or left at the caller-supplied neutral
// fill (chroma, conventionally pre-filled 0x80 by the caller before Warp is
// invoked, so unmapped edges read as neutral gray rather than black).
func Warp(lut *LUT, srcY []byte, srcW, srcH int, srcU, srcV []byte, dstY []byte, dstU, dstV []byte) {
	w, h := lut.Width, lut.Height
	for y := 0; y < h; y++ {
		col := lut.ColTab[y]
		row := lut.RowTab[y]
		for x := 0; x < w; x++ {
			sx, sy := col[x], row[x]
			dstY[y*w+x] = bilinearSample(srcY, srcW, srcH, sx, sy)

			if x%2 == 0 && y%2 == 0 {
				cx, cy := int(sx)/2, int(sy)/2
				if cx >= 0 && cx < srcW/2 && cy >= 0 && cy < srcH/2 {
					cw := w / 2
					ci := (y/2)*cw + x/2
					csrc := cy*(srcW/2) + cx
					if ci < len(dstU) && csrc < len(srcU) {
						dstU[ci] = srcU[csrc]
						dstV[ci] = srcV[csrc]
					}
				}
			}
		}
	}
}

// toFixed converts a float64 source coordinate into 26.6 fixed point so the
// fractional bilinear weight below is an integer shift-and-multiply rather
// than repeated float division — the accumulator the LUT's sub-pixel
// sampling was built around.
func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v*64 + 0.5)
}

func bilinearSample(src []byte, w, h int, sx, sy float64) byte {
	if sx < 0 || sy < 0 || sx > float64(w-1) || sy > float64(h-1) {
		return 0
	}
	fxp := toFixed(sx)
	fyp := toFixed(sy)
	x0 := int(fxp >> 6)
	y0 := int(fyp >> 6)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > w-1 {
		x1 = w - 1
	}
	if y1 > h-1 {
		y1 = h - 1
	}
	// fractional weights in [0,64)
	fx := int(fxp & 0x3F)
	fy := int(fyp & 0x3F)

	p00 := int(src[y0*w+x0])
	p10 := int(src[y0*w+x1])
	p01 := int(src[y1*w+x0])
	p11 := int(src[y1*w+x1])

	top := p00*(64-fx) + p10*fx
	bot := p01*(64-fx) + p11*fx
	v := (top*(64-fy) + bot*fy) >> 12 // >>6 twice for the two fixed-point mults

	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}
