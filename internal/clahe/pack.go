package clahe

// FrameSize returns the byte size of one packed frame in the given format
// at width x height.
func FrameSize(f Format, width, height int) int {
	n := width * height
	switch f {
	case FormatYUV422:
		return n * 2
	case FormatYUV420:
		return n + n/2
	case FormatRGB:
		return n * 3
	case FormatRGBA:
		return n * 4
	default:
		return 0
	}
}

// Pack writes the grayscale plane y into dst in the requested layout. Since
// CLAHE only produces luma, chroma is filled with neutral gray (0x80) for
// YUV layouts and with the luma value itself for RGB/RGBA layouts.
func Pack(dst []byte, y []byte, f Format, width, height int) {
	switch f {
	case FormatYUV422:
		packYUV422(dst, y, width, height)
	case FormatYUV420:
		packYUV420(dst, y, width, height)
	case FormatRGB:
		packRGB(dst, y, width, height)
	case FormatRGBA:
		packRGBA(dst, y, width, height)
	}
}

func packYUV422(dst, y []byte, width, height int) {
	n := width * height
	copy(dst[:n], y)
	for i := n; i < n*2; i++ {
		dst[i] = 0x80
	}
}

func packYUV420(dst, y []byte, width, height int) {
	n := width * height
	copy(dst[:n], y)
	for i := n; i < n+n/2; i++ {
		dst[i] = 0x80
	}
}

func packRGB(dst, y []byte, width, height int) {
	n := width * height
	for i := 0; i < n; i++ {
		dst[3*i] = y[i]
		dst[3*i+1] = y[i]
		dst[3*i+2] = y[i]
	}
}

func packRGBA(dst, y []byte, width, height int) {
	n := width * height
	for i := 0; i < n; i++ {
		dst[4*i] = y[i]
		dst[4*i+1] = y[i]
		dst[4*i+2] = y[i]
		dst[4*i+3] = 0xFF
	}
}
