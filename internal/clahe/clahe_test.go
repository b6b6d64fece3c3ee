package clahe

import "testing"

func TestRecombineFrame14Bit(t *testing.T) {
	raw := []byte{0xFF, 0x3F, 0x00, 0x00, 0x01, 0x80}
	dst := make([]uint16, 3)
	RecombineFrame(dst, raw)
	if dst[0] != 0x3FFF {
		t.Errorf("sample 0 = %#x, want 0x3fff", dst[0])
	}
	if dst[1] != 0 {
		t.Errorf("sample 1 = %#x, want 0", dst[1])
	}
	if dst[2] != 1 {
		t.Errorf("sample 2 = %#x, want 1 (top bit of hi byte discarded)", dst[2])
	}
}

func TestConvertFlatFrameMapsToSingleLevel(t *testing.T) {
	opts := DefaultOptions(8, 8)
	opts.Format = FormatRGB
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	n := 8 * 8
	raw := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		raw[2*i] = 0x00
		raw[2*i+1] = 0x10 // sample value 0x1000 for every pixel
	}
	dst := make([]byte, FrameSize(FormatRGB, 8, 8))
	if err := c.Convert(dst, raw); err != nil {
		t.Fatal(err)
	}
	want := dst[0]
	for i := 0; i < n; i++ {
		if dst[3*i] != want || dst[3*i+1] != want || dst[3*i+2] != want {
			t.Fatalf("pixel %d = (%d,%d,%d), want uniform %d", i, dst[3*i], dst[3*i+1], dst[3*i+2], want)
		}
	}
}

func TestConvertGradientStretchesAcrossRange(t *testing.T) {
	const w, h = 16, 16
	opts := DefaultOptions(w, h)
	opts.Format = FormatYUV420
	opts.CutThresh = 1
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	n := w * h
	raw := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		v := uint16((i * 16383) / (n - 1))
		raw[2*i] = byte(v & 0xFF)
		raw[2*i+1] = byte((v >> 8) & 0x7F)
	}
	dst := make([]byte, FrameSize(FormatYUV420, w, h))
	if err := c.Convert(dst, raw); err != nil {
		t.Fatal(err)
	}
	if dst[0] > dst[n-1] {
		t.Errorf("first luma %d should not exceed last luma %d for an increasing ramp", dst[0], dst[n-1])
	}
	if dst[n-1] == 0 {
		t.Errorf("last luma = 0, want the top of the ramp to stretch toward 255")
	}
}

func TestPackFormatsProduceExpectedSizes(t *testing.T) {
	cases := []struct {
		f    Format
		want int
	}{
		{FormatYUV422, 8 * 8 * 2},
		{FormatYUV420, 8*8 + 8*8/2},
		{FormatRGB, 8 * 8 * 3},
		{FormatRGBA, 8 * 8 * 4},
	}
	for _, tc := range cases {
		if got := FrameSize(tc.f, 8, 8); got != tc.want {
			t.Errorf("FrameSize(%v) = %d, want %d", tc.f, got, tc.want)
		}
	}
}

func TestOptionsValidateRejectsBadConfig(t *testing.T) {
	if _, err := New(Options{Width: 0, Height: 8, Format: FormatRGB, ClipLimit: 1}); err == nil {
		t.Error("want error for zero width")
	}
	if _, err := New(Options{Width: 8, Height: 8, Format: Format(99), ClipLimit: 1}); err == nil {
		t.Error("want error for unknown format")
	}
	if _, err := New(Options{Width: 8, Height: 8, Format: FormatRGB, ClipLimit: 0}); err == nil {
		t.Error("want error for non-positive clip limit")
	}
}
