package imgbuf

import "testing"

func TestNewProducesTightlyPackedFrame(t *testing.T) {
	f := New(4, 3)
	if f.Width != 4 || f.Height != 3 || f.Stride != 4 {
		t.Fatalf("got %+v, want 4x3 stride 4", f)
	}
	if len(f.Pix) != 12 {
		t.Fatalf("Pix len = %d, want 12", len(f.Pix))
	}
	if err := f.CheckBounds(); err != nil {
		t.Fatalf("CheckBounds on a freshly constructed Frame: %v", err)
	}
}

func TestCheckBoundsRejectsShortBuffer(t *testing.T) {
	f := Frame{Width: 4, Height: 4, Stride: 4, Pix: make([]byte, 8)}
	if err := f.CheckBounds(); err == nil {
		t.Fatal("want error for a buffer shorter than width*height")
	}
}

func TestCheckBoundsRejectsStrideShorterThanWidth(t *testing.T) {
	f := Frame{Width: 8, Height: 2, Stride: 4, Pix: make([]byte, 16)}
	if err := f.CheckBounds(); err == nil {
		t.Fatal("want error when stride is shorter than width")
	}
}

func TestCheckBoundsRejectsNonPositiveShape(t *testing.T) {
	for _, f := range []Frame{
		{Width: 0, Height: 4, Stride: 4, Pix: make([]byte, 16)},
		{Width: 4, Height: 0, Stride: 4, Pix: make([]byte, 16)},
	} {
		if err := f.CheckBounds(); err == nil {
			t.Fatalf("want error for shape %dx%d", f.Width, f.Height)
		}
	}
}

func TestCheckBoundsAcceptsPaddedStride(t *testing.T) {
	f := Frame{Width: 4, Height: 4, Stride: 6, Pix: make([]byte, 6*3+4)}
	if err := f.CheckBounds(); err != nil {
		t.Fatalf("want a padded-stride buffer to pass, got %v", err)
	}
}

func TestNewViewValidatesShapeAgainstBuffer(t *testing.T) {
	if _, err := NewView(4, 4, 4, make([]byte, 16)); err != nil {
		t.Fatalf("valid view: %v", err)
	}
	if _, err := NewView(4, 4, 4, make([]byte, 10)); err == nil {
		t.Fatal("want error for an undersized buffer")
	}
}

func TestSameComparesGeometryOnly(t *testing.T) {
	a := New(4, 3)
	b := Frame{Width: 4, Height: 3, Stride: 9, Pix: make([]byte, 27)}
	if !Same(a, b) {
		t.Fatal("want Same to ignore stride and buffer identity")
	}
	c := New(4, 4)
	if Same(a, c) {
		t.Fatal("want Same to report false for differing height")
	}
}
