package registration

import "testing"

func TestBuildLUTIdentityMapsOntoItself(t *testing.T) {
	identity := Affine{A: 1, E: 1}
	lut, err := BuildLUT(identity, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if !approxEqual(lut.ColTab[y][x], float64(x), 1e-9) {
				t.Errorf("ColTab[%d][%d] = %g, want %d", y, x, lut.ColTab[y][x], x)
			}
			if !approxEqual(lut.RowTab[y][x], float64(y), 1e-9) {
				t.Errorf("RowTab[%d][%d] = %g, want %d", y, x, lut.RowTab[y][x], y)
			}
		}
	}
}

func TestBuildLUTRejectsNonPositiveGeometry(t *testing.T) {
	identity := Affine{A: 1, E: 1}
	if _, err := BuildLUT(identity, 0, 4); err == nil {
		t.Fatal("want error building an LUT with zero width")
	}
}
