package registration

import (
	"path/filepath"
	"testing"
)

func samplePoints() []ControlPoint {
	a := Affine{A: 1.1, B: 0.05, C: 2, D: -0.02, E: 0.95, F: 4}
	coords := [][2]float64{{0, 0}, {20, 0}, {0, 20}, {20, 20}, {10, 10}, {5, 17}}
	points := make([]ControlPoint, 0, len(coords))
	for _, c := range coords {
		vx, vy := a.Apply(c[0], c[1])
		points = append(points, ControlPoint{IRX: c[0], IRY: c[1], VisX: vx, VisY: vy})
	}
	return points
}

func TestFingerprintChangesWithInputs(t *testing.T) {
	points := samplePoints()
	fp1 := Fingerprint(points, 16, 16)
	fp2 := Fingerprint(points, 16, 16)
	if fp1 != fp2 {
		t.Error("fingerprint should be deterministic for identical inputs")
	}
	points[0].IRX += 1
	fp3 := Fingerprint(points, 16, 16)
	if fp1 == fp3 {
		t.Error("fingerprint should change when a control point moves")
	}
}

func TestSaveAndLoadLUTRoundTrips(t *testing.T) {
	points := samplePoints()
	fwd, err := Solve(points)
	if err != nil {
		t.Fatal(err)
	}
	lut, err := BuildLUT(fwd, 8, 6)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	fp := Fingerprint(points, 8, 6)
	if err := SaveLUT(dir, lut, fp); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadLUT(dir, 8, 6)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			if !approxEqual(loaded.ColTab[y][x], lut.ColTab[y][x], 1e-9) {
				t.Fatalf("ColTab[%d][%d] = %g, want %g", y, x, loaded.ColTab[y][x], lut.ColTab[y][x])
			}
		}
	}
}

func TestLoadOrBuildReusesCacheUntilFingerprintChanges(t *testing.T) {
	points := samplePoints()
	fwd, err := Solve(points)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "lutcache")

	_, reused, err := LoadOrBuild(dir, fwd, points, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if reused {
		t.Error("first call should build, not reuse")
	}

	_, reused, err = LoadOrBuild(dir, fwd, points, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !reused {
		t.Error("second call with identical inputs should reuse the cached LUT")
	}

	points[0].IRX += 5
	fwd2, err := Solve(points)
	if err != nil {
		t.Fatal(err)
	}
	_, reused, err = LoadOrBuild(dir, fwd2, points, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if reused {
		t.Error("changed control points should invalidate the cache")
	}
}
