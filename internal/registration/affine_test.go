package registration

import "testing"

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestSolveRecoversExactTranslation(t *testing.T) {
	want := Affine{A: 1, B: 0, C: 5, D: 0, E: 1, F: -3}
	points := make([]ControlPoint, 0, 6)
	coords := [][2]float64{{0, 0}, {10, 0}, {0, 10}, {10, 10}, {5, 5}, {3, 8}}
	for _, c := range coords {
		x, y := c[0], c[1]
		vx, vy := want.Apply(x, y)
		points = append(points, ControlPoint{IRX: x, IRY: y, VisX: vx, VisY: vy})
	}
	got, err := Solve(points)
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(got.A, want.A, 1e-6) || !approxEqual(got.C, want.C, 1e-6) || !approxEqual(got.F, want.F, 1e-6) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSolveRejectsTooFewPoints(t *testing.T) {
	_, err := Solve(make([]ControlPoint, 3))
	if err == nil {
		t.Fatal("want error for underdetermined control-point set")
	}
}

func TestInvertRoundTrips(t *testing.T) {
	a := Affine{A: 2, B: 0.1, C: 3, D: -0.2, E: 1.5, F: -7}
	inv, err := a.Invert()
	if err != nil {
		t.Fatal(err)
	}
	x, y := a.Apply(4, 9)
	bx, by := inv.Apply(x, y)
	if !approxEqual(bx, 4, 1e-6) || !approxEqual(by, 9, 1e-6) {
		t.Errorf("round trip = (%g,%g), want (4,9)", bx, by)
	}
}

func TestInvertRejectsSingular(t *testing.T) {
	a := Affine{A: 1, B: 2, C: 0, D: 2, E: 4, F: 0}
	if _, err := a.Invert(); err == nil {
		t.Fatal("want error inverting a singular affine transform")
	}
}
