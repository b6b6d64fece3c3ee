// Package registration implements the visible-spectrum registration stage:
// solving an affine transform from control-point pairs,
// building a per-pixel source-coordinate lookup table, warping the visible
// frame onto the infrared frame's geometry, and caching the resulting
// table on disk keyed by a fingerprint of its inputs.
package registration

import "fmt"

// ControlPoint pairs one infrared-frame coordinate with the corresponding
// visible-frame coordinate, both observing the same real-world feature.
type ControlPoint struct {
	IRX, IRY  float64
	VisX, VisY float64
}

// Affine is x' = A*x + B*y + C, y' = D*x + E*y + F.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// MinControlPoints is the smallest control-point set the solver accepts;
// Solve and ParseControlPointFile reject anything smaller.
const MinControlPoints = 6

// Solve fits an affine transform mapping IR coordinates to visible
// coordinates from the given control points by least squares, via the
// normal equations solved with Gaussian elimination and partial pivoting.
func Solve(points []ControlPoint) (Affine, error) {
	if len(points) < MinControlPoints {
		return Affine{}, fmt.Errorf("registration: need at least %d control points, got %d", MinControlPoints, len(points))
	}

	// Accumulate sum(x^2), sum(xy), sum(x), sum(y^2), sum(y), n and the two
	// right-hand sides (for VisX and VisY) into one normal-equations matrix.
	var sxx, sxy, sx, syy, sy, n float64
	var rx0, rx1, rx2 float64
	var ry0, ry1, ry2 float64
	for _, p := range points {
		x, y := p.IRX, p.IRY
		sxx += x * x
		sxy += x * y
		sx += x
		syy += y * y
		sy += y
		n++

		rx0 += x * p.VisX
		rx1 += y * p.VisX
		rx2 += p.VisX

		ry0 += x * p.VisY
		ry1 += y * p.VisY
		ry2 += p.VisY
	}

	normal := [3][3]float64{
		{sxx, sxy, sx},
		{sxy, syy, sy},
		{sx, sy, n},
	}

	xCoef, err := solveAugmented(normal, [3]float64{rx0, rx1, rx2})
	if err != nil {
		return Affine{}, fmt.Errorf("registration: solving x-mapping: %w", err)
	}
	yCoef, err := solveAugmented(normal, [3]float64{ry0, ry1, ry2})
	if err != nil {
		return Affine{}, fmt.Errorf("registration: solving y-mapping: %w", err)
	}

	return Affine{
		A: xCoef[0], B: xCoef[1], C: xCoef[2],
		D: yCoef[0], E: yCoef[1], F: yCoef[2],
	}, nil
}

// solveAugmented solves m*x = b for a 3x3 system via Gaussian elimination
// with partial pivoting on the 3x4 augmented matrix [m|b].
func solveAugmented(m [3][3]float64, b [3]float64) ([3]float64, error) {
	var aug [3][4]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			aug[r][c] = m[r][c]
		}
		aug[r][3] = b[r]
	}

	for col := 0; col < 3; col++ {
		pivot := col
		best := abs(aug[col][col])
		for r := col + 1; r < 3; r++ {
			if v := abs(aug[r][col]); v > best {
				pivot, best = r, v
			}
		}
		if best < 1e-12 {
			return [3]float64{}, fmt.Errorf("singular system (column %d, pivot magnitude %g)", col, best)
		}
		if pivot != col {
			aug[col], aug[pivot] = aug[pivot], aug[col]
		}
		pv := aug[col][col]
		for r := col + 1; r < 3; r++ {
			factor := aug[r][col] / pv
			if factor == 0 {
				continue
			}
			for c := col; c < 4; c++ {
				aug[r][c] -= factor * aug[col][c]
			}
		}
	}

	var x [3]float64
	for r := 2; r >= 0; r-- {
		sum := aug[r][3]
		for c := r + 1; c < 3; c++ {
			sum -= aug[r][c] * x[c]
		}
		x[r] = sum / aug[r][r]
	}
	return x, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Invert returns the inverse affine transform, mapping visible coordinates
// back to IR coordinates. BuildLUT does not use it: it applies the forward
// transform directly at every destination pixel.
func (a Affine) Invert() (Affine, error) {
	det := a.A*a.E - a.B*a.D
	if abs(det) < 1e-12 {
		return Affine{}, fmt.Errorf("registration: affine transform is not invertible (det=%g)", det)
	}
	invDet := 1 / det
	ia := a.E * invDet
	ib := -a.B * invDet
	id := -a.D * invDet
	ie := a.A * invDet
	// Solve for translation: [ic, if] = -[ia,ib;id,ie] * [C,F]
	ic := -(ia*a.C + ib*a.F)
	iff := -(id*a.C + ie*a.F)
	return Affine{A: ia, B: ib, C: ic, D: id, E: ie, F: iff}, nil
}

// Apply maps one coordinate forward through the transform.
func (a Affine) Apply(x, y float64) (float64, float64) {
	return a.A*x + a.B*y + a.C, a.D*x + a.E*y + a.F
}
