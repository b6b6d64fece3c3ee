package fusion

import (
	"errors"
	"testing"

	"github.com/intuitionamiga/irfusion/internal/registration"
)

func sixControlPoints() []registration.ControlPoint {
	pts := make([]registration.ControlPoint, 0, 6)
	coords := [][2]float64{{0, 0}, {100, 0}, {0, 100}, {100, 100}, {50, 50}, {20, 80}}
	for _, c := range coords {
		pts = append(pts, registration.ControlPoint{IRX: c[0], IRY: c[1], VisX: c[0], VisY: c[1]})
	}
	return pts
}

func validOptions() Options {
	o := DefaultOptions(64, 48)
	o.UnregWidth, o.UnregHeight = 128, 96
	o.ControlPoints = sixControlPoints()
	return o
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validOptions().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	o := validOptions()
	o.BaseWidth = 0
	err := o.Validate()
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
}

func TestValidateRejectsTooFewControlPoints(t *testing.T) {
	o := validOptions()
	o.ControlPoints = o.ControlPoints[:3]
	if err := o.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
}

func TestValidateRejectsBadStyle(t *testing.T) {
	o := validOptions()
	o.Style = Style(99)
	if err := o.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
}

func TestValidateRejectsOutOfRangeSSR(t *testing.T) {
	o := validOptions()
	o.SSR = 0
	if err := o.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
}
