package coord

import (
	"math"
	"testing"
)

func TestDegRadRoundTrip(t *testing.T) {
	for _, deg := range []float64{-180, -90, -16, 0, 20.25, 46, 90, 180} {
		got := RadToDeg(DegToRad(deg))
		if math.Abs(got-deg) > 1e-12 {
			t.Errorf("RadToDeg(DegToRad(%v)) = %v", deg, got)
		}
	}
	if got := DegToRad(180); got != math.Pi {
		t.Errorf("DegToRad(180) = %v, want π", got)
	}
}

func TestAdjustLon(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"inside", 1.5, 1.5},
		{"pi", math.Pi, math.Pi},
		{"minus pi", -math.Pi, -math.Pi},
		{"one turn over", 0.25 + TwoPi, 0.25},
		{"one turn under", -0.25 - TwoPi, -0.25},
		{"many turns", 0.5 + 7*TwoPi, 0.5},
		{"just past pi", math.Pi + 0.1, -math.Pi + 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustLon(tt.in)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("AdjustLon(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPointLift(t *testing.T) {
	p := Point{X: 1, Y: 2}
	c := p.Lift()
	if c.Z != 0 || c.XY() != p {
		t.Errorf("Lift/XY mismatch: %+v -> %+v", p, c)
	}
	if !p.IsFinite() {
		t.Error("finite point reported as non-finite")
	}
	if (Point{X: math.NaN()}).IsFinite() || (Point{Y: math.Inf(1)}).IsFinite() {
		t.Error("non-finite point reported as finite")
	}
}
