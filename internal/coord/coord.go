package coord

import "math"

// Point is a 2D coordinate pair. Whether it holds longitude/latitude
// (radians or degrees) or easting/northing depends on the operation it is
// passed to.
type Point struct {
	X, Y float64
}

// Coord is the internal coordinate carried between pipeline steps. Z holds
// the ellipsoidal height so that datum shifts can round-trip it within a
// single call; it is zero for 2D input.
type Coord struct {
	X, Y, Z float64
}

// XY drops the height component.
func (c Coord) XY() Point { return Point{X: c.X, Y: c.Y} }

// Lift turns a 2D point into a coordinate at zero height.
func (p Point) Lift() Coord { return Coord{X: p.X, Y: p.Y} }

// IsFinite reports whether both components are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// IsFinite reports whether the horizontal components are finite numbers.
func (c Coord) IsFinite() bool { return c.XY().IsFinite() }

const (
	// HalfPi is π/2, the latitude of the poles.
	HalfPi = math.Pi / 2
	// TwoPi is a full turn.
	TwoPi = 2 * math.Pi
)

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg / 180 * math.Pi
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad / math.Pi * 180
}

// AdjustLon wraps a longitude in radians into [-π, π].
// Values already inside the range are returned unchanged.
func AdjustLon(lon float64) float64 {
	if math.Abs(lon) <= math.Pi {
		return lon
	}
	lon = math.Mod(lon+math.Pi, TwoPi)
	if lon < 0 {
		lon += TwoPi
	}
	return lon - math.Pi
}

// Sign returns -1 for negative values and 1 otherwise.
func Sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
