package coord

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AreaOfUse is a bounding box in degrees that narrows the choice of
// coordinate operation between two CRS. When West > East the box crosses
// the antimeridian.
type AreaOfUse struct {
	West, South, East, North float64
}

// World covers the whole globe.
var World = AreaOfUse{West: -180, South: -90, East: 180, North: 90}

// Validate checks that the box uses degree ranges and a non-inverted
// latitude span.
func (a AreaOfUse) Validate() error {
	for _, v := range []float64{a.West, a.South, a.East, a.North} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("area of use has non-finite bound")
		}
	}
	if a.West < -180 || a.West > 180 || a.East < -180 || a.East > 180 {
		return fmt.Errorf("area of use longitudes must be within ±180, got west=%g east=%g", a.West, a.East)
	}
	if a.South < -90 || a.North > 90 || a.South > a.North {
		return fmt.Errorf("area of use latitudes must satisfy -90 <= south <= north <= 90, got south=%g north=%g", a.South, a.North)
	}
	return nil
}

// CrossesAntimeridian reports whether the box wraps through ±180°.
func (a AreaOfUse) CrossesAntimeridian() bool {
	return a.West > a.East
}

// lonSpans returns the box as one or two non-wrapping longitude intervals.
func (a AreaOfUse) lonSpans() [][2]float64 {
	if a.CrossesAntimeridian() {
		return [][2]float64{{a.West, 180}, {-180, a.East}}
	}
	return [][2]float64{{a.West, a.East}}
}

// Contains reports whether the point (degrees) lies inside the box.
func (a AreaOfUse) Contains(lon, lat float64) bool {
	if lat < a.South || lat > a.North {
		return false
	}
	for _, s := range a.lonSpans() {
		if lon >= s[0] && lon <= s[1] {
			return true
		}
	}
	return false
}

// Intersects reports whether two boxes overlap, taking antimeridian
// crossing of either box into account.
func (a AreaOfUse) Intersects(b AreaOfUse) bool {
	if a.North < b.South || b.North < a.South {
		return false
	}
	for _, sa := range a.lonSpans() {
		for _, sb := range b.lonSpans() {
			if sa[0] <= sb[1] && sb[0] <= sa[1] {
				return true
			}
		}
	}
	return false
}

// String formats the box as "west,south,east,north".
func (a AreaOfUse) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", a.West, a.South, a.East, a.North)
}

// ParseArea reads a box written as "west,south,east,north" and validates
// it.
func ParseArea(s string) (AreaOfUse, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return AreaOfUse{}, fmt.Errorf("area of use %q must have four comma separated values", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return AreaOfUse{}, fmt.Errorf("area of use %q: %w", s, err)
		}
		v[i] = f
	}
	a := AreaOfUse{West: v[0], South: v[1], East: v[2], North: v[3]}
	if err := a.Validate(); err != nil {
		return AreaOfUse{}, err
	}
	return a, nil
}
