package pipeline

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/datum"
	"github.com/pspoerri/geoproj/internal/projection"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// ProjectionStep runs a map projection: forward maps geodetic radians to
// projected units.
type ProjectionStep struct {
	p *projection.Projection
}

// NewProjectionStep wraps a projection as a pipeline step.
func NewProjectionStep(p *projection.Projection) *ProjectionStep {
	return &ProjectionStep{p: p}
}

// Projection returns the wrapped projection.
func (s *ProjectionStep) Projection() *projection.Projection { return s.p }

func (s *ProjectionStep) Forward(c coord.Coord) (coord.Coord, error) {
	x, y, err := s.p.Forward(c.X, c.Y)
	return coord.Coord{X: x, Y: y, Z: c.Z}, err
}

func (s *ProjectionStep) Inverse(c coord.Coord) (coord.Coord, error) {
	lon, lat, err := s.p.Inverse(c.X, c.Y)
	return coord.Coord{X: lon, Y: lat, Z: c.Z}, err
}

func (s *ProjectionStep) InDomain() Domain { return Geodetic }

func (s *ProjectionStep) OutDomain() Domain {
	if s.p.IsGeographic() {
		return Geodetic
	}
	return Projected
}

func (s *ProjectionStep) Definition() string {
	return s.p.String() + " " + s.p.Ellipsoid().Definition()
}

// ShiftStep applies a Helmert datum shift to geodetic coordinates,
// carrying the ellipsoidal height through Z.
type ShiftStep struct {
	h *datum.Helmert
}

// NewShiftStep wraps a Helmert transformation as a pipeline step.
func NewShiftStep(h *datum.Helmert) *ShiftStep {
	return &ShiftStep{h: h}
}

// Helmert returns the wrapped transformation.
func (s *ShiftStep) Helmert() *datum.Helmert { return s.h }

func checkLatitude(c coord.Coord) error {
	if !c.IsFinite() || math.IsNaN(c.Z) || math.IsInf(c.Z, 0) {
		return projerr.LatitudeOutOfRangef("non-finite input (%g, %g, %g)", c.X, c.Y, c.Z)
	}
	if math.Abs(c.Y) > coord.HalfPi+1e-12 {
		return projerr.LatitudeOutOfRangef("latitude %g rad is outside ±π/2", c.Y)
	}
	return nil
}

func (s *ShiftStep) Forward(c coord.Coord) (coord.Coord, error) {
	if err := checkLatitude(c); err != nil {
		return coord.Coord{}, err
	}
	lon, lat, h := s.h.ForwardGeodetic(c.X, c.Y, c.Z)
	return coord.Coord{X: lon, Y: lat, Z: h}, nil
}

func (s *ShiftStep) Inverse(c coord.Coord) (coord.Coord, error) {
	if err := checkLatitude(c); err != nil {
		return coord.Coord{}, err
	}
	lon, lat, h := s.h.InverseGeodetic(c.X, c.Y, c.Z)
	return coord.Coord{X: lon, Y: lat, Z: h}, nil
}

func (s *ShiftStep) InDomain() Domain   { return Geodetic }
func (s *ShiftStep) OutDomain() Domain  { return Geodetic }
func (s *ShiftStep) Definition() string { return s.h.Definition() }

// AxisSwap reorders and optionally negates the two horizontal axes.
// order[i] names the input axis (1 or 2) that becomes output axis i; a
// negative entry flips its sign.
type AxisSwap struct {
	order [2]int
}

// NewAxisSwap validates an axis order such as {2, 1} or {-1, 2}.
func NewAxisSwap(order [2]int) (*AxisSwap, error) {
	a, b := abs(order[0]), abs(order[1])
	if !(a == 1 && b == 2) && !(a == 2 && b == 1) {
		return nil, projerr.InvalidParameterf("axisswap order %d,%d is not a permutation of 1,2", order[0], order[1])
	}
	return &AxisSwap{order: order}, nil
}

// SwapXY exchanges the two axes.
func SwapXY() *AxisSwap { return &AxisSwap{order: [2]int{2, 1}} }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func pick(c coord.Coord, axis int) float64 {
	v := c.X
	if abs(axis) == 2 {
		v = c.Y
	}
	if axis < 0 {
		return -v
	}
	return v
}

func (s *AxisSwap) Forward(c coord.Coord) (coord.Coord, error) {
	return coord.Coord{X: pick(c, s.order[0]), Y: pick(c, s.order[1]), Z: c.Z}, nil
}

func (s *AxisSwap) Inverse(c coord.Coord) (coord.Coord, error) {
	var in [2]float64
	out := [2]float64{c.X, c.Y}
	for i, axis := range s.order {
		v := out[i]
		if axis < 0 {
			v = -v
		}
		in[abs(axis)-1] = v
	}
	return coord.Coord{X: in[0], Y: in[1], Z: c.Z}, nil
}

func (s *AxisSwap) InDomain() Domain  { return Any }
func (s *AxisSwap) OutDomain() Domain { return Any }

func (s *AxisSwap) Definition() string {
	return "proj=axisswap order=" + strconv.Itoa(s.order[0]) + "," + strconv.Itoa(s.order[1])
}

func (s *AxisSwap) identity() bool { return s.order == [2]int{1, 2} }

// inverse returns the swap that undoes s.
func (s *AxisSwap) inverse() *AxisSwap {
	var r [2]int
	for i, axis := range s.order {
		v := i + 1
		if axis < 0 {
			v = -v
		}
		r[abs(axis)-1] = v
	}
	return &AxisSwap{order: r}
}

// then composes s followed by o into one swap.
func (s *AxisSwap) then(o *AxisSwap) *AxisSwap {
	var r [2]int
	for i, axis := range o.order {
		inner := s.order[abs(axis)-1]
		if axis < 0 {
			inner = -inner
		}
		r[i] = inner
	}
	return &AxisSwap{order: r}
}

// Unit is a named unit of the horizontal axes.
type Unit struct {
	Name    string
	Angular bool
	// ToBase is the size of the unit in metres, or in radians for angular
	// units.
	ToBase float64
}

var units = map[string]Unit{
	"rad":   {Name: "rad", Angular: true, ToBase: 1},
	"deg":   {Name: "deg", Angular: true, ToBase: math.Pi / 180},
	"m":     {Name: "m", ToBase: 1},
	"km":    {Name: "km", ToBase: 1000},
	"ft":    {Name: "ft", ToBase: 0.3048},
	"us-ft": {Name: "us-ft", ToBase: 1200.0 / 3937},
}

// LookupUnit finds a unit by its proj name.
func LookupUnit(name string) (Unit, error) {
	u, ok := units[name]
	if !ok {
		names := make([]string, 0, len(units))
		for k := range units {
			names = append(names, k)
		}
		sort.Strings(names)
		return Unit{}, projerr.InvalidParameterf("unknown unit %q (known: %s)", name, strings.Join(names, ", "))
	}
	return u, nil
}

// UnitConvert rescales the horizontal axes between two units of the same
// kind.
type UnitConvert struct {
	in, out Unit
}

// NewUnitConvert builds a conversion between two units, which must both be
// angular or both be linear.
func NewUnitConvert(in, out Unit) (*UnitConvert, error) {
	if in.Angular != out.Angular {
		return nil, projerr.InvalidParameterf("cannot convert between %s and %s", in.Name, out.Name)
	}
	return &UnitConvert{in: in, out: out}, nil
}

// DegreesToRadians converts geodetic degrees to radians.
func DegreesToRadians() *UnitConvert {
	return &UnitConvert{in: units["deg"], out: units["rad"]}
}

func convert(v float64, from, to Unit) float64 {
	switch {
	case from == to:
		return v
	case from.Name == "deg" && to.Name == "rad":
		return coord.DegToRad(v)
	case from.Name == "rad" && to.Name == "deg":
		return coord.RadToDeg(v)
	}
	return v * from.ToBase / to.ToBase
}

func (s *UnitConvert) Forward(c coord.Coord) (coord.Coord, error) {
	return coord.Coord{X: convert(c.X, s.in, s.out), Y: convert(c.Y, s.in, s.out), Z: c.Z}, nil
}

func (s *UnitConvert) Inverse(c coord.Coord) (coord.Coord, error) {
	return coord.Coord{X: convert(c.X, s.out, s.in), Y: convert(c.Y, s.out, s.in), Z: c.Z}, nil
}

func (s *UnitConvert) domain() Domain {
	if s.in.Angular {
		return Geodetic
	}
	return Projected
}

func (s *UnitConvert) InDomain() Domain  { return s.domain() }
func (s *UnitConvert) OutDomain() Domain { return s.domain() }

func (s *UnitConvert) Definition() string {
	return "proj=unitconvert xy_in=" + s.in.Name + " xy_out=" + s.out.Name
}

func (s *UnitConvert) identity() bool { return s.in == s.out }
