// Package projection implements the map projection methods supported by
// geoproj. Each method is a kernel working on a unit ellipsoid; Projection
// wraps it with the steps every method shares: latitude checks, central
// meridian handling, scaling by the semi-major axis, false origin and
// output units.
package projection

import (
	"math"
	"strconv"
	"strings"

	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// latitudeTolerance is how far past a pole an input latitude may stray.
const latitudeTolerance = 1e-12

// kernel is the method-specific part of a projection. Coordinates are
// radians on the geodetic side and multiples of the semi-major axis on the
// projected side; lam is already relative to the central meridian.
type kernel interface {
	forward(lam, phi float64) (x, y float64, err error)
	inverse(x, y float64) (lam, phi float64, err error)
}

// Method is the typed parameter set of one projection method.
type Method interface {
	// Name is the proj identifier of the method, e.g. "tmerc".
	Name() string
	// params renders the method parameters as proj key=value tokens.
	params() []string
	build(e *ellps.Ellipsoid) (kernel, error)
}

// Definition fully describes a projection.
type Definition struct {
	Method    Method
	Ellipsoid *ellps.Ellipsoid
	Lon0      float64 // central meridian, radians
	X0, Y0    float64 // false easting and northing, metres
	ToMeter   float64 // size of one output unit in metres; 0 means 1
	Units     string  // name of the output unit, informational
}

// Projection is an immutable, ready-to-use projection. It is safe for
// concurrent use.
type Projection struct {
	def        Definition
	k          kernel
	a          float64
	toMeter    float64
	geographic bool
}

// New validates the definition and precomputes the method constants.
func New(def Definition) (*Projection, error) {
	if def.Method == nil {
		return nil, projerr.InvalidParameterf("projection method is required")
	}
	if def.Ellipsoid == nil {
		def.Ellipsoid = ellps.WGS84()
	}
	for name, v := range map[string]float64{"lon_0": def.Lon0, "x_0": def.X0, "y_0": def.Y0, "to_meter": def.ToMeter} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, projerr.InvalidParameterf("%s is not finite", name)
		}
	}
	if def.ToMeter == 0 {
		def.ToMeter = 1
	}
	if def.ToMeter < 0 {
		return nil, projerr.InvalidParameterf("to_meter must be positive, got %g", def.ToMeter)
	}
	k, err := def.Method.build(def.Ellipsoid)
	if err != nil {
		return nil, err
	}
	_, geographic := def.Method.(LongLat)
	return &Projection{
		def:        def,
		k:          k,
		a:          def.Ellipsoid.SemiMajorAxis(),
		toMeter:    def.ToMeter,
		geographic: geographic,
	}, nil
}

// Name returns the method identifier.
func (p *Projection) Name() string { return p.def.Method.Name() }

// Definition returns the definition the projection was built from.
func (p *Projection) Definition() Definition { return p.def }

// Ellipsoid returns the ellipsoid the projection works on.
func (p *Projection) Ellipsoid() *ellps.Ellipsoid { return p.def.Ellipsoid }

// IsGeographic reports whether the projected side is still longitude and
// latitude in radians.
func (p *Projection) IsGeographic() bool { return p.geographic }

// Forward projects longitude and latitude in radians.
func (p *Projection) Forward(lon, lat float64) (x, y float64, err error) {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return 0, 0, projerr.LatitudeOutOfRangef("non-finite input (%g, %g)", lon, lat)
	}
	if math.Abs(lat) > coord.HalfPi+latitudeTolerance {
		return 0, 0, projerr.LatitudeOutOfRangef("latitude %g rad is outside ±π/2", lat)
	}
	lam := coord.AdjustLon(lon - p.def.Lon0)
	if p.geographic {
		return lam, lat, nil
	}
	x, y, err = p.k.forward(lam, lat)
	if err != nil {
		return 0, 0, err
	}
	x = (p.a*x + p.def.X0) / p.toMeter
	y = (p.a*y + p.def.Y0) / p.toMeter
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, projerr.Singularityf("%s forward produced a non-finite result", p.Name())
	}
	return x, y, nil
}

// Inverse recovers longitude and latitude in radians from projected
// coordinates.
func (p *Projection) Inverse(x, y float64) (lon, lat float64, err error) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, projerr.InvalidParameterf("non-finite input (%g, %g)", x, y)
	}
	var lam, phi float64
	if p.geographic {
		if math.Abs(y) > coord.HalfPi+latitudeTolerance {
			return 0, 0, projerr.LatitudeOutOfRangef("latitude %g rad is outside ±π/2", y)
		}
		lam, phi = x, y
	} else {
		x = (x*p.toMeter - p.def.X0) / p.a
		y = (y*p.toMeter - p.def.Y0) / p.a
		lam, phi, err = p.k.inverse(x, y)
		if err != nil {
			return 0, 0, err
		}
	}
	if math.IsNaN(lam) || math.IsNaN(phi) {
		return 0, 0, projerr.Singularityf("%s inverse produced a non-finite result", p.Name())
	}
	return coord.AdjustLon(lam + p.def.Lon0), phi, nil
}

// String renders the projection as proj parameters, without the ellipsoid.
func (p *Projection) String() string {
	parts := []string{"proj=" + p.Name()}
	parts = append(parts, p.def.Method.params()...)
	if !p.geographic {
		if p.def.Lon0 != 0 {
			parts = append(parts, "lon_0="+formatDeg(p.def.Lon0))
		}
		if p.def.X0 != 0 {
			parts = append(parts, "x_0="+formatFloat(p.def.X0))
		}
		if p.def.Y0 != 0 {
			parts = append(parts, "y_0="+formatFloat(p.def.Y0))
		}
	}
	switch {
	case p.def.Units != "":
		parts = append(parts, "units="+p.def.Units)
	case p.toMeter != 1:
		parts = append(parts, "to_meter="+formatFloat(p.toMeter))
	}
	return strings.Join(parts, " ")
}

// formatFloat renders v in plain decimal notation, never with an exponent.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDeg renders an angle given in radians as degrees, trimming the
// noise of the round trip through radians to 15 significant digits.
func formatDeg(rad float64) string {
	deg, _ := strconv.ParseFloat(strconv.FormatFloat(coord.RadToDeg(rad), 'g', 15, 64), 64)
	return formatFloat(deg)
}
