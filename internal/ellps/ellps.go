// Package ellps models reference ellipsoids and the conversion between
// geodetic and geocentric (earth-centred, earth-fixed) coordinates on them.
package ellps

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// Ellipsoid is an immutable oblate ellipsoid of revolution. Derived
// constants are computed once by New.
type Ellipsoid struct {
	name string
	a    float64 // semi-major axis
	rf   float64 // inverse flattening
	f    float64
	b    float64
	es   float64 // first eccentricity squared
	e    float64
	eps  float64 // second eccentricity squared
}

// New builds an ellipsoid from its semi-major axis and inverse flattening.
func New(semiMajorAxis, inverseFlattening float64) (*Ellipsoid, error) {
	if math.IsNaN(semiMajorAxis) || math.IsInf(semiMajorAxis, 0) || semiMajorAxis <= 0 {
		return nil, projerr.InvalidParameterf("semi-major axis must be positive, got %g", semiMajorAxis)
	}
	if math.IsNaN(inverseFlattening) || math.IsInf(inverseFlattening, 0) || inverseFlattening <= 0 {
		return nil, projerr.InvalidParameterf("inverse flattening must be positive, got %g", inverseFlattening)
	}
	f := 1 / inverseFlattening
	if f >= 1 {
		return nil, projerr.InvalidParameterf("flattening must be below 1, got %g", f)
	}
	es := f * (2 - f)
	return &Ellipsoid{
		a:   semiMajorAxis,
		rf:  inverseFlattening,
		f:   f,
		b:   semiMajorAxis * (1 - f),
		es:  es,
		e:   math.Sqrt(es),
		eps: es / (1 - es),
	}, nil
}

// FromAB builds an ellipsoid from its semi-major and semi-minor axes.
func FromAB(a, b float64) (*Ellipsoid, error) {
	if !(b > 0) || !(b < a) {
		return nil, projerr.InvalidParameterf("semi-minor axis must satisfy 0 < b < a, got a=%g b=%g", a, b)
	}
	return New(a, a/(a-b))
}

func (e *Ellipsoid) SemiMajorAxis() float64       { return e.a }
func (e *Ellipsoid) SemiMinorAxis() float64       { return e.b }
func (e *Ellipsoid) Flattening() float64          { return e.f }
func (e *Ellipsoid) InverseFlattening() float64   { return e.rf }
func (e *Ellipsoid) EccentricitySquared() float64 { return e.es }
func (e *Ellipsoid) Eccentricity() float64        { return e.e }

// SecondEccentricitySquared is e'² = e²/(1-e²).
func (e *Ellipsoid) SecondEccentricitySquared() float64 { return e.eps }

// Name is the registry name the ellipsoid was looked up by, or empty for
// ellipsoids built from raw parameters.
func (e *Ellipsoid) Name() string { return e.name }

// Equal reports whether two ellipsoids have the same shape.
func (e *Ellipsoid) Equal(o *Ellipsoid) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.a == o.a && e.rf == o.rf
}

// Definition renders the ellipsoid as proj-style parameters.
func (e *Ellipsoid) Definition() string {
	if e.name != "" {
		return "ellps=" + e.name
	}
	return fmt.Sprintf("a=%s rf=%s", formatFloat(e.a), formatFloat(e.rf))
}

// PrimeVerticalRadius returns N(φ), the radius of curvature in the prime
// vertical.
func (e *Ellipsoid) PrimeVerticalRadius(phi float64) float64 {
	s := math.Sin(phi)
	return e.a / math.Sqrt(1-e.es*s*s)
}

// Cartesian converts geodetic longitude, latitude (radians) and ellipsoidal
// height (metres) to geocentric coordinates.
func (e *Ellipsoid) Cartesian(lon, lat, h float64) r3.Vector {
	n := e.PrimeVerticalRadius(lat)
	cosLat := math.Cos(lat)
	return r3.Vector{
		X: (n + h) * cosLat * math.Cos(lon),
		Y: (n + h) * cosLat * math.Sin(lon),
		Z: (n*(1-e.es) + h) * math.Sin(lat),
	}
}

const (
	geodeticTol     = 1e-14
	geodeticMaxIter = 30
)

// Geodetic converts geocentric coordinates back to longitude, latitude
// (radians) and ellipsoidal height.
func (e *Ellipsoid) Geodetic(v r3.Vector) (lon, lat, h float64) {
	p := math.Hypot(v.X, v.Y)
	if p == 0 {
		// On the polar axis.
		lat = math.Copysign(math.Pi/2, v.Z)
		if v.Z == 0 {
			return 0, 0, -e.a
		}
		return 0, lat, math.Abs(v.Z) - e.b
	}
	lon = math.Atan2(v.Y, v.X)
	lat = math.Atan2(v.Z, p*(1-e.es))
	for i := 0; i < geodeticMaxIter; i++ {
		n := e.PrimeVerticalRadius(lat)
		next := math.Atan2(v.Z+e.es*n*math.Sin(lat), p)
		done := math.Abs(next-lat) < geodeticTol
		lat = next
		if done {
			break
		}
	}
	n := e.PrimeVerticalRadius(lat)
	if math.Abs(lat) < math.Pi/4 {
		h = p/math.Cos(lat) - n
	} else {
		h = v.Z/math.Sin(lat) - n*(1-e.es)
	}
	return lon, lat, h
}

type namedEllipsoid struct {
	a, rf, b    float64
	description string
}

// The table follows the usual proj names. Entries defined by their
// semi-minor axis carry b instead of rf.
var named = map[string]namedEllipsoid{
	"WGS84":    {a: 6378137.0, rf: 298.257223563, description: "WGS 84"},
	"GRS80":    {a: 6378137.0, rf: 298.257222101, description: "GRS 1980(IUGG, 1980)"},
	"WGS72":    {a: 6378135.0, rf: 298.26, description: "WGS 72"},
	"krass":    {a: 6378245.0, rf: 298.3, description: "Krassovsky, 1942"},
	"airy":     {a: 6377563.396, b: 6356256.910, description: "Airy 1830"},
	"mod_airy": {a: 6377340.189, b: 6356034.446, description: "Modified Airy"},
	"clrk66":   {a: 6378206.4, b: 6356583.8, description: "Clarke 1866"},
	"clrk80":   {a: 6378249.145, rf: 293.4663, description: "Clarke 1880 mod."},
	"intl":     {a: 6378388.0, rf: 297.0, description: "International 1924 (Hayford 1909, 1910)"},
	"bessel":   {a: 6377397.155, rf: 299.1528128, description: "Bessel 1841"},
	"aust_SA":  {a: 6378160.0, rf: 298.25, description: "Australian Natl & S. Amer. 1969"},
}

// Named looks up an ellipsoid by its proj name (e.g. "WGS84", "krass").
func Named(name string) (*Ellipsoid, error) {
	n, ok := named[name]
	if !ok {
		return nil, projerr.InvalidParameterf("unknown ellipsoid %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	var (
		e   *Ellipsoid
		err error
	)
	if n.b != 0 {
		e, err = FromAB(n.a, n.b)
	} else {
		e, err = New(n.a, n.rf)
	}
	if err != nil {
		return nil, err
	}
	e.name = name
	return e, nil
}

// Names lists the known ellipsoid names in sorted order.
func Names() []string {
	out := make([]string, 0, len(named))
	for k := range named {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WGS84 returns the WGS 84 ellipsoid.
func WGS84() *Ellipsoid {
	e, err := Named("WGS84")
	if err != nil {
		panic(err)
	}
	return e
}

func formatFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.12f", v), "0"), ".")
}
