// Package datum implements the seven-parameter Helmert transformation used
// to shift coordinates between geodetic datums, and the table of named
// datums expressed as shifts to WGS 84.
package datum

import (
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// arcSecond is one second of arc in radians.
const arcSecond = math.Pi / (180 * 3600)

// Params are the seven Helmert parameters in proj's towgs84 order:
// translations in metres, rotations in arc-seconds (position vector
// convention) and scale in parts per million.
type Params struct {
	TX, TY, TZ float64
	RX, RY, RZ float64
	S          float64
}

// ParseParams reads a comma separated towgs84 list. Three values give a
// translation-only shift; seven give the full transformation.
func ParseParams(s string) (Params, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 && len(fields) != 7 {
		return Params{}, projerr.InvalidParameterf("towgs84 needs 3 or 7 values, got %d", len(fields))
	}
	var v [7]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Params{}, projerr.InvalidParameterf("towgs84 value %q is not a number", f)
		}
		v[i] = x
	}
	return Params{TX: v[0], TY: v[1], TZ: v[2], RX: v[3], RY: v[4], RZ: v[5], S: v[6]}, nil
}

func (p Params) values() [7]float64 {
	return [7]float64{p.TX, p.TY, p.TZ, p.RX, p.RY, p.RZ, p.S}
}

// IsIdentity reports whether every parameter is zero.
func (p Params) IsIdentity() bool {
	return p == Params{}
}

// IsTranslation reports whether the shift has no rotation or scale.
func (p Params) IsTranslation() bool {
	return p.RX == 0 && p.RY == 0 && p.RZ == 0 && p.S == 0
}

// String renders the parameters as a towgs84 value, using the short
// three-value form when there is no rotation or scale.
func (p Params) String() string {
	v := p.values()
	n := 7
	if p.IsTranslation() {
		n = 3
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.FormatFloat(v[i], 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Helmert is an immutable seven-parameter similarity transformation of
// geocentric coordinates from the source datum to the target datum.
type Helmert struct {
	params Params
	t      r3.Vector
	rot    [3]r3.Vector // rows of the rotation matrix
	inv    [3]r3.Vector // rows of its exact inverse
	scale  float64      // 1 + s·1e-6
	src    *ellps.Ellipsoid
	dst    *ellps.Ellipsoid
}

// NewHelmert builds the transformation. src and dst are the ellipsoids the
// geodetic variants convert through.
func NewHelmert(p Params, src, dst *ellps.Ellipsoid) (*Helmert, error) {
	if src == nil || dst == nil {
		return nil, projerr.InvalidParameterf("helmert requires source and target ellipsoids")
	}
	for i, v := range p.values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, projerr.InvalidParameterf("helmert parameter %d is not finite", i)
		}
	}
	scale := 1 + p.S*1e-6
	if scale <= 0 {
		return nil, projerr.Degeneratef("helmert scale %g ppm collapses space", p.S)
	}
	rx, ry, rz := p.RX*arcSecond, p.RY*arcSecond, p.RZ*arcSecond
	rot := [3]r3.Vector{
		{X: 1, Y: -rz, Z: ry},
		{X: rz, Y: 1, Z: -rx},
		{X: -ry, Y: rx, Z: 1},
	}
	inv, ok := invert(rot)
	if !ok {
		return nil, projerr.Degeneratef("helmert rotation matrix is singular")
	}
	return &Helmert{
		params: p,
		t:      r3.Vector{X: p.TX, Y: p.TY, Z: p.TZ},
		rot:    rot,
		inv:    inv,
		scale:  scale,
		src:    src,
		dst:    dst,
	}, nil
}

// invert returns the inverse of a 3×3 matrix given by rows.
func invert(m [3]r3.Vector) ([3]r3.Vector, bool) {
	// Columns of the inverse are cross products of row pairs over det.
	c0 := m[1].Cross(m[2])
	c1 := m[2].Cross(m[0])
	c2 := m[0].Cross(m[1])
	det := m[0].Dot(c0)
	if det == 0 || math.IsNaN(det) {
		return [3]r3.Vector{}, false
	}
	return [3]r3.Vector{
		{X: c0.X / det, Y: c1.X / det, Z: c2.X / det},
		{X: c0.Y / det, Y: c1.Y / det, Z: c2.Y / det},
		{X: c0.Z / det, Y: c1.Z / det, Z: c2.Z / det},
	}, true
}

func apply(m [3]r3.Vector, v r3.Vector) r3.Vector {
	return r3.Vector{X: m[0].Dot(v), Y: m[1].Dot(v), Z: m[2].Dot(v)}
}

// Params returns the parameters the transformation was built from.
func (h *Helmert) Params() Params { return h.params }

// IsIdentity reports whether the transformation leaves coordinates unchanged.
func (h *Helmert) IsIdentity() bool { return h.params.IsIdentity() }

// Source is the ellipsoid of the source datum.
func (h *Helmert) Source() *ellps.Ellipsoid { return h.src }

// Target is the ellipsoid of the target datum.
func (h *Helmert) Target() *ellps.Ellipsoid { return h.dst }

// Forward maps geocentric source coordinates to the target datum:
// X' = T + (1+s)·R·X.
func (h *Helmert) Forward(v r3.Vector) r3.Vector {
	return h.t.Add(apply(h.rot, v).Mul(h.scale))
}

// Inverse is the exact inverse of Forward: X = R⁻¹·(X'−T)/(1+s).
func (h *Helmert) Inverse(v r3.Vector) r3.Vector {
	return apply(h.inv, v.Sub(h.t)).Mul(1 / h.scale)
}

// ForwardGeodetic shifts geodetic coordinates (radians, metres) on the
// source ellipsoid to the target ellipsoid.
func (h *Helmert) ForwardGeodetic(lon, lat, height float64) (float64, float64, float64) {
	return h.dst.Geodetic(h.Forward(h.src.Cartesian(lon, lat, height)))
}

// InverseGeodetic shifts geodetic coordinates on the target ellipsoid back
// to the source ellipsoid.
func (h *Helmert) InverseGeodetic(lon, lat, height float64) (float64, float64, float64) {
	return h.src.Geodetic(h.Inverse(h.dst.Cartesian(lon, lat, height)))
}

// Definition renders the transformation as proj-style step parameters.
func (h *Helmert) Definition() string {
	def := "proj=helmert towgs84=" + h.params.String() + " " + h.src.Definition()
	if name := h.dst.Name(); name != "" && name != "WGS84" {
		def += " to_ellps=" + name
	}
	return def
}
