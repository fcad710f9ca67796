package projection

import (
	"math"

	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// ObliqueStereographic is the double stereographic projection: the
// ellipsoid is mapped to a conformal sphere, which is then projected
// stereographically from the antipode of the origin.
type ObliqueStereographic struct {
	Lat0 float64 // latitude of origin, radians
	K0   float64
}

func (ObliqueStereographic) Name() string { return "sterea" }

func (m ObliqueStereographic) params() []string {
	return []string{"lat_0=" + formatDeg(m.Lat0), "k_0=" + formatFloat(m.K0)}
}

// antipodeTol bounds the stereographic denominator. It is below this
// within about 0.8 degrees of the antipode on the conformal sphere, where
// coordinates run to billions of metres.
const antipodeTol = 1e-4

type sterea struct {
	gauss        gaussSphere
	phic0        float64
	sinc0, cosc0 float64
	r2, k0       float64
}

func (m ObliqueStereographic) build(e *ellps.Ellipsoid) (kernel, error) {
	if m.K0 <= 0 {
		return nil, projerr.InvalidParameterf("sterea: k_0 must be positive, got %g", m.K0)
	}
	g, chi, rc := newGaussSphere(e.Eccentricity(), m.Lat0)
	s := &sterea{gauss: g, phic0: chi, r2: 2 * rc, k0: m.K0}
	s.sinc0, s.cosc0 = math.Sincos(chi)
	return s, nil
}

func (s *sterea) forward(lam, phi float64) (float64, float64, error) {
	lam, phi = s.gauss.forward(lam, phi)
	sinC, cosC := math.Sincos(phi)
	sinL, cosL := math.Sincos(lam)
	den := 1 + s.sinc0*sinC + s.cosc0*cosC*cosL
	if den < antipodeTol {
		return 0, 0, projerr.Singularityf("sterea: point is the antipode of the origin")
	}
	k := s.k0 * s.r2 / den
	return k * cosC * sinL, k * (s.cosc0*sinC - s.sinc0*cosC*cosL), nil
}

func (s *sterea) inverse(x, y float64) (float64, float64, error) {
	x /= s.k0
	y /= s.k0
	lam, phi := 0.0, s.phic0
	if rho := math.Hypot(x, y); rho != 0 {
		c := 2 * math.Atan2(rho, s.r2)
		sinC, cosC := math.Sincos(c)
		phi = math.Asin(cosC*s.sinc0 + y*sinC*s.cosc0/rho)
		lam = math.Atan2(x*sinC, rho*s.cosc0*cosC-y*s.sinc0*sinC)
	}
	return s.gauss.inverse(lam, phi)
}
