package projection

import (
	"math"

	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// LambertConformalConic is the one or two standard parallel Lambert
// conformal conic projection. With Lat1 == Lat2 it is the 1SP variant.
type LambertConformalConic struct {
	Lat1, Lat2 float64 // standard parallels, radians
	Lat0       float64 // latitude of origin, radians
	K0         float64
}

func (LambertConformalConic) Name() string { return "lcc" }

func (m LambertConformalConic) params() []string {
	out := []string{"lat_1=" + formatDeg(m.Lat1), "lat_2=" + formatDeg(m.Lat2), "lat_0=" + formatDeg(m.Lat0)}
	if m.K0 != 1 {
		out = append(out, "k_0="+formatFloat(m.K0))
	}
	return out
}

type lcc struct {
	n, c, rho0, k0, e float64
}

func (m LambertConformalConic) build(el *ellps.Ellipsoid) (kernel, error) {
	if m.K0 <= 0 {
		return nil, projerr.InvalidParameterf("lcc: k_0 must be positive, got %g", m.K0)
	}
	if math.Abs(m.Lat1+m.Lat2) < eps10 {
		return nil, projerr.InvalidParameterf("lcc: lat_1 and lat_2 must not be opposite")
	}
	for _, lat := range []float64{m.Lat0, m.Lat1, m.Lat2} {
		if math.Abs(lat) > coord.HalfPi {
			return nil, projerr.InvalidParameterf("lcc: latitude %g rad is outside ±π/2", lat)
		}
	}
	es, e := el.EccentricitySquared(), el.Eccentricity()
	sinPhi, cosPhi := math.Sincos(m.Lat1)
	n := sinPhi
	m1 := msfn(sinPhi, cosPhi, es)
	ml1 := tsfn(m.Lat1, sinPhi, e)
	if math.Abs(m.Lat1-m.Lat2) >= eps10 {
		sinPhi, cosPhi = math.Sincos(m.Lat2)
		n = math.Log(m1/msfn(sinPhi, cosPhi, es)) / math.Log(ml1/tsfn(m.Lat2, sinPhi, e))
	}
	if n == 0 || math.IsNaN(n) {
		return nil, projerr.InvalidParameterf("lcc: standard parallels give a degenerate cone")
	}
	k := &lcc{n: n, k0: m.K0, e: e}
	k.c = m1 * math.Pow(ml1, -n) / n
	if math.Abs(math.Abs(m.Lat0)-coord.HalfPi) >= eps10 {
		k.rho0 = k.c * math.Pow(tsfn(m.Lat0, math.Sin(m.Lat0), e), n)
	}
	return k, nil
}

func (k *lcc) forward(lam, phi float64) (float64, float64, error) {
	var rho float64
	if math.Abs(math.Abs(phi)-coord.HalfPi) < eps10 {
		if phi*k.n <= 0 {
			return 0, 0, projerr.Singularityf("lcc: pole opposite to the cone apex")
		}
	} else {
		rho = k.c * math.Pow(tsfn(phi, math.Sin(phi), k.e), k.n)
	}
	sinLam, cosLam := math.Sincos(lam * k.n)
	return k.k0 * rho * sinLam, k.k0 * (k.rho0 - rho*cosLam), nil
}

func (k *lcc) inverse(x, y float64) (float64, float64, error) {
	x /= k.k0
	y = k.rho0 - y/k.k0
	rho := math.Hypot(x, y)
	if rho == 0 {
		return 0, math.Copysign(coord.HalfPi, k.n), nil
	}
	if k.n < 0 {
		rho, x, y = -rho, -x, -y
	}
	phi, err := phi2(math.Pow(rho/k.c, 1/k.n), k.e)
	if err != nil {
		return 0, 0, err
	}
	return math.Atan2(x, y) / k.n, phi, nil
}
