package projection

import (
	"math"

	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// Mercator is the ellipsoidal normal Mercator projection. When HasLatTS is
// set the scale is true along the latitude LatTS and K0 is ignored.
type Mercator struct {
	LatTS    float64 // latitude of true scale, radians
	HasLatTS bool
	K0       float64
}

func (Mercator) Name() string { return "merc" }

func (m Mercator) params() []string {
	if m.HasLatTS {
		return []string{"lat_ts=" + formatDeg(m.LatTS)}
	}
	return []string{"k_0=" + formatFloat(m.K0)}
}

type merc struct {
	k0, e float64
}

func (m Mercator) build(el *ellps.Ellipsoid) (kernel, error) {
	k := &merc{k0: m.K0, e: el.Eccentricity()}
	if m.HasLatTS {
		phits := math.Abs(m.LatTS)
		if phits >= coord.HalfPi {
			return nil, projerr.InvalidParameterf("merc: lat_ts must be inside ±90°")
		}
		sinPhi, cosPhi := math.Sincos(phits)
		k.k0 = msfn(sinPhi, cosPhi, el.EccentricitySquared())
	}
	if k.k0 <= 0 {
		return nil, projerr.InvalidParameterf("merc: k_0 must be positive, got %g", k.k0)
	}
	return k, nil
}

func (k *merc) forward(lam, phi float64) (float64, float64, error) {
	if math.Abs(math.Abs(phi)-coord.HalfPi) <= eps10 {
		return 0, 0, projerr.Singularityf("merc: the poles have no finite image")
	}
	return k.k0 * lam, -k.k0 * math.Log(tsfn(phi, math.Sin(phi), k.e)), nil
}

func (k *merc) inverse(x, y float64) (float64, float64, error) {
	phi, err := phi2(math.Exp(-y/k.k0), k.e)
	if err != nil {
		return 0, 0, err
	}
	return x / k.k0, phi, nil
}
