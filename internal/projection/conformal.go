package projection

import (
	"math"

	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/projerr"
)

const (
	eps10        = 1e-10
	phi2MaxIter  = 30
	gaussMaxIter = 50
	convergence  = 1e-14
)

// msfn is the radius of the parallel at latitude phi on the unit ellipsoid.
func msfn(sinPhi, cosPhi, es float64) float64 {
	return cosPhi / math.Sqrt(1-es*sinPhi*sinPhi)
}

// tsfn is the isometric latitude function t(phi) used by the conformal
// methods.
func tsfn(phi, sinPhi, e float64) float64 {
	esp := e * sinPhi
	return math.Tan(0.5*(coord.HalfPi-phi)) / math.Pow((1-esp)/(1+esp), 0.5*e)
}

// phi2 inverts tsfn.
func phi2(ts, e float64) (float64, error) {
	he := 0.5 * e
	phi := coord.HalfPi - 2*math.Atan(ts)
	for i := 0; i < phi2MaxIter; i++ {
		con := e * math.Sin(phi)
		d := coord.HalfPi - 2*math.Atan(ts*math.Pow((1-con)/(1+con), he)) - phi
		phi += d
		if math.Abs(d) <= convergence {
			return phi, nil
		}
	}
	return 0, projerr.Singularityf("latitude iteration did not converge")
}

func srat(esinp, exp float64) float64 {
	return math.Pow((1-esinp)/(1+esinp), exp)
}

// gaussSphere maps the ellipsoid conformally onto a sphere that touches it
// at the origin latitude.
type gaussSphere struct {
	c, k, e, ratexp float64
}

// newGaussSphere returns the mapping for origin latitude phi0 together with
// the conformal latitude of the origin and the radius of the sphere
// relative to the semi-major axis.
func newGaussSphere(e, phi0 float64) (g gaussSphere, chi, rc float64) {
	es := e * e
	sphi := math.Sin(phi0)
	cphi := math.Cos(phi0)
	cphi *= cphi
	rc = math.Sqrt(1-es) / (1 - es*sphi*sphi)
	g.c = math.Sqrt(1 + es*cphi*cphi/(1-es))
	chi = math.Asin(sphi / g.c)
	g.ratexp = 0.5 * g.c * e
	g.k = math.Tan(0.5*chi+math.Pi/4) / (math.Pow(math.Tan(0.5*phi0+math.Pi/4), g.c) * srat(e*sphi, g.ratexp))
	g.e = e
	return g, chi, rc
}

func (g gaussSphere) forward(lam, phi float64) (float64, float64) {
	p := 2*math.Atan(g.k*math.Pow(math.Tan(0.5*phi+math.Pi/4), g.c)*srat(g.e*math.Sin(phi), g.ratexp)) - coord.HalfPi
	return g.c * lam, p
}

func (g gaussSphere) inverse(lam, phi float64) (float64, float64, error) {
	lam /= g.c
	num := math.Pow(math.Tan(0.5*phi+math.Pi/4)/g.k, 1/g.c)
	for i := 0; i < gaussMaxIter; i++ {
		next := 2*math.Atan(num*srat(g.e*math.Sin(phi), -0.5*g.e)) - coord.HalfPi
		if math.Abs(next-phi) < convergence {
			return lam, next, nil
		}
		phi = next
	}
	return 0, 0, projerr.Singularityf("conformal sphere inverse did not converge")
}
