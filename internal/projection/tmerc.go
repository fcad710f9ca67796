package projection

import (
	"math"

	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// TransverseMercator is the ellipsoidal transverse Mercator projection,
// evaluated with the Poder/Engsager sixth-order Krüger series.
type TransverseMercator struct {
	Lat0 float64 // latitude of origin, radians
	K0   float64 // scale on the central meridian
}

func (TransverseMercator) Name() string { return "tmerc" }

func (m TransverseMercator) params() []string {
	return []string{"lat_0=" + formatDeg(m.Lat0), "k_0=" + formatFloat(m.K0)}
}

// maxCe bounds the complex easting; beyond it the series diverges.
const maxCe = 2.623395162778

const tmercOrder = 6

type tmerc struct {
	qn, zb             float64
	cgb, cbg, utg, gtu [tmercOrder]float64
}

func (m TransverseMercator) build(e *ellps.Ellipsoid) (kernel, error) {
	if m.K0 <= 0 {
		return nil, projerr.InvalidParameterf("tmerc: k_0 must be positive, got %g", m.K0)
	}
	var t tmerc
	es := e.EccentricitySquared()
	f := es / (1 + math.Sqrt(1-es))
	n := f / (2 - f)

	np := n
	t.cgb[0] = n * (2 + n*(-2.0/3+n*(-2+n*(116.0/45+n*(26.0/45+n*(-2854.0/675))))))
	t.cbg[0] = n * (-2 + n*(2.0/3+n*(4.0/3+n*(-82.0/45+n*(32.0/45+n*(4642.0/4725))))))
	np *= n
	t.cgb[1] = np * (7.0/3 + n*(-8.0/5+n*(-227.0/45+n*(2704.0/315+n*(2323.0/945)))))
	t.cbg[1] = np * (5.0/3 + n*(-16.0/15+n*(-13.0/9+n*(904.0/315+n*(-1522.0/945)))))
	np *= n
	t.cgb[2] = np * (56.0/15 + n*(-136.0/35+n*(-1262.0/105+n*(73814.0/2835))))
	t.cbg[2] = np * (-26.0/15 + n*(34.0/21+n*(8.0/5+n*(-12686.0/2835))))
	np *= n
	t.cgb[3] = np * (4279.0/630 + n*(-332.0/35+n*(-399572.0/14175)))
	t.cbg[3] = np * (1237.0/630 + n*(-12.0/5+n*(-24832.0/14175)))
	np *= n
	t.cgb[4] = np * (4174.0/315 + n*(-144838.0/6237))
	t.cbg[4] = np * (-734.0/315 + n*(109598.0/31185))
	np *= n
	t.cgb[5] = np * (601676.0 / 22275)
	t.cbg[5] = np * (444337.0 / 155925)

	np = n * n
	t.qn = m.K0 / (1 + n) * (1 + np*(1.0/4+np*(1.0/64+np/256)))

	t.utg[0] = n * (-0.5 + n*(2.0/3+n*(-37.0/96+n*(1.0/360+n*(81.0/512+n*(-96199.0/604800))))))
	t.gtu[0] = n * (0.5 + n*(-2.0/3+n*(5.0/16+n*(41.0/180+n*(-127.0/288+n*(7891.0/37800))))))
	t.utg[1] = np * (-1.0/48 + n*(-1.0/15+n*(437.0/1440+n*(-46.0/105+n*(1118711.0/3870720)))))
	t.gtu[1] = np * (13.0/48 + n*(-3.0/5+n*(557.0/1440+n*(281.0/630+n*(-1983433.0/1935360)))))
	np *= n
	t.utg[2] = np * (-17.0/480 + n*(37.0/840+n*(209.0/4480+n*(-5569.0/90720))))
	t.gtu[2] = np * (61.0/240 + n*(-103.0/140+n*(15061.0/26880+n*(167603.0/181440))))
	np *= n
	t.utg[3] = np * (-4397.0/161280 + n*(11.0/504+n*(830251.0/7257600)))
	t.gtu[3] = np * (49561.0/161280 + n*(-179.0/168+n*(6601661.0/7257600)))
	np *= n
	t.utg[4] = np * (-4583.0/161280 + n*(108847.0/3991680))
	t.gtu[4] = np * (34729.0/80640 + n*(-3418889.0/1995840))
	np *= n
	t.utg[5] = np * (-20648693.0 / 638668800)
	t.gtu[5] = np * (212378941.0 / 319334400)

	z := gatg(t.cbg[:], m.Lat0)
	t.zb = -t.qn * (z + clens(t.gtu[:], 2*z))
	return &t, nil
}

func (t *tmerc) forward(lam, phi float64) (float64, float64, error) {
	cn := gatg(t.cbg[:], phi)
	sinCn, cosCn := math.Sincos(cn)
	sinCe, cosCe := math.Sincos(lam)

	cn = math.Atan2(sinCn, cosCe*cosCn)
	ce := math.Atan2(sinCe*cosCn, math.Hypot(sinCn, cosCn*cosCe))
	ce = math.Asinh(math.Tan(ce))

	dCn, dCe := clenS(t.gtu[:], 2*cn, 2*ce)
	cn += dCn
	ce += dCe
	if math.Abs(ce) > maxCe {
		return 0, 0, projerr.Singularityf("tmerc: point too far from the central meridian")
	}
	return t.qn * ce, t.qn*cn + t.zb, nil
}

func (t *tmerc) inverse(x, y float64) (float64, float64, error) {
	cn := (y - t.zb) / t.qn
	ce := x / t.qn
	if math.Abs(ce) > maxCe {
		return 0, 0, projerr.Singularityf("tmerc: easting too far from the central meridian")
	}
	dCn, dCe := clenS(t.utg[:], 2*cn, 2*ce)
	cn += dCn
	ce += dCe
	ce = math.Atan(math.Sinh(ce))

	sinCn, cosCn := math.Sincos(cn)
	sinCe, cosCe := math.Sincos(ce)
	ce = math.Atan2(sinCe, cosCe*cosCn)
	cn = math.Atan2(sinCn*cosCe, math.Hypot(sinCe, cosCe*cosCn))
	return ce, gatg(t.cgb[:], cn), nil
}

// gatg converts between geodetic and Gaussian latitude with a Clenshaw sum.
func gatg(p []float64, b float64) float64 {
	cos2B := 2 * math.Cos(2*b)
	i := len(p) - 1
	h1, h2 := p[i], 0.0
	var h float64
	for i > 0 {
		i--
		h = -h2 + cos2B*h1 + p[i]
		h2, h1 = h1, h
	}
	return b + h*math.Sin(2*b)
}

// clens evaluates a real Clenshaw sine series.
func clens(a []float64, arg float64) float64 {
	r := 2 * math.Cos(arg)
	i := len(a) - 1
	hr, hr1 := a[i], 0.0
	var hr2 float64
	for i > 0 {
		i--
		hr2, hr1 = hr1, hr
		hr = -hr2 + r*hr1 + a[i]
	}
	return math.Sin(arg) * hr
}

// clenS evaluates a complex Clenshaw sine series at (ar + i·ai).
func clenS(a []float64, ar, ai float64) (float64, float64) {
	sinR, cosR := math.Sincos(ar)
	sinhI, coshI := math.Sinh(ai), math.Cosh(ai)
	r := 2 * cosR * coshI
	im := -2 * sinR * sinhI

	i := len(a) - 1
	hr, hi := a[i], 0.0
	var hr1, hi1, hr2, hi2 float64
	for i > 0 {
		i--
		hr2, hi2 = hr1, hi1
		hr1, hi1 = hr, hi
		hr = -hr2 + r*hr1 - im*hi1 + a[i]
		hi = -hi2 + im*hr1 + r*hi1
	}
	r = sinR * coshI
	im = cosR * sinhI
	return r*hr - im*hi, r*hi + im*hr
}
