package datum

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/golang/geo/r3"
	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/projerr"
	"github.com/stretchr/testify/require"
)

func mustNamed(t *testing.T, name string) *ellps.Ellipsoid {
	t.Helper()
	e, err := ellps.Named(name)
	require.NoError(t, err)
	return e
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams("33.4,-146.6,-76.3,-0.359,-0.053,0.844,-0.84")
	require.NoError(t, err)
	require.Equal(t, Params{TX: 33.4, TY: -146.6, TZ: -76.3, RX: -0.359, RY: -0.053, RZ: 0.844, S: -0.84}, p)
	require.Equal(t, "33.4,-146.6,-76.3,-0.359,-0.053,0.844,-0.84", p.String())

	p, err = ParseParams("-8, 160,176")
	require.NoError(t, err)
	require.True(t, p.IsTranslation())
	require.Equal(t, "-8,160,176", p.String())

	for _, bad := range []string{"", "1,2", "1,2,3,4", "a,b,c"} {
		_, err := ParseParams(bad)
		require.True(t, errors.Is(err, projerr.ErrInvalidParameter), "input %q", bad)
	}
}

func TestHelmertTranslationAndRotation(t *testing.T) {
	wgs := ellps.WGS84()
	h, err := NewHelmert(Params{TX: 1, TY: -2, TZ: 3}, wgs, wgs)
	require.NoError(t, err)
	require.Equal(t, r3.Vector{X: 11, Y: 18, Z: 33}, h.Forward(r3.Vector{X: 10, Y: 20, Z: 30}))

	// One arc-second about Z moves a point on the X axis towards +Y.
	h, err = NewHelmert(Params{RZ: 1}, wgs, wgs)
	require.NoError(t, err)
	got := h.Forward(r3.Vector{X: 6378137})
	require.InDelta(t, 6378137, got.X, 1e-9)
	require.InDelta(t, 30.922080775909325, got.Y, 1e-9)
	require.InDelta(t, 0, got.Z, 1e-9)
}

func TestHelmertInverseIsExact(t *testing.T) {
	wgs := ellps.WGS84()
	h, err := NewHelmert(Params{TX: 33.4, TY: -146.6, TZ: -76.3, RX: -0.359, RY: -0.053, RZ: 0.844, S: -0.84}, mustNamed(t, "krass"), wgs)
	require.NoError(t, err)
	for _, v := range []r3.Vector{
		{X: 4093222.5, Y: 1908716.1, Z: 4521049.3},
		{X: -2694892.5, Y: -4297418.6, Z: 3854579.2},
		{X: 0, Y: 0, Z: 6356752.3},
	} {
		back := h.Inverse(h.Forward(v))
		require.InDelta(t, 0, back.Sub(v).Norm(), 1e-8)
	}
}

func TestHelmertDegenerate(t *testing.T) {
	wgs := ellps.WGS84()
	for _, s := range []float64{-1e6, -2e6} {
		_, err := NewHelmert(Params{S: s}, wgs, wgs)
		require.True(t, errors.Is(err, projerr.ErrDegenerateTransform), "scale %v", s)
	}
	_, err := NewHelmert(Params{TX: math.NaN()}, wgs, wgs)
	require.True(t, errors.Is(err, projerr.ErrInvalidParameter))
	_, err = NewHelmert(Params{}, nil, wgs)
	require.True(t, errors.Is(err, projerr.ErrInvalidParameter))
}

func TestOSGB36ToWGS84(t *testing.T) {
	d, err := Named("OSGB36")
	require.NoError(t, err)
	h, err := d.Shift()
	require.NoError(t, err)

	lon, lat, height := h.ForwardGeodetic(coord.DegToRad(-1.5), coord.DegToRad(52), 0)
	require.InDelta(t, -1.501468435389, coord.RadToDeg(lon), 1e-8)
	require.InDelta(t, 52.000432092625, coord.RadToDeg(lat), 1e-8)
	require.InDelta(t, 48.400581, height, 1e-3)

	lon, lat, height = h.InverseGeodetic(lon, lat, height)
	require.InDelta(t, -1.5, coord.RadToDeg(lon), 1e-10)
	require.InDelta(t, 52, coord.RadToDeg(lat), 1e-10)
	require.InDelta(t, 0, height, 1e-6)
}

func TestNamedDatums(t *testing.T) {
	for _, name := range Names() {
		d, err := Named(name)
		require.NoError(t, err)
		h, err := d.Shift()
		require.NoError(t, err, name)
		require.Equal(t, d.ToWGS84.IsIdentity(), h.Params().IsIdentity())
	}
	d, err := Named("wgs84")
	require.NoError(t, err)
	require.True(t, d.ToWGS84.IsIdentity())

	_, err = Named("atlantis")
	require.True(t, errors.Is(err, projerr.ErrInvalidParameter))
}
