package geoproj

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

const (
	stereo70 = "+proj=sterea +lat_0=46 +lon_0=25 +k=0.99975 +x_0=500000 +y_0=500000 +ellps=krass " +
		"+towgs84=33.4,-146.6,-76.3,-0.359,-0.053,0.844,-0.84 +units=m +no_defs"
	stereaPlain = "+proj=sterea +lat_0=46 +lon_0=25 +k=0.99975 +x_0=500000 +y_0=500000 +ellps=krass +units=m"
	lcc2230     = "+proj=lcc +lat_1=33.88333333333333 +lat_2=32.78333333333333 +lat_0=32.16666666666666 " +
		"+lon_0=-116.25 +x_0=2000000.0001016 +y_0=500000.0001016001 +ellps=GRS80 +units=us-ft"
	lcc26946 = "+proj=lcc +lat_1=33.88333333333333 +lat_2=32.78333333333333 +lat_0=32.16666666666666 " +
		"+lon_0=-116.25 +x_0=2000000 +y_0=500000 +ellps=GRS80 +units=m"
)

func newEngine(t *testing.T, def string) *Engine {
	t.Helper()
	e, err := New(def)
	require.NoError(t, err)
	return e
}

func TestStereo70Projection(t *testing.T) {
	e := newEngine(t, stereo70)

	got, err := e.Project(Point{X: 0.436332, Y: 0.802851}, false)
	require.NoError(t, err)
	require.InDelta(t, 500119.70353579, got.X, 1e-5)
	require.InDelta(t, 500027.77901119, got.Y, 1e-5)

	back, err := e.Project(Point{X: 500119.70352012233, Y: 500027.77896348457}, true)
	require.NoError(t, err)
	require.InDelta(t, 0.4363320001371883, back.X, 1e-9)
	require.InDelta(t, 0.802851000010901, back.Y, 1e-9)
	require.InDelta(t, 0.436332, back.X, 1e-6)
	require.InDelta(t, 0.802851, back.Y, 1e-6)
}

func TestPipelineDomainMismatch(t *testing.T) {
	e, err := New("+proj=pipeline +step " + lcc2230 + " +step " + lcc26946)
	require.Nil(t, e)
	require.True(t, errors.Is(err, ErrDomainMismatch), "got %v", err)
	require.Equal(t, "domain_mismatch", ErrorKind(err))

	e = newEngine(t, "+proj=pipeline +step +inv "+lcc2230+" +step "+lcc26946)
	got, err := e.Convert(Point{X: 4760096.421921, Y: 3744293.729449})
	require.NoError(t, err)
	require.InDelta(t, 1450880.2910605, got.X, 1e-6)
	require.InDelta(t, 1141263.0111605, got.Y, 1e-6)
}

func TestConvertProjectedInput(t *testing.T) {
	e := newEngine(t, stereaPlain)
	_, err := e.Convert(Point{X: 500000, Y: 500000})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrLatitudeOutOfRange), "got %v", err)
	require.True(t, errors.Is(err, ErrConversion))
	require.False(t, errors.Is(err, ErrProjection))

	_, err = e.Project(Point{X: 0.5, Y: 2}, false)
	require.True(t, errors.Is(err, ErrLatitudeOutOfRange))
	require.True(t, errors.Is(err, ErrProjection))

	_, err = e.Convert(Point{X: math.NaN(), Y: 0.8})
	require.True(t, errors.Is(err, ErrInvalidParameter), "got %v", err)
}

func TestConstructionFailures(t *testing.T) {
	for _, def := range []string{
		"",
		"+proj=foo",
		"+proj=tmerc +k_0=abc",
		"+proj=lcc +lat_1=10 +lat_2=-10",
		"+proj=merc +ellps=nonsense",
		"+proj=pipeline",
	} {
		t.Run(def, func(t *testing.T) {
			e, err := New(def)
			require.Error(t, err)
			require.Nil(t, e)
		})
	}

	e, err := NewKnownCRS("EPSG:999999", "EPSG:4326", nil)
	require.Nil(t, e)
	require.True(t, errors.Is(err, ErrResolutionFailure), "got %v", err)

	bad := AreaOfUse{West: 0, South: 10, East: 5, North: 0}
	e, err = NewKnownCRS("EPSG:4267", "EPSG:4326", &bad)
	require.Nil(t, e)
	require.True(t, errors.Is(err, ErrInvalidParameter), "got %v", err)
}

func TestErrorIsolation(t *testing.T) {
	e := newEngine(t, stereo70)
	_, err := e.Project(Point{X: 0.4, Y: 3}, false)
	require.Error(t, err)

	got, err := e.Project(Point{X: 0.436332, Y: 0.802851}, false)
	require.NoError(t, err)
	require.InDelta(t, 500119.70353579, got.X, 1e-5)
	require.InDelta(t, 500027.77901119, got.Y, 1e-5)
}

func TestIdempotentConstruction(t *testing.T) {
	a := newEngine(t, stereo70)
	b := newEngine(t, stereo70)
	require.Equal(t, a.Definition(), b.Definition())

	// The canonical definition builds the same pipeline again.
	c := newEngine(t, a.Definition())
	require.Equal(t, a.Definition(), c.Definition())

	p := Point{X: 0.45, Y: 0.79}
	pa, err := a.Project(p, false)
	require.NoError(t, err)
	pb, err := b.Project(p, false)
	require.NoError(t, err)
	pc, err := c.Project(p, false)
	require.NoError(t, err)
	require.Equal(t, pa, pb)
	require.Equal(t, pa, pc)
}

func TestKnownCRS(t *testing.T) {
	tests := []struct {
		from, to string
		in, want Point
		tol      float64
	}{
		{"EPSG:2230", "EPSG:26946", Point{X: 4760096.421921, Y: 3744293.729449}, Point{X: 1450880.2910605, Y: 1141263.0111605}, 1e-6},
		{"EPSG:2230", "EPSG:26946", Point{X: 4760197.421921, Y: 3744394.729449}, Point{X: 1450911.0759221, Y: 1141293.7960220}, 1e-6},
		{"EPSG:4326", "EPSG:2230", Point{X: -115.797615, Y: 37.2647978}, Point{X: 6693625.67217475, Y: 3497301.59180274}, 1e-5},
		{"EPSG:4326", "EPSG:32632", Point{X: 8.5417, Y: 47.3769}, Point{X: 465403.284466, Y: 5247150.839425}, 1e-5},
		{"EPSG:4326", "EPSG:32721", Point{X: -58.3816, Y: -34.6037}, Point{X: 373317.502255, Y: 6170036.171295}, 1e-5},
		{"EPSG:27700", "EPSG:4326", Point{X: 548295.39, Y: 182498.46}, Point{X: RadToDeg(0.0023755864848360), Y: RadToDeg(0.8992274896306734)}, 1e-8},
	}
	for _, tt := range tests {
		t.Run(tt.from+" to "+tt.to, func(t *testing.T) {
			e, err := NewKnownCRS(tt.from, tt.to, nil)
			require.NoError(t, err)
			got, err := e.Convert(tt.in)
			require.NoError(t, err)
			require.InDelta(t, tt.want.X, got.X, tt.tol)
			require.InDelta(t, tt.want.Y, got.Y, tt.tol)
		})
	}
}

func TestSetAreaOfUse(t *testing.T) {
	e, err := NewKnownCRS("EPSG:4267", "EPSG:4326", nil)
	require.NoError(t, err)
	_, ok := e.AreaOfUse()
	require.False(t, ok)

	got, err := e.Convert(Point{X: -100, Y: 40})
	require.NoError(t, err)
	require.InDelta(t, -100.000417622219, got.X, 1e-9)
	require.InDelta(t, 40.000009482768, got.Y, 1e-9)

	aleutians := AreaOfUse{West: 178, South: 51, East: -175, North: 53}
	require.NoError(t, e.SetAreaOfUse(aleutians))
	area, ok := e.AreaOfUse()
	require.True(t, ok)
	require.Equal(t, aleutians, area)
	require.Equal(t, "NAD27 to WGS 84 (Alaska)", e.Info().SourceShift)

	got, err = e.Convert(Point{X: -100, Y: 40})
	require.NoError(t, err)
	require.InDelta(t, -100.000332185058, got.X, 1e-9)
	require.InDelta(t, 39.999842373599, got.Y, 1e-9)

	err = e.SetAreaOfUse(AreaOfUse{West: 0, South: 10, East: 5, North: 0})
	require.True(t, errors.Is(err, ErrInvalidParameter))
	require.Equal(t, "NAD27 to WGS 84 (Alaska)", e.Info().SourceShift, "failed update keeps the operation")

	d := newEngine(t, stereo70)
	before := d.Definition()
	require.NoError(t, d.SetAreaOfUse(aleutians))
	require.Equal(t, before, d.Definition())
}

func TestConcurrentConvertAndSetArea(t *testing.T) {
	e, err := NewKnownCRS("EPSG:4267", "EPSG:4326", nil)
	require.NoError(t, err)
	conus := AreaOfUse{West: -125, South: 24, East: -66, North: 50}
	aleutians := AreaOfUse{West: 178, South: 51, East: -175, North: 53}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				got, err := e.Convert(Point{X: -100, Y: 40})
				if err != nil || math.Abs(got.X+100) > 1e-3 {
					t.Errorf("convert: %v %v", got, err)
					return
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		area := conus
		if j%2 == 1 {
			area = aleutians
		}
		require.NoError(t, e.SetAreaOfUse(area))
	}
	wg.Wait()
}

func TestInfo(t *testing.T) {
	info := newEngine(t, stereo70).Info()
	require.Equal(t, "sterea", info.ID)
	require.Equal(t, "Oblique Stereographic Alternative", info.Description)
	require.True(t, info.HasInverse)
	require.Contains(t, info.Definition, "proj=sterea")

	info = newEngine(t, "+proj=pipeline +step +inv "+lcc2230+" +step "+lcc26946).Info()
	require.Equal(t, "pipeline", info.ID)
	require.Equal(t, "Transformation pipeline manager", info.Description)

	e, err := NewKnownCRS("EPSG:2230", "EPSG:26946", nil)
	require.NoError(t, err)
	info = e.Info()
	require.Equal(t, "EPSG:2230 to EPSG:26946", info.ID)
	require.Equal(t, "", info.SourceShift)
}

func TestDefinitionKeepsCanonicalInput(t *testing.T) {
	e := newEngine(t, "+proj=longlat +datum=WGS84 +no_defs")
	require.Equal(t, "proj=longlat datum=WGS84 no_defs ellps=WGS84 towgs84=0,0,0", e.Definition())
	require.Equal(t, e.Definition(), e.Info().Definition)

	e = newEngine(t, "+proj=pipeline +step +inv "+lcc2230+" +step "+lcc26946)
	require.Contains(t, e.Definition(), "proj=pipeline step inv proj=lcc")

	pair, err := NewKnownCRS("EPSG:2230", "EPSG:26946", nil)
	require.NoError(t, err)
	require.Contains(t, pair.Definition(), "proj=lcc")
	require.Equal(t, pair.Definition(), pair.Info().Definition)
}

func gridPoints(n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{
			X: DegToRad(20 + float64(i%100)*0.1),
			Y: DegToRad(43 + float64(i/100)*0.05),
		}
	}
	return pts
}

func TestBatchMatchesSingleCalls(t *testing.T) {
	e := newEngine(t, stereo70)
	pts := gridPoints(500)
	want := make([]Point, len(pts))
	for i, p := range pts {
		q, err := e.Convert(p)
		require.NoError(t, err)
		want[i] = q
	}
	require.NoError(t, e.ConvertBatch(pts))
	require.Equal(t, want, pts)

	require.NoError(t, e.ProjectBatch(pts, true))
	for i, p := range pts {
		require.InDelta(t, DegToRad(20+float64(i%100)*0.1), p.X, 1e-8)
	}
}

func TestBatchAllOrNothing(t *testing.T) {
	e := newEngine(t, stereo70)
	pts := gridPoints(10)
	pts[3] = Point{X: 0.4, Y: 2}
	pts[7] = Point{X: 0.4, Y: -2}
	orig := append([]Point(nil), pts...)

	err := e.ConvertBatch(pts)
	var be *BatchError
	require.True(t, errors.As(err, &be), "got %v", err)
	require.Equal(t, 3, be.Index)
	require.True(t, errors.Is(err, ErrLatitudeOutOfRange))
	require.True(t, errors.Is(err, ErrConversion))
	require.Equal(t, orig, pts)

	err = e.ProjectBatch(pts, false)
	require.True(t, errors.As(err, &be))
	require.Equal(t, 3, be.Index)
	require.True(t, errors.Is(err, ErrProjection))
	require.Equal(t, orig, pts)
}

func TestConvertBatchParallel(t *testing.T) {
	e := newEngine(t, stereo70)
	ctx := context.Background()

	pts := gridPoints(5000)
	want := append([]Point(nil), pts...)
	require.NoError(t, e.ConvertBatch(want))
	require.NoError(t, e.ConvertBatchParallel(ctx, pts, 4))
	require.Equal(t, want, pts)

	pts = gridPoints(5000)
	pts[4000] = Point{X: 0.4, Y: 2}
	pts[3100] = Point{X: 0.4, Y: 2}
	orig := append([]Point(nil), pts...)
	err := e.ConvertBatchParallel(ctx, pts, 4)
	var be *BatchError
	require.True(t, errors.As(err, &be), "got %v", err)
	require.Equal(t, 3100, be.Index)
	require.Equal(t, orig, pts)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = e.ConvertBatchParallel(cancelled, gridPoints(5000), 4)
	require.ErrorIs(t, err, context.Canceled)

	small := gridPoints(3)
	require.NoError(t, e.ConvertBatchParallel(ctx, small, 16))
	require.NoError(t, e.ConvertBatchParallel(ctx, nil, 4))
}

func TestKnownCRSRoundTrip(t *testing.T) {
	fwd, err := NewKnownCRS("EPSG:4326", "EPSG:3844", nil)
	require.NoError(t, err)
	inv, err := NewKnownCRS("EPSG:3844", "EPSG:4326", nil)
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	properties.Property("EPSG:3844 round trip", prop.ForAll(
		func(lon, lat float64) bool {
			xy, err := fwd.Convert(Point{X: lon, Y: lat})
			if err != nil {
				return false
			}
			back, err := inv.Convert(xy)
			if err != nil {
				return false
			}
			return math.Abs(back.X-lon) < 1e-7 && math.Abs(back.Y-lat) < 1e-7
		},
		gen.Float64Range(20, 30),
		gen.Float64Range(43, 48.5),
	))
	properties.TestingRun(t)
}
