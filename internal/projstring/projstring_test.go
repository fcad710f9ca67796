package projstring

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/projerr"
	"github.com/stretchr/testify/require"
)

func TestParseSingle(t *testing.T) {
	def, err := Parse("+proj=sterea +lat_0=46 +lon_0=25\n +k=0.99975 +x_0=500000 +y_0=500000 +ellps=krass +units=m +no_defs")
	require.NoError(t, err)
	require.False(t, def.Pipeline)
	require.Len(t, def.Steps, 1)

	s := def.Steps[0]
	require.Equal(t, "sterea", s.Method())
	v, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, "0.99975", v)
	require.True(t, s.Has("no_defs"))
	require.False(t, s.Has("towgs84"))
	require.Equal(t, "proj=sterea lat_0=46 lon_0=25 k=0.99975 x_0=500000 y_0=500000 ellps=krass units=m no_defs", def.String())
}

func TestCanonicalFillsDatumDefaults(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"+proj=longlat +datum=WGS84 +no_defs", "proj=longlat datum=WGS84 no_defs ellps=WGS84 towgs84=0,0,0"},
		{"proj=longlat datum=NAD27", "proj=longlat datum=NAD27 ellps=clrk66 towgs84=-8,160,176"},
		{"+proj=tmerc +datum=OSGB36 +ellps=airy", "proj=tmerc datum=OSGB36 ellps=airy towgs84=446.448,-125.157,542.06,0.1502,0.247,0.8421,-20.4894"},
		{"+proj=longlat +datum=nad83 +towgs84=1,2,3", "proj=longlat datum=nad83 towgs84=1,2,3 ellps=GRS80"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			def, err := Parse(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, def.String())

			again, err := Parse(def.String())
			require.NoError(t, err)
			require.Equal(t, def.String(), again.String())
		})
	}
}

func TestParsePipeline(t *testing.T) {
	def, err := Parse("+proj=pipeline +ellps=GRS80 +step +proj=unitconvert +xy_in=deg +xy_out=rad +step +inv +proj=tmerc +k=0.9996 +step +proj=axisswap +order=2,1")
	require.NoError(t, err)
	require.True(t, def.Pipeline)
	require.Len(t, def.Steps, 3)
	require.False(t, def.Steps[0].Inverse)
	require.True(t, def.Steps[1].Inverse)
	require.Equal(t, "tmerc", def.Steps[1].Method())

	v, ok := def.Steps[2].Get("ellps")
	require.True(t, ok, "globals are merged into every step")
	require.Equal(t, "GRS80", v)

	require.Equal(t,
		"proj=pipeline ellps=GRS80 step proj=unitconvert xy_in=deg xy_out=rad step inv proj=tmerc k=0.9996 step proj=axisswap order=2,1",
		def.String())
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"   \n\t",
		"+lat_0=46 +lon_0=25",
		"+proj=",
		"+proj=merc +lat_ts=33 +lat_ts=34",
		"+proj=merc +k=",
		"+proj=merc +lön_0=1",
		"+proj=merc +9lives=1",
		"+proj=merc +step +proj=tmerc",
		"+proj=pipeline",
		"+proj=pipeline +proj=merc",
		"+proj=pipeline +step +proj=pipeline",
		"+proj=pipeline +step +k=1",
		"+proj=longlat +datum=atlantis",
		"+proj=merc +inv=yes",
		"+",
	} {
		def, err := Parse(in)
		require.Nil(t, def, "input %q", in)
		require.True(t, errors.Is(err, projerr.ErrInvalidParameter), "input %q: %v", in, err)
	}
}
