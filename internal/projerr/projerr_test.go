package projerr

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestMarksSurviveWrapping(t *testing.T) {
	testCases := []struct {
		err  error
		mark error
		kind string
	}{
		{InvalidParameterf("k_0 = %g", -1.0), ErrInvalidParameter, "invalid_parameter"},
		{LatitudeOutOfRangef("phi = %g", 2.0), ErrLatitudeOutOfRange, "latitude_out_of_range"},
		{Singularityf("antipode"), ErrProjectionSingularity, "projection_singularity"},
		{Degeneratef("scale"), ErrDegenerateTransform, "degenerate_transform"},
		{ResolutionFailuref("EPSG:0"), ErrResolutionFailure, "resolution_failure"},
		{DomainMismatchf("step 1"), ErrDomainMismatch, "domain_mismatch"},
	}
	for _, tc := range testCases {
		t.Run(tc.kind, func(t *testing.T) {
			wrapped := errors.Wrap(tc.err, "step 3")
			require.True(t, errors.Is(wrapped, tc.mark))
			require.Equal(t, tc.kind, Kind(wrapped))
		})
	}
}

func TestDomainMismatchIsInvalidParameter(t *testing.T) {
	err := DomainMismatchf("projected input to geodetic step")
	require.True(t, errors.Is(err, ErrInvalidParameter))
	require.False(t, errors.Is(err, ErrLatitudeOutOfRange))
	require.Contains(t, err.Error(), "projected input to geodetic step")
}

func TestKindUnmarked(t *testing.T) {
	require.Equal(t, "", Kind(nil))
	require.Equal(t, "internal", Kind(errors.New("boom")))
}
