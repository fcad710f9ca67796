// Package projerr defines the error taxonomy shared by every stage of the
// projection engine. Categories are attached with Mark, so both
// cockroachdb/errors.Is and the standard library errors.Is keep matching
// them after callers wrap the error.
package projerr

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidParameter marks malformed or out-of-domain construction
	// parameters.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrLatitudeOutOfRange marks a coordinate whose latitude lies outside
	// [-π/2, π/2].
	ErrLatitudeOutOfRange = errors.New("latitude or longitude exceeded limits")
	// ErrProjectionSingularity marks an input at which a projection has no
	// finite result.
	ErrProjectionSingularity = errors.New("point outside projection domain")
	// ErrDegenerateTransform marks a datum shift or step that cannot be
	// inverted.
	ErrDegenerateTransform = errors.New("degenerate transform")
	// ErrResolutionFailure marks a CRS identifier the registry could not
	// resolve.
	ErrResolutionFailure = errors.New("unable to resolve coordinate reference system")
	// ErrDomainMismatch marks a pipeline whose consecutive steps disagree on
	// the coordinate domain. It is also an ErrInvalidParameter.
	ErrDomainMismatch = errors.New("coordinate domain mismatch")
)

// categorized carries the taxonomy sentinels of an error. The cause also
// holds cockroachdb marks for the same sentinels.
type categorized struct {
	cause      error
	categories []error
}

func (e *categorized) Error() string { return e.cause.Error() }
func (e *categorized) Unwrap() error { return e.cause }

// Is matches the attached categories for the standard library errors.Is.
func (e *categorized) Is(target error) bool {
	for _, c := range e.categories {
		if c == target {
			return true
		}
	}
	return false
}

// Mark returns err tagged with each of categories. A nil err stays nil.
func Mark(err error, categories ...error) error {
	if err == nil {
		return nil
	}
	for _, c := range categories {
		err = errors.Mark(err, c)
	}
	return &categorized{cause: err, categories: categories}
}

// InvalidParameterf returns an error marked as ErrInvalidParameter.
func InvalidParameterf(format string, args ...interface{}) error {
	return Mark(errors.Newf("invalid parameter: "+format, args...), ErrInvalidParameter)
}

// LatitudeOutOfRangef returns an error marked as ErrLatitudeOutOfRange.
func LatitudeOutOfRangef(format string, args ...interface{}) error {
	return Mark(errors.Newf("latitude or longitude exceeded limits: "+format, args...), ErrLatitudeOutOfRange)
}

// Singularityf returns an error marked as ErrProjectionSingularity.
func Singularityf(format string, args ...interface{}) error {
	return Mark(errors.Newf("point outside projection domain: "+format, args...), ErrProjectionSingularity)
}

// Degeneratef returns an error marked as ErrDegenerateTransform.
func Degeneratef(format string, args ...interface{}) error {
	return Mark(errors.Newf("degenerate transform: "+format, args...), ErrDegenerateTransform)
}

// ResolutionFailuref returns an error marked as ErrResolutionFailure.
func ResolutionFailuref(format string, args ...interface{}) error {
	return Mark(errors.Newf("unable to resolve: "+format, args...), ErrResolutionFailure)
}

// DomainMismatchf returns an error marked as both ErrDomainMismatch and
// ErrInvalidParameter.
func DomainMismatchf(format string, args ...interface{}) error {
	err := errors.Newf("coordinate domain mismatch: "+format, args...)
	return Mark(err, ErrDomainMismatch, ErrInvalidParameter)
}

// Kind names the taxonomy category of err, or "internal" when err carries
// none of the marks.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDomainMismatch):
		return "domain_mismatch"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrLatitudeOutOfRange):
		return "latitude_out_of_range"
	case errors.Is(err, ErrProjectionSingularity):
		return "projection_singularity"
	case errors.Is(err, ErrDegenerateTransform):
		return "degenerate_transform"
	case errors.Is(err, ErrResolutionFailure):
		return "resolution_failure"
	default:
		return "internal"
	}
}
