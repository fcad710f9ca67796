package geoproj

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// Error categories. Every error returned by an engine can be tested with
// errors.Is against one or more of these.
var (
	// ErrInvalidParameter marks malformed or out-of-domain construction
	// parameters.
	ErrInvalidParameter = projerr.ErrInvalidParameter
	// ErrLatitudeOutOfRange marks geodetic input outside ±90°.
	ErrLatitudeOutOfRange = projerr.ErrLatitudeOutOfRange
	// ErrProjectionSingularity marks points where a method has no finite
	// image.
	ErrProjectionSingularity = projerr.ErrProjectionSingularity
	// ErrDegenerateTransform marks datum shifts that cannot be inverted.
	ErrDegenerateTransform = projerr.ErrDegenerateTransform
	// ErrResolutionFailure marks CRS identifiers the resolver does not know.
	ErrResolutionFailure = projerr.ErrResolutionFailure
	// ErrDomainMismatch marks pipelines that feed projected coordinates to
	// a step expecting geodetic ones, or the reverse.
	ErrDomainMismatch = projerr.ErrDomainMismatch

	// ErrProjection marks failures of Project and ProjectBatch.
	ErrProjection = errors.New("projection failed")
	// ErrConversion marks failures of Convert and the conversion batches.
	ErrConversion = errors.New("conversion failed")
)

// BatchError reports the element that made a batch fail.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("point %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// ErrorKind names the category of err for logs and API responses:
// "invalid_parameter", "latitude_out_of_range", and so on.
func ErrorKind(err error) string {
	return projerr.Kind(err)
}
