package projerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestStdlibErrorsIs(t *testing.T) {
	err := fmt.Errorf("engine: %w", DomainMismatchf("step %d", 2))
	for _, target := range []error{ErrDomainMismatch, ErrInvalidParameter} {
		if !errors.Is(err, target) {
			t.Errorf("errors.Is(%v, %v) = false", err, target)
		}
	}
	if errors.Is(err, ErrResolutionFailure) {
		t.Errorf("errors.Is matched an unrelated category")
	}

	outer := errors.New("conversion failed")
	nested := Mark(fmt.Errorf("point 3: %w", LatitudeOutOfRangef("phi = %g", 3.0)), outer)
	if !errors.Is(nested, outer) || !errors.Is(nested, ErrLatitudeOutOfRange) {
		t.Errorf("nested categories not matched: %v", nested)
	}
	if Kind(nested) != "latitude_out_of_range" {
		t.Errorf("Kind = %q", Kind(nested))
	}
	if Mark(nil, ErrInvalidParameter) != nil {
		t.Error("Mark(nil) should be nil")
	}
}
