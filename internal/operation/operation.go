// Package operation assembles the pipeline that converts coordinates from
// one CRS to another: axis handling, unit conversion, projections and the
// datum shifts through WGS 84.
package operation

import (
	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/datum"
	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/pipeline"
	"github.com/pspoerri/geoproj/internal/projection"
	"github.com/pspoerri/geoproj/internal/projerr"
	"github.com/pspoerri/geoproj/internal/projstring"
	"github.com/pspoerri/geoproj/internal/registry"
)

// Operation is a built CRS to CRS conversion.
type Operation struct {
	Pipeline *pipeline.Pipeline
	// SourceShift and TargetShift name the datum shift variants used, or
	// are empty when none applied.
	SourceShift string
	TargetShift string
}

// Build assembles the conversion from src to dst. Both sides take and
// return coordinates in east-north order; geographic coordinates are in
// degrees. area, when set, selects between datum shift variants.
func Build(src, dst registry.CRS, area *coord.AreaOfUse) (*Operation, error) {
	if area != nil {
		if err := area.Validate(); err != nil {
			return nil, projerr.Mark(err, projerr.ErrInvalidParameter)
		}
	}
	from, err := newEndpoint(src, area)
	if err != nil {
		return nil, errors.Wrapf(err, "source CRS %s", label(src))
	}
	to, err := newEndpoint(dst, area)
	if err != nil {
		return nil, errors.Wrapf(err, "target CRS %s", label(dst))
	}

	shifts, err := shiftSteps(from, to)
	if err != nil {
		return nil, err
	}

	// Callers pass and receive east-north. The outer swaps turn that into
	// registry order, the inner ones turn registry order into the
	// east-north order the projections work in; Simplify cancels them.
	var steps []pipeline.Step
	steps = append(steps, from.swap()...)
	steps = append(steps, from.swap()...)
	steps = append(steps, from.toGeodetic())
	steps = append(steps, shifts...)
	steps = append(steps, to.fromGeodetic())
	steps = append(steps, to.swap()...)
	steps = append(steps, to.swap()...)

	p, err := pipeline.New(pipeline.Simplify(steps)...)
	if err != nil {
		return nil, err
	}
	op := &Operation{Pipeline: p}
	if len(shifts) > 0 {
		op.SourceShift = appliedShift(from.shift)
		op.TargetShift = appliedShift(to.shift)
	}
	return op, nil
}

// appliedShift names a variant that contributes a Helmert step.
func appliedShift(v registry.ShiftVariant) string {
	if v.ToWGS84.IsIdentity() {
		return ""
	}
	return v.Name
}

func label(c registry.CRS) string {
	if c.ID != "" {
		return c.ID
	}
	return c.Name
}

type endpoint struct {
	crs   registry.CRS
	proj  *projection.Projection
	shift registry.ShiftVariant
}

func newEndpoint(c registry.CRS, area *coord.AreaOfUse) (*endpoint, error) {
	def, err := projstring.Parse(c.Definition)
	if err != nil {
		return nil, err
	}
	if def.Pipeline {
		return nil, projerr.InvalidParameterf("a CRS definition cannot be a pipeline")
	}
	p, err := pipeline.NewProjection(def.Steps[0])
	if err != nil {
		return nil, err
	}
	return &endpoint{crs: c, proj: p, shift: SelectShift(c.Shifts, area)}, nil
}

// SelectShift picks the first variant whose area intersects area, falling
// back to the first variant. It returns the zero variant when there are
// none.
func SelectShift(variants []registry.ShiftVariant, area *coord.AreaOfUse) registry.ShiftVariant {
	if len(variants) == 0 {
		return registry.ShiftVariant{}
	}
	if area != nil {
		for _, v := range variants {
			if v.Area.Intersects(*area) {
				return v
			}
		}
	}
	return variants[0]
}

func (e *endpoint) swap() []pipeline.Step {
	if e.crs.AxisOrder == registry.NorthEast {
		return []pipeline.Step{pipeline.SwapXY()}
	}
	return nil
}

// toGeodetic takes coordinates in the CRS's native units to geodetic
// radians on its ellipsoid.
func (e *endpoint) toGeodetic() pipeline.Step {
	if e.proj.IsGeographic() {
		return pipeline.DegreesToRadians()
	}
	return pipeline.Invert(pipeline.NewProjectionStep(e.proj))
}

func (e *endpoint) fromGeodetic() pipeline.Step {
	if e.proj.IsGeographic() {
		return pipeline.Invert(pipeline.DegreesToRadians())
	}
	return pipeline.NewProjectionStep(e.proj)
}

// shiftSteps moves geodetic coordinates from the source datum to the target
// datum through WGS 84. Identity shifts are skipped, as is the whole
// transformation when both sides share a shift and an ellipsoid.
func shiftSteps(from, to *endpoint) ([]pipeline.Step, error) {
	a, b := from.shift.ToWGS84, to.shift.ToWGS84
	if a == b && from.proj.Ellipsoid().Equal(to.proj.Ellipsoid()) {
		return nil, nil
	}
	var steps []pipeline.Step
	if !a.IsIdentity() {
		h, err := datum.NewHelmert(a, from.proj.Ellipsoid(), ellps.WGS84())
		if err != nil {
			return nil, errors.Wrapf(err, "shift %q", from.shift.Name)
		}
		steps = append(steps, pipeline.NewShiftStep(h))
	}
	if !b.IsIdentity() {
		h, err := datum.NewHelmert(b, to.proj.Ellipsoid(), ellps.WGS84())
		if err != nil {
			return nil, errors.Wrapf(err, "shift %q", to.shift.Name)
		}
		steps = append(steps, pipeline.Invert(pipeline.NewShiftStep(h)))
	}
	return steps, nil
}
