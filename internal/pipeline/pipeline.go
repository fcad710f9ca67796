// Package pipeline chains projection, datum shift and coordinate
// bookkeeping steps into a single transformation that can be run in either
// direction.
package pipeline

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// Domain is the kind of coordinate a step consumes or produces.
type Domain int

const (
	// Any is used by steps that do not care, such as axis swaps.
	Any Domain = iota
	// Geodetic coordinates are longitude and latitude in radians.
	Geodetic
	// Projected coordinates are linear eastings and northings.
	Projected
)

func (d Domain) String() string {
	switch d {
	case Geodetic:
		return "geodetic"
	case Projected:
		return "projected"
	default:
		return "any"
	}
}

// Direction selects which way a pipeline runs.
type Direction int

const (
	Forward Direction = iota
	Inverse
)

// Step is one operation of a pipeline. InDomain and OutDomain describe the
// forward direction.
type Step interface {
	Forward(c coord.Coord) (coord.Coord, error)
	Inverse(c coord.Coord) (coord.Coord, error)
	InDomain() Domain
	OutDomain() Domain
	Definition() string
}

// Invert returns a step that runs s backwards.
func Invert(s Step) Step {
	if inv, ok := s.(inverted); ok {
		return inv.step
	}
	return inverted{step: s}
}

type inverted struct {
	step Step
}

func (s inverted) Forward(c coord.Coord) (coord.Coord, error) { return s.step.Inverse(c) }
func (s inverted) Inverse(c coord.Coord) (coord.Coord, error) { return s.step.Forward(c) }
func (s inverted) InDomain() Domain                           { return s.step.OutDomain() }
func (s inverted) OutDomain() Domain                          { return s.step.InDomain() }
func (s inverted) Definition() string                         { return "inv " + s.step.Definition() }

// Pipeline is an immutable, validated sequence of steps. It is safe for
// concurrent use.
type Pipeline struct {
	steps []Step
}

// New validates that every step accepts the domain produced by the step
// before it. Steps in the Any domain pass the previous domain through.
func New(steps ...Step) (*Pipeline, error) {
	cur := Any
	for i, s := range steps {
		if s == nil {
			return nil, projerr.InvalidParameterf("pipeline step %d is nil", i)
		}
		in := s.InDomain()
		if in != Any && cur != Any && in != cur {
			return nil, projerr.DomainMismatchf("step %d (%s) expects %s input but receives %s coordinates",
				i, s.Definition(), in, cur)
		}
		if out := s.OutDomain(); out != Any {
			cur = out
		}
	}
	return &Pipeline{steps: append([]Step(nil), steps...)}, nil
}

// Steps returns a copy of the steps.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Len is the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// InDomain is the domain of the first step that declares one.
func (p *Pipeline) InDomain() Domain {
	for _, s := range p.steps {
		if d := s.InDomain(); d != Any {
			return d
		}
	}
	return Any
}

// OutDomain is the domain of the last step that declares one.
func (p *Pipeline) OutDomain() Domain {
	for i := len(p.steps) - 1; i >= 0; i-- {
		if d := p.steps[i].OutDomain(); d != Any {
			return d
		}
	}
	return Any
}

// Execute runs the steps in order, or in reverse order with every step
// inverted. The first failing step aborts the run.
func (p *Pipeline) Execute(c coord.Coord, dir Direction) (coord.Coord, error) {
	var err error
	if dir == Inverse {
		for i := len(p.steps) - 1; i >= 0; i-- {
			if c, err = p.steps[i].Inverse(c); err != nil {
				return coord.Coord{}, errors.Wrapf(err, "inverse step %d", i)
			}
		}
		return c, nil
	}
	for i, s := range p.steps {
		if c, err = s.Forward(c); err != nil {
			return coord.Coord{}, errors.Wrapf(err, "step %d", i)
		}
	}
	return c, nil
}

// Inverted returns the pipeline that runs p backwards.
func (p *Pipeline) Inverted() *Pipeline {
	steps := make([]Step, len(p.steps))
	for i, s := range p.steps {
		steps[len(steps)-1-i] = Invert(s)
	}
	return &Pipeline{steps: steps}
}

// Definition renders the pipeline in proj syntax. A pipeline of a single
// forward step renders as that step alone.
func (p *Pipeline) Definition() string {
	switch len(p.steps) {
	case 0:
		return "proj=noop"
	case 1:
		if _, inv := p.steps[0].(inverted); !inv {
			return p.steps[0].Definition()
		}
	}
	parts := []string{"proj=pipeline"}
	for _, s := range p.steps {
		parts = append(parts, "step", s.Definition())
	}
	return strings.Join(parts, " ")
}

// Simplify drops identity steps and adjacent pairs that undo each other,
// such as two axis swaps or a unit conversion followed by its reverse.
func Simplify(steps []Step) []Step {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		if isIdentity(s) {
			continue
		}
		if n := len(out); n > 0 && cancels(out[n-1], s) {
			out = out[:n-1]
			continue
		}
		out = append(out, s)
	}
	return out
}

type identityStep interface {
	identity() bool
}

func isIdentity(s Step) bool {
	if inv, ok := s.(inverted); ok {
		s = inv.step
	}
	id, ok := s.(identityStep)
	return ok && id.identity()
}

// cancels reports whether running a then b leaves every coordinate
// unchanged.
func cancels(a, b Step) bool {
	if inv, ok := b.(inverted); ok && inv.step == a {
		return true
	}
	if inv, ok := a.(inverted); ok && inv.step == b {
		return true
	}
	if sa, ok := asAxisSwap(a); ok {
		if sb, ok := asAxisSwap(b); ok {
			return sa.then(sb).identity()
		}
	}
	if ua, ok := asUnitConvert(a); ok {
		if ub, ok := asUnitConvert(b); ok {
			return ua.in == ub.out && ua.out == ub.in
		}
	}
	return false
}

// asAxisSwap returns the swap a step performs, resolving inversion.
func asAxisSwap(s Step) (*AxisSwap, bool) {
	switch s := s.(type) {
	case *AxisSwap:
		return s, true
	case inverted:
		if a, ok := s.step.(*AxisSwap); ok {
			return a.inverse(), true
		}
	}
	return nil, false
}

// asUnitConvert returns the conversion a step performs, resolving
// inversion.
func asUnitConvert(s Step) (*UnitConvert, bool) {
	switch s := s.(type) {
	case *UnitConvert:
		return s, true
	case inverted:
		if u, ok := s.step.(*UnitConvert); ok {
			return &UnitConvert{in: u.out, out: u.in}, true
		}
	}
	return nil, false
}
