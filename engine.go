// Package geoproj converts coordinates between geodetic and projected
// reference systems. An Engine is built either from a proj-style
// definition string or from a pair of CRS identifiers, and is safe for
// concurrent use.
package geoproj

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/operation"
	"github.com/pspoerri/geoproj/internal/pipeline"
	"github.com/pspoerri/geoproj/internal/projection"
	"github.com/pspoerri/geoproj/internal/projerr"
	"github.com/pspoerri/geoproj/internal/projstring"
)

// Point is a 2D coordinate. For definition engines geodetic coordinates
// are (longitude, latitude) in radians; CRS pair engines take degrees.
type Point = coord.Point

// AreaOfUse is a bounding box in degrees used to pick a datum shift.
type AreaOfUse = coord.AreaOfUse

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return coord.DegToRad(deg) }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return coord.RadToDeg(rad) }

// state is the immutable part of an engine that SetAreaOfUse replaces.
type state struct {
	pipe        *pipeline.Pipeline
	area        *AreaOfUse
	sourceShift string
	targetShift string
}

// Engine owns one transformation pipeline.
type Engine struct {
	id          string
	description string
	definition  string // canonical input of a definition engine
	src, dst    CRS
	knownCRS    bool
	opts        options
	state       atomic.Pointer[state]
}

// New builds an engine from a definition string such as
// "proj=tmerc lat_0=49 lon_0=-2 k_0=0.9996012717 x_0=400000 y_0=-100000 ellps=airy"
// or a "proj=pipeline step ..." chain.
func New(definition string, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	def, err := projstring.Parse(definition)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.Build(def)
	if err != nil {
		return nil, err
	}

	e := &Engine{opts: o, definition: def.String()}
	e.id = def.Steps[0].Method()
	if def.Pipeline {
		e.id = "pipeline"
		e.description = "Transformation pipeline manager"
	} else {
		e.description = projection.Describe(e.id)
	}
	e.state.Store(&state{pipe: p})
	o.logger.Debug("engine created",
		slog.String("id", e.id),
		slog.Int("steps", p.Len()),
	)
	return e, nil
}

// NewKnownCRS builds an engine converting from one CRS to another. The
// identifiers are resolved through the configured resolver, "EPSG:2230"
// style by default. Geographic coordinates are passed as (longitude,
// latitude) in degrees regardless of the axis order the CRS declares.
func NewKnownCRS(from, to string, area *AreaOfUse, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	src, err := o.resolver.Resolve(from)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %q", from)
	}
	dst, err := o.resolver.Resolve(to)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %q", to)
	}

	e := &Engine{
		id:          from + " to " + to,
		description: describePair(src, dst),
		src:         src,
		dst:         dst,
		knownCRS:    true,
		opts:        o,
	}
	st, err := e.build(area)
	if err != nil {
		return nil, err
	}
	e.state.Store(st)
	return e, nil
}

func describePair(src, dst CRS) string {
	name := func(c CRS) string {
		if c.Name != "" {
			return c.Name
		}
		return c.ID
	}
	return name(src) + " to " + name(dst)
}

func (e *Engine) build(area *AreaOfUse) (*state, error) {
	if area != nil {
		a := *area
		area = &a
	}
	op, err := operation.Build(e.src, e.dst, area)
	if err != nil {
		return nil, err
	}
	e.opts.logger.Debug("operation selected",
		slog.String("id", e.id),
		slog.String("source_shift", op.SourceShift),
		slog.String("target_shift", op.TargetShift),
		slog.Int("steps", op.Pipeline.Len()),
	)
	return &state{
		pipe:        op.Pipeline,
		area:        area,
		sourceShift: op.SourceShift,
		targetShift: op.TargetShift,
	}, nil
}

// SetAreaOfUse narrows the operation of a CRS pair engine to the given
// area, which may select a different datum shift. Engines built from a
// definition string ignore the call. Concurrent conversions keep using the
// previous operation until the new one is in place.
func (e *Engine) SetAreaOfUse(area AreaOfUse) error {
	if err := area.Validate(); err != nil {
		return projerr.Mark(err, projerr.ErrInvalidParameter)
	}
	if !e.knownCRS {
		return nil
	}
	st, err := e.build(&area)
	if err != nil {
		return err
	}
	e.state.Store(st)
	return nil
}

// AreaOfUse returns the area set on the engine, if any.
func (e *Engine) AreaOfUse() (AreaOfUse, bool) {
	st := e.state.Load()
	if st.area == nil {
		return AreaOfUse{}, false
	}
	return *st.area, true
}

// Definition returns the canonical definition of the engine. Engines built
// by New report their parsed input with datum defaults filled in; CRS pair
// engines report the rendering of the operation pipeline.
func (e *Engine) Definition() string {
	return e.definitionOf(e.state.Load())
}

func (e *Engine) definitionOf(st *state) string {
	if e.definition != "" {
		return e.definition
	}
	return st.pipe.Definition()
}

func (e *Engine) run(p Point, dir pipeline.Direction) (Point, error) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return Point{}, projerr.InvalidParameterf("coordinate (%g, %g) is not a number", p.X, p.Y)
	}
	c, err := e.state.Load().pipe.Execute(p.Lift(), dir)
	if err != nil {
		return Point{}, err
	}
	return c.XY(), nil
}

// Project runs the pipeline forward, or backward when inverse is set. For a
// single projection that maps geodetic radians to projected units and back.
func (e *Engine) Project(p Point, inverse bool) (Point, error) {
	dir := pipeline.Forward
	if inverse {
		dir = pipeline.Inverse
	}
	out, err := e.run(p, dir)
	if err != nil {
		return Point{}, projerr.Mark(errors.Wrap(err, "projection failed"), ErrProjection)
	}
	return out, nil
}

// Convert runs the pipeline forward.
func (e *Engine) Convert(p Point) (Point, error) {
	out, err := e.run(p, pipeline.Forward)
	if err != nil {
		return Point{}, projerr.Mark(errors.Wrap(err, "conversion failed"), ErrConversion)
	}
	return out, nil
}

// Info describes an engine.
type Info struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Definition  string `json:"definition"`
	HasInverse  bool   `json:"has_inverse"`
	SourceShift string `json:"source_shift,omitempty"`
	TargetShift string `json:"target_shift,omitempty"`
}

// Info returns the engine identity and its current definition.
func (e *Engine) Info() Info {
	st := e.state.Load()
	return Info{
		ID:          e.id,
		Description: e.description,
		Definition:  e.definitionOf(st),
		HasInverse:  true,
		SourceShift: st.sourceShift,
		TargetShift: st.targetShift,
	}
}
