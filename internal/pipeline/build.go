package pipeline

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/datum"
	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/projection"
	"github.com/pspoerri/geoproj/internal/projerr"
	"github.com/pspoerri/geoproj/internal/projstring"
)

// Keys that describe the datum, units or bookkeeping of a projection step
// rather than the method itself.
var generalKeys = map[string]bool{
	"proj": true, "ellps": true, "datum": true, "a": true, "b": true, "rf": true,
	"towgs84": true, "units": true, "to_meter": true, "no_defs": true, "type": true,
}

// Build turns a parsed definition into a pipeline. A projection carrying
// towgs84 expects WGS 84 geodetic input, so it becomes an inverse datum
// shift into its own datum followed by the projection.
func Build(def *projstring.Definition) (*Pipeline, error) {
	var steps []Step
	for i, s := range def.Steps {
		group, err := buildStep(s)
		if err != nil {
			if def.Pipeline {
				return nil, errors.Wrapf(err, "step %d", i+1)
			}
			return nil, err
		}
		if s.Inverse {
			for j := len(group) - 1; j >= 0; j-- {
				steps = append(steps, Invert(group[j]))
			}
			continue
		}
		steps = append(steps, group...)
	}
	return New(steps...)
}

func buildStep(s projstring.Step) ([]Step, error) {
	switch s.Method() {
	case "axisswap":
		return buildAxisSwap(s)
	case "unitconvert":
		return buildUnitConvert(s)
	case "helmert":
		return buildHelmert(s)
	default:
		return buildProjection(s)
	}
}

// NewProjection builds the projection described by a definition step,
// ignoring any datum shift it carries.
func NewProjection(s projstring.Step) (*projection.Projection, error) {
	args := projection.Args{}
	for _, p := range s.Params {
		if !generalKeys[p.Key] {
			args[p.Key] = p.Value
		}
	}
	def, err := projection.Parse(s.Method(), args)
	if err != nil {
		return nil, err
	}
	if def.Ellipsoid, err = ellipsoidOf(s); err != nil {
		return nil, err
	}
	if def.ToMeter, def.Units, err = unitsOf(s); err != nil {
		return nil, err
	}
	return projection.New(def)
}

func buildProjection(s projstring.Step) ([]Step, error) {
	p, err := NewProjection(s)
	if err != nil {
		return nil, err
	}
	step := NewProjectionStep(p)
	towgs84, ok := s.Get("towgs84")
	if !ok {
		return []Step{step}, nil
	}
	params, err := datum.ParseParams(towgs84)
	if err != nil {
		return nil, err
	}
	if params.IsIdentity() {
		return []Step{step}, nil
	}
	h, err := datum.NewHelmert(params, p.Ellipsoid(), ellps.WGS84())
	if err != nil {
		return nil, err
	}
	return []Step{Invert(NewShiftStep(h)), step}, nil
}

// ellipsoidOf resolves the ellipsoid of a step from a, b or rf, or from
// its ellps name. The default is WGS 84.
func ellipsoidOf(s projstring.Step) (*ellps.Ellipsoid, error) {
	if v, ok := s.Get("a"); ok {
		a, err := number("a", v)
		if err != nil {
			return nil, err
		}
		if v, ok := s.Get("rf"); ok {
			rf, err := number("rf", v)
			if err != nil {
				return nil, err
			}
			return ellps.New(a, rf)
		}
		if v, ok := s.Get("b"); ok {
			b, err := number("b", v)
			if err != nil {
				return nil, err
			}
			return ellps.FromAB(a, b)
		}
		return nil, projerr.InvalidParameterf("a needs rf or b")
	}
	if name, ok := s.Get("ellps"); ok {
		return ellps.Named(name)
	}
	return ellps.WGS84(), nil
}

func unitsOf(s projstring.Step) (toMeter float64, name string, err error) {
	if v, ok := s.Get("to_meter"); ok {
		toMeter, err = number("to_meter", v)
		if err == nil && toMeter <= 0 {
			err = projerr.InvalidParameterf("to_meter must be positive, got %g", toMeter)
		}
		return toMeter, "", err
	}
	if v, ok := s.Get("units"); ok {
		u, err := LookupUnit(v)
		if err != nil {
			return 0, "", err
		}
		if u.Angular {
			return 0, "", projerr.InvalidParameterf("units=%s is not a linear unit", v)
		}
		return u.ToBase, u.Name, nil
	}
	return 1, "", nil
}

func number(key, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, projerr.InvalidParameterf("parameter %s=%q is not a number", key, v)
	}
	return f, nil
}

// only rejects keys outside the allowed set. Pipeline globals are exempt.
func only(s projstring.Step, allowed ...string) error {
	for _, p := range s.Params {
		if p.Inherited() || p.Key == "proj" || p.Key == "no_defs" || p.Key == "type" {
			continue
		}
		found := false
		for _, a := range allowed {
			if p.Key == a {
				found = true
				break
			}
		}
		if !found {
			return projerr.InvalidParameterf("unknown parameter %q for %s", p.Key, s.Method())
		}
	}
	return nil
}

func buildAxisSwap(s projstring.Step) ([]Step, error) {
	if err := only(s, "order"); err != nil {
		return nil, err
	}
	v, ok := s.Get("order")
	if !ok {
		return nil, projerr.InvalidParameterf("axisswap needs order")
	}
	fields := strings.Split(v, ",")
	if len(fields) != 2 {
		return nil, projerr.InvalidParameterf("axisswap order %q must name two axes", v)
	}
	var order [2]int
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, projerr.InvalidParameterf("axisswap order %q is not a list of integers", v)
		}
		order[i] = n
	}
	a, err := NewAxisSwap(order)
	if err != nil {
		return nil, err
	}
	return []Step{a}, nil
}

func buildUnitConvert(s projstring.Step) ([]Step, error) {
	if err := only(s, "xy_in", "xy_out"); err != nil {
		return nil, err
	}
	in, okIn := s.Get("xy_in")
	out, okOut := s.Get("xy_out")
	if !okIn || !okOut {
		return nil, projerr.InvalidParameterf("unitconvert needs xy_in and xy_out")
	}
	from, err := LookupUnit(in)
	if err != nil {
		return nil, err
	}
	to, err := LookupUnit(out)
	if err != nil {
		return nil, err
	}
	u, err := NewUnitConvert(from, to)
	if err != nil {
		return nil, err
	}
	return []Step{u}, nil
}

// buildHelmert reads either a towgs84 list or the individual x, y, z, rx,
// ry, rz and s parameters. The source ellipsoid comes from the step, the
// target from to_ellps (WGS 84 by default). The coordinate frame
// convention is converted to position vector by negating the rotations.
func buildHelmert(s projstring.Step) ([]Step, error) {
	if err := only(s, "towgs84", "x", "y", "z", "rx", "ry", "rz", "s", "convention",
		"ellps", "datum", "a", "b", "rf", "to_ellps"); err != nil {
		return nil, err
	}
	var params datum.Params
	if v, ok := s.Get("towgs84"); ok {
		p, err := datum.ParseParams(v)
		if err != nil {
			return nil, err
		}
		params = p
	} else {
		for _, f := range []struct {
			key string
			dst *float64
		}{
			{"x", &params.TX}, {"y", &params.TY}, {"z", &params.TZ},
			{"rx", &params.RX}, {"ry", &params.RY}, {"rz", &params.RZ}, {"s", &params.S},
		} {
			v, ok := s.Get(f.key)
			if !ok {
				continue
			}
			n, err := number(f.key, v)
			if err != nil {
				return nil, err
			}
			*f.dst = n
		}
	}
	switch c, _ := s.Get("convention"); c {
	case "", "position_vector":
	case "coordinate_frame":
		params.RX, params.RY, params.RZ = -params.RX, -params.RY, -params.RZ
	default:
		return nil, projerr.InvalidParameterf("unknown helmert convention %q", c)
	}
	src, err := ellipsoidOf(s)
	if err != nil {
		return nil, err
	}
	dst := ellps.WGS84()
	if name, ok := s.Get("to_ellps"); ok {
		if dst, err = ellps.Named(name); err != nil {
			return nil, err
		}
	}
	h, err := datum.NewHelmert(params, src, dst)
	if err != nil {
		return nil, err
	}
	return []Step{NewShiftStep(h)}, nil
}
