// Package projstring parses proj-style definition strings
// ("+proj=tmerc +lat_0=49 ..."), including "+proj=pipeline" strings whose
// steps are separated by "+step" and reversed with "+inv".
package projstring

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/datum"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// Param is one key=value token. Flags such as no_defs or inv have no
// value.
type Param struct {
	Key      string
	Value    string
	HasValue bool

	inherited bool // copied from the pipeline globals
}

// Inherited reports whether the parameter was copied into a step from the
// pipeline globals.
func (p Param) Inherited() bool { return p.inherited }

func (p Param) String() string {
	if !p.HasValue {
		return p.Key
	}
	return p.Key + "=" + p.Value
}

// Step is one operation of a definition. A plain definition has exactly
// one step.
type Step struct {
	Params  []Param
	Inverse bool
}

// Method returns the value of the proj parameter.
func (s Step) Method() string {
	v, _ := s.Get("proj")
	return v
}

// Get returns the value of the first parameter named key.
func (s Step) Get(key string) (string, bool) {
	for _, p := range s.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether the step carries the parameter or flag.
func (s Step) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s Step) String() string {
	parts := make([]string, 0, len(s.Params)+1)
	if s.Inverse {
		parts = append(parts, "inv")
	}
	for _, p := range s.Params {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " ")
}

// Definition is a parsed definition string.
type Definition struct {
	// Pipeline is set for "+proj=pipeline" definitions.
	Pipeline bool
	// Global holds pipeline parameters given before the first step; they
	// are already merged into every step.
	Global []Param
	Steps  []Step
}

// String renders the canonical form: tokens without their leading '+', in
// input order, followed by the defaults filled in while parsing.
func (d *Definition) String() string {
	if !d.Pipeline {
		return d.Steps[0].String()
	}
	parts := []string{"proj=pipeline"}
	for _, p := range d.Global {
		parts = append(parts, p.String())
	}
	for _, s := range d.Steps {
		parts = append(parts, "step", s.withoutGlobals(d.Global).String())
	}
	return strings.Join(parts, " ")
}

// withoutGlobals drops the parameters that were copied in from the
// pipeline globals, so that rendering does not repeat them.
func (s Step) withoutGlobals(global []Param) Step {
	if len(global) == 0 {
		return s
	}
	out := Step{Inverse: s.Inverse}
	for _, p := range s.Params {
		if p.inherited {
			continue
		}
		out.Params = append(out.Params, p)
	}
	return out
}

// Parse tokenizes and validates a definition string.
func Parse(s string) (*Definition, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, projerr.InvalidParameterf("empty definition")
	}

	def := &Definition{}
	if tokens[0].Key == "proj" && tokens[0].Value == "pipeline" {
		def.Pipeline = true
		tokens = tokens[1:]
	}
	if !def.Pipeline {
		for _, t := range tokens {
			if t.Key == "step" {
				return nil, projerr.InvalidParameterf("+step outside of a pipeline")
			}
		}
		step, err := newStep(tokens, nil)
		if err != nil {
			return nil, err
		}
		def.Steps = []Step{step}
		return def, nil
	}

	var groups [][]Param
	i := 0
	for ; i < len(tokens) && tokens[i].Key != "step"; i++ {
		if tokens[i].Key == "proj" {
			return nil, projerr.InvalidParameterf("pipeline parameter proj=%s must follow +step", tokens[i].Value)
		}
		def.Global = append(def.Global, tokens[i])
	}
	for ; i < len(tokens); i++ {
		if tokens[i].Key == "step" {
			if tokens[i].HasValue {
				return nil, projerr.InvalidParameterf("+step takes no value")
			}
			groups = append(groups, nil)
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], tokens[i])
	}
	if len(groups) == 0 {
		return nil, projerr.InvalidParameterf("pipeline has no steps")
	}
	for n, g := range groups {
		step, err := newStep(g, def.Global)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", n+1)
		}
		if step.Method() == "pipeline" {
			return nil, projerr.InvalidParameterf("step %d: nested pipelines are not supported", n+1)
		}
		def.Steps = append(def.Steps, step)
	}
	return def, nil
}

func newStep(tokens []Param, global []Param) (Step, error) {
	var step Step
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if t.Key == "inv" {
			if t.HasValue {
				return Step{}, projerr.InvalidParameterf("+inv takes no value")
			}
			step.Inverse = true
			continue
		}
		if seen[t.Key] {
			return Step{}, projerr.InvalidParameterf("parameter %q given twice", t.Key)
		}
		seen[t.Key] = true
		step.Params = append(step.Params, t)
	}
	for _, g := range global {
		if !seen[g.Key] {
			g.inherited = true
			step.Params = append(step.Params, g)
			seen[g.Key] = true
		}
	}
	method, ok := step.Get("proj")
	if !ok || method == "" {
		return Step{}, projerr.InvalidParameterf("missing +proj")
	}
	if err := step.expandDatum(); err != nil {
		return Step{}, err
	}
	return step, nil
}

// expandDatum fills in the ellipsoid and WGS 84 shift implied by a datum
// parameter, unless they are given explicitly.
func (s *Step) expandDatum() error {
	name, ok := s.Get("datum")
	if !ok {
		return nil
	}
	d, err := datum.Named(name)
	if err != nil {
		return err
	}
	if !s.Has("ellps") && !s.Has("a") {
		s.Params = append(s.Params, Param{Key: "ellps", Value: d.Ellipsoid, HasValue: true})
	}
	if !s.Has("towgs84") {
		s.Params = append(s.Params, Param{Key: "towgs84", Value: d.ToWGS84.String(), HasValue: true})
	}
	return nil
}

func tokenize(s string) ([]Param, error) {
	var out []Param
	for _, field := range strings.Fields(s) {
		tok := strings.TrimPrefix(field, "+")
		if tok == "" {
			return nil, projerr.InvalidParameterf("empty token %q", field)
		}
		for _, r := range tok {
			if r > 0x7e || r < 0x21 {
				return nil, projerr.InvalidParameterf("invalid character %q in token %q", r, field)
			}
		}
		key, value, hasValue := strings.Cut(tok, "=")
		if !validKey(key) {
			return nil, projerr.InvalidParameterf("invalid parameter name %q", key)
		}
		if hasValue && value == "" {
			return nil, projerr.InvalidParameterf("parameter %q has an empty value", key)
		}
		out = append(out, Param{Key: key, Value: value, HasValue: hasValue})
	}
	return out, nil
}

func validKey(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
