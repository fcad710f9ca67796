// Package registry resolves CRS identifiers such as "EPSG:27700" to their
// definitions, axis order and datum shifts to WGS 84. It carries a small
// built-in table; embedders can supply their own Resolver.
package registry

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/datum"
	"github.com/pspoerri/geoproj/internal/projerr"
	"github.com/pspoerri/geoproj/internal/projstring"
)

// AxisOrder is the order in which a CRS lists its horizontal axes.
type AxisOrder int

const (
	// EastNorth lists longitude or easting first.
	EastNorth AxisOrder = iota
	// NorthEast lists latitude or northing first.
	NorthEast
)

func (o AxisOrder) String() string {
	if o == NorthEast {
		return "north-east"
	}
	return "east-north"
}

// ShiftVariant is one published transformation from a CRS's datum to
// WGS 84, valid within Area.
type ShiftVariant struct {
	Name    string
	Area    coord.AreaOfUse
	ToWGS84 datum.Params
}

// CRS is a resolved coordinate reference system. Definition carries the
// projection and ellipsoid only; datum shifts live in Shifts.
type CRS struct {
	ID         string
	Name       string
	Definition string
	AxisOrder  AxisOrder
	Area       coord.AreaOfUse
	Shifts     []ShiftVariant
}

// Geographic reports whether the CRS uses longitude and latitude.
func (c CRS) Geographic() bool {
	def, err := projstring.Parse(c.Definition)
	if err != nil {
		return false
	}
	switch def.Steps[0].Method() {
	case "longlat", "latlong", "lonlat", "latlon":
		return true
	}
	return false
}

// Resolver looks up CRS by identifier.
type Resolver interface {
	Resolve(id string) (CRS, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(id string) (CRS, error)

func (f ResolverFunc) Resolve(id string) (CRS, error) { return f(id) }

// Static resolves from the built-in table. Identifiers that are
// definition strings resolve to themselves in east-north order, with any
// towgs84 parameter turned into a world-wide shift variant.
type Static struct {
	table map[string]CRS
}

// Default returns the resolver over the built-in table.
func Default() *Static {
	return defaultStatic
}

var defaultStatic = &Static{table: buildTable()}

// Resolve implements Resolver.
func (s *Static) Resolve(id string) (CRS, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return CRS{}, projerr.ResolutionFailuref("empty CRS identifier")
	}
	if isDefinition(id) {
		return fromDefinition(id)
	}
	key := strings.ToUpper(id)
	if c, ok := s.table[key]; ok {
		return c, nil
	}
	return CRS{}, projerr.ResolutionFailuref("unknown CRS %q", id)
}

// Codes lists the identifiers of the table in sorted order.
func (s *Static) Codes() []string {
	out := make([]string, 0, len(s.table))
	for k := range s.table {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := code(out[i]), code(out[j])
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

func code(id string) int {
	_, n, _ := strings.Cut(id, ":")
	v, _ := strconv.Atoi(n)
	return v
}

func isDefinition(id string) bool {
	return strings.HasPrefix(id, "+") || strings.Contains(id, "proj=")
}

func fromDefinition(s string) (CRS, error) {
	def, err := projstring.Parse(s)
	if err != nil {
		return CRS{}, err
	}
	if def.Pipeline {
		return CRS{}, projerr.InvalidParameterf("a pipeline is not a CRS")
	}
	step := def.Steps[0]
	if step.Inverse {
		return CRS{}, projerr.InvalidParameterf("an inverted definition is not a CRS")
	}
	c := CRS{Name: step.Method(), AxisOrder: EastNorth, Area: coord.World}
	var params []string
	for _, p := range step.Params {
		if p.Key == "towgs84" || p.Key == "datum" {
			continue
		}
		params = append(params, "+"+p.String())
	}
	c.Definition = strings.Join(params, " ")
	if v, ok := step.Get("towgs84"); ok {
		shift, err := datum.ParseParams(v)
		if err != nil {
			return CRS{}, err
		}
		c.Shifts = []ShiftVariant{{Name: "towgs84", Area: coord.World, ToWGS84: shift}}
	}
	return c, nil
}
