package projection

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// Args are the method-specific key/value parameters of a definition, as
// written (angles in degrees, lengths in metres). Flags carry an empty
// value.
type Args map[string]string

// common keys accepted by every projected method.
var commonKeys = []string{"lon_0", "x_0", "y_0"}

// Methods lists the supported method identifiers, aliases included.
func Methods() []string {
	return []string{"latlong", "latlon", "lcc", "lonlat", "longlat", "merc", "sterea", "tmerc"}
}

// ParseMethod builds the typed parameter set for a method from its
// arguments. Keys the method does not understand are rejected.
func ParseMethod(name string, args Args) (Method, error) {
	var (
		m    Method
		keys []string
		err  error
	)
	r := reader{args: args}
	switch name {
	case "longlat", "latlong", "lonlat", "latlon":
		m = LongLat{}
	case "tmerc":
		keys = []string{"lat_0", "k", "k_0"}
		m = TransverseMercator{Lat0: r.angle("lat_0", 0), K0: r.scale()}
	case "lcc":
		keys = []string{"lat_0", "lat_1", "lat_2", "k", "k_0"}
		lat1 := r.angle("lat_1", 0)
		m = LambertConformalConic{
			Lat1: lat1,
			Lat2: r.angle("lat_2", lat1),
			Lat0: r.angle("lat_0", lat1),
			K0:   r.scale(),
		}
	case "sterea":
		keys = []string{"lat_0", "k", "k_0"}
		m = ObliqueStereographic{Lat0: r.angle("lat_0", 0), K0: r.scale()}
	case "merc":
		keys = []string{"lat_ts", "k", "k_0"}
		merc := Mercator{K0: r.scale()}
		if _, ok := args["lat_ts"]; ok {
			merc.LatTS = r.angle("lat_ts", 0)
			merc.HasLatTS = true
		}
		m = merc
	default:
		return nil, projerr.InvalidParameterf("unsupported projection method %q", name)
	}
	if r.err != nil {
		return nil, r.err
	}
	if _, geographic := m.(LongLat); !geographic {
		keys = append(keys, commonKeys...)
	}
	if err = checkKeys(name, args, keys); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse builds a Definition's method, central meridian and false origin
// from the arguments. The caller fills in the ellipsoid and units.
func Parse(name string, args Args) (Definition, error) {
	m, err := ParseMethod(name, args)
	if err != nil {
		return Definition{}, err
	}
	r := reader{args: args}
	def := Definition{
		Method: m,
		Lon0:   r.angle("lon_0", 0),
		X0:     r.float("x_0", 0),
		Y0:     r.float("y_0", 0),
	}
	if r.err != nil {
		return Definition{}, r.err
	}
	return def, nil
}

func checkKeys(method string, args Args, allowed []string) error {
	var unknown []string
	for k := range args {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return projerr.InvalidParameterf("unknown parameter %q for projection %s", unknown[0], method)
}

// reader converts argument values, keeping the first error.
type reader struct {
	args Args
	err  error
}

func (r *reader) float(key string, def float64) float64 {
	s, ok := r.args[key]
	if !ok || r.err != nil {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		r.err = projerr.InvalidParameterf("parameter %s=%q is not a number", key, s)
		return def
	}
	return v
}

// angle reads a value in degrees and returns radians. def is in radians.
func (r *reader) angle(key string, def float64) float64 {
	if _, ok := r.args[key]; !ok {
		return def
	}
	return coord.DegToRad(r.float(key, 0))
}

// scale reads k_0, falling back to its alias k.
func (r *reader) scale() float64 {
	if _, ok := r.args["k_0"]; ok {
		return r.float("k_0", 1)
	}
	return r.float("k", 1)
}

var descriptions = map[string]string{
	"longlat": "Lat/long (Geodetic alias)",
	"latlong": "Lat/long (Geodetic alias)",
	"lonlat":  "Lat/long (Geodetic alias)",
	"latlon":  "Lat/long (Geodetic alias)",
	"tmerc":   "Transverse Mercator",
	"lcc":     "Lambert Conformal Conic",
	"sterea":  "Oblique Stereographic Alternative",
	"merc":    "Mercator",
}

// Describe returns the long name of a method, or "" for unknown methods.
func Describe(method string) string {
	return descriptions[method]
}
