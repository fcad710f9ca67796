package datum

import (
	"sort"
	"strings"

	"github.com/pspoerri/geoproj/internal/ellps"
	"github.com/pspoerri/geoproj/internal/projerr"
)

// Datum names an ellipsoid together with its shift to WGS 84.
type Datum struct {
	Name      string
	Ellipsoid string
	ToWGS84   Params
}

// NAD27 is published against grid files; the CONUS mean translation stands
// in for them here.
var datums = map[string]Datum{
	"wgs84":         {Name: "WGS84", Ellipsoid: "WGS84"},
	"nad83":         {Name: "North_American_Datum_1983", Ellipsoid: "GRS80"},
	"nad27":         {Name: "North_American_Datum_1927", Ellipsoid: "clrk66", ToWGS84: Params{TX: -8, TY: 160, TZ: 176}},
	"ch1903":        {Name: "swiss", Ellipsoid: "bessel", ToWGS84: Params{TX: 674.374, TY: 15.056, TZ: 405.346}},
	"ggrs87":        {Name: "Greek_Geodetic_Reference_System_1987", Ellipsoid: "GRS80", ToWGS84: Params{TX: -199.87, TY: 74.79, TZ: 246.62}},
	"potsdam":       {Name: "Potsdam Rauenberg 1950 DHDN", Ellipsoid: "bessel", ToWGS84: Params{TX: 606, TY: 23, TZ: 413}},
	"carthage":      {Name: "Carthage 1934 Tunisia", Ellipsoid: "clrk80", ToWGS84: Params{TX: -263, TY: 6, TZ: 431}},
	"hermannskogel": {Name: "Hermannskogel", Ellipsoid: "bessel", ToWGS84: Params{TX: 653, TY: -212, TZ: 449}},
	"ire65": {Name: "Ireland 1965", Ellipsoid: "mod_airy",
		ToWGS84: Params{TX: 482.530, TY: -130.596, TZ: 564.557, RX: -1.042, RY: -0.214, RZ: -0.631, S: 8.15}},
	"rassadiran": {Name: "Rassadiran", Ellipsoid: "intl", ToWGS84: Params{TX: -133.63, TY: -157.5, TZ: -158.62}},
	"nzgd49": {Name: "New Zealand Geodetic Datum 1949", Ellipsoid: "intl",
		ToWGS84: Params{TX: 59.47, TY: -5.04, TZ: 187.44, RX: 0.47, RY: -0.1, RZ: 1.024, S: -4.5993}},
	"osgb36": {Name: "Airy 1830", Ellipsoid: "airy",
		ToWGS84: Params{TX: 446.448, TY: -125.157, TZ: 542.060, RX: 0.1502, RY: 0.2470, RZ: 0.8421, S: -20.4894}},
	"s_jtsk":        {Name: "S-JTSK (Ferro)", Ellipsoid: "bessel", ToWGS84: Params{TX: 589, TY: 76, TZ: 480}},
	"beduaram":      {Name: "Beduaram", Ellipsoid: "clrk80", ToWGS84: Params{TX: -106, TY: -87, TZ: 188}},
	"gunung_segara": {Name: "Gunung Segara Jakarta", Ellipsoid: "bessel", ToWGS84: Params{TX: -403, TY: 684, TZ: 41}},
	"rnb72": {Name: "Reseau National Belge 1972", Ellipsoid: "intl",
		ToWGS84: Params{TX: 106.869, TY: -52.2978, TZ: 103.724, RX: -0.33657, RY: 0.456955, RZ: -1.84218, S: 1}},
}

// Named looks up a datum by its proj name, case-insensitively.
func Named(name string) (Datum, error) {
	d, ok := datums[strings.ToLower(name)]
	if !ok {
		return Datum{}, projerr.InvalidParameterf("unknown datum %q", name)
	}
	return d, nil
}

// Names lists the known datum keys in sorted order.
func Names() []string {
	out := make([]string, 0, len(datums))
	for k := range datums {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Shift builds the Helmert transformation from the datum to WGS 84.
func (d Datum) Shift() (*Helmert, error) {
	e, err := ellps.Named(d.Ellipsoid)
	if err != nil {
		return nil, err
	}
	return NewHelmert(d.ToWGS84, e, ellps.WGS84())
}
