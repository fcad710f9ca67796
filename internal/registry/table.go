package registry

import (
	"fmt"

	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/datum"
)

var (
	conus   = coord.AreaOfUse{West: -124.79, South: 24.41, East: -66.91, North: 49.38}
	alaska  = coord.AreaOfUse{West: 167.65, South: 51.3, East: -129.99, North: 71.4}
	canada  = coord.AreaOfUse{West: -141.01, South: 40.04, East: -47.74, North: 86.46}
	uk      = coord.AreaOfUse{West: -8.82, South: 49.79, East: 1.92, North: 60.94}
	romania = coord.AreaOfUse{West: 20.26, South: 43.44, East: 31.41, North: 48.27}
	russia  = coord.AreaOfUse{West: 19.57, South: 35.14, East: -168.97, North: 81.91}
	calif6  = coord.AreaOfUse{West: -118.15, South: 32.53, East: -114.42, North: 34.08}
	northAm = coord.AreaOfUse{West: 167.65, South: 14.92, East: -47.74, North: 86.46}
)

var (
	nad27Shifts = []ShiftVariant{
		{Name: "NAD27 to WGS 84 (CONUS)", Area: conus, ToWGS84: datum.Params{TX: -8, TY: 160, TZ: 176}},
		{Name: "NAD27 to WGS 84 (Alaska)", Area: alaska, ToWGS84: datum.Params{TX: -5, TY: 135, TZ: 172}},
		{Name: "NAD27 to WGS 84 (Canada)", Area: canada, ToWGS84: datum.Params{TX: -10, TY: 158, TZ: 187}},
	}
	nad83Shifts = []ShiftVariant{
		{Name: "NAD83 to WGS 84", Area: northAm},
	}
	osgbShifts = []ShiftVariant{
		{Name: "OSGB36 to WGS 84 (6)", Area: uk, ToWGS84: datum.Params{
			TX: 446.448, TY: -125.157, TZ: 542.06, RX: 0.15, RY: 0.247, RZ: 0.842, S: -20.489}},
	}
	pulkovo58Shifts = []ShiftVariant{
		{Name: "Pulkovo 1942(58) to WGS 84 (Romania)", Area: romania, ToWGS84: datum.Params{
			TX: 33.4, TY: -146.6, TZ: -76.3, RX: -0.359, RY: -0.053, RZ: 0.844, S: -0.84}},
	}
	pulkovo83Shifts = []ShiftVariant{
		{Name: "Pulkovo 1942(83) to WGS 84", Area: russia, ToWGS84: datum.Params{TX: 26, TY: -121, TZ: -78}},
	}
)

func buildTable() map[string]CRS {
	list := []CRS{
		crs("EPSG:4326", "WGS 84", "+proj=longlat +ellps=WGS84 +no_defs", NorthEast, coord.World),
		crs("EPSG:4269", "NAD83", "+proj=longlat +ellps=GRS80 +no_defs", NorthEast, northAm, nad83Shifts...),
		crs("EPSG:4267", "NAD27", "+proj=longlat +ellps=clrk66 +no_defs", NorthEast, northAm, nad27Shifts...),
		crs("EPSG:4178", "Pulkovo 1942(83)", "+proj=longlat +ellps=krass +no_defs", NorthEast, russia, pulkovo83Shifts...),
		crs("EPSG:4277", "OSGB36", "+proj=longlat +ellps=airy +no_defs", NorthEast, uk, osgbShifts...),
		crs("EPSG:3844", "Pulkovo 1942(58) / Stereo70",
			"+proj=sterea +lat_0=46 +lon_0=25 +k=0.99975 +x_0=500000 +y_0=500000 +ellps=krass +units=m +no_defs",
			NorthEast, romania, pulkovo58Shifts...),
		crs("EPSG:27700", "OSGB36 / British National Grid",
			"+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 +ellps=airy +units=m +no_defs",
			EastNorth, uk, osgbShifts...),
		crs("EPSG:2230", "NAD83 / California zone 6 (ftUS)",
			"+proj=lcc +lat_1=33.88333333333333 +lat_2=32.78333333333333 +lat_0=32.16666666666666 +lon_0=-116.25 "+
				"+x_0=2000000.0001016 +y_0=500000.0001016001 +ellps=GRS80 +units=us-ft +no_defs",
			EastNorth, calif6, nad83Shifts...),
		crs("EPSG:26946", "NAD83 / California zone 6",
			"+proj=lcc +lat_1=33.88333333333333 +lat_2=32.78333333333333 +lat_0=32.16666666666666 +lon_0=-116.25 "+
				"+x_0=2000000 +y_0=500000 +ellps=GRS80 +units=m +no_defs",
			EastNorth, calif6, nad83Shifts...),
		crs("EPSG:3395", "WGS 84 / World Mercator",
			"+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +units=m +no_defs",
			EastNorth, coord.AreaOfUse{West: -180, South: -80, East: 180, North: 84}),
	}
	for zone := 1; zone <= 60; zone++ {
		list = append(list, utm(zone, false), utm(zone, true))
	}
	for zone := 1; zone <= 23; zone++ {
		list = append(list, nad83UTM(zone))
	}

	table := make(map[string]CRS, len(list))
	for _, c := range list {
		table[c.ID] = c
	}
	return table
}

func crs(id, name, def string, order AxisOrder, area coord.AreaOfUse, shifts ...ShiftVariant) CRS {
	return CRS{ID: id, Name: name, Definition: def, AxisOrder: order, Area: area, Shifts: shifts}
}

func zoneArea(zone int, south, north float64) coord.AreaOfUse {
	west := float64(-186 + 6*zone)
	return coord.AreaOfUse{West: west, South: south, East: west + 6, North: north}
}

func tmercZone(zone, falseNorthing int, ellipsoid string) string {
	return fmt.Sprintf("+proj=tmerc +lat_0=0 +lon_0=%d +k=0.9996 +x_0=500000 +y_0=%d +ellps=%s +units=m +no_defs",
		-183+6*zone, falseNorthing, ellipsoid)
}

func utm(zone int, south bool) CRS {
	if south {
		return CRS{
			ID:         fmt.Sprintf("EPSG:%d", 32700+zone),
			Name:       fmt.Sprintf("WGS 84 / UTM zone %dS", zone),
			Definition: tmercZone(zone, 10000000, "WGS84"),
			AxisOrder:  EastNorth,
			Area:       zoneArea(zone, -80, 0),
		}
	}
	return CRS{
		ID:         fmt.Sprintf("EPSG:%d", 32600+zone),
		Name:       fmt.Sprintf("WGS 84 / UTM zone %dN", zone),
		Definition: tmercZone(zone, 0, "WGS84"),
		AxisOrder:  EastNorth,
		Area:       zoneArea(zone, 0, 84),
	}
}

func nad83UTM(zone int) CRS {
	return CRS{
		ID:         fmt.Sprintf("EPSG:%d", 26900+zone),
		Name:       fmt.Sprintf("NAD83 / UTM zone %dN", zone),
		Definition: tmercZone(zone, 0, "GRS80"),
		AxisOrder:  EastNorth,
		Area:       zoneArea(zone, 14.92, 84),
		Shifts:     nad83Shifts,
	}
}
