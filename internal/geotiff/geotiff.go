// Package geotiff reads the georeferencing of a GeoTIFF: its CRS code, its
// size and the affine placement of the pixel grid. It does not decode
// pixels.
package geotiff

import (
	"io"
	"math"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/coord"
)

// GeoKey IDs.
const (
	gkModelTypeGeoKey       = 1024
	gkGeographicTypeGeoKey  = 2048
	gkProjectedCSTypeGeoKey = 3072
)

const (
	modelTypeProjected  = 1
	modelTypeGeographic = 2

	userDefined = 32767
)

// ErrNoGeoreference is returned when neither the TIFF tags nor a world
// file place the raster.
var ErrNoGeoreference = errors.New("raster has no georeference")

// Info holds the georeferencing of a raster.
type Info struct {
	EPSG       int     // 0 when unknown
	Width      int     // pixels
	Height     int     // pixels
	OriginX    float64 // easting of the upper-left corner
	OriginY    float64 // northing of the upper-left corner
	PixelSizeX float64 // positive
	PixelSizeY float64 // positive

	// Geographic is set when the GeoKeys declare a lon/lat model.
	Geographic bool
}

// Code returns the EPSG code as a registry identifier, or "" when unknown.
func (i Info) Code() string {
	if i.EPSG == 0 {
		return ""
	}
	return "EPSG:" + strconv.Itoa(i.EPSG)
}

// Bounds is an axis-aligned box in some CRS.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Bounds returns the raster extent in its own CRS.
func (i Info) Bounds() Bounds {
	return Bounds{
		MinX: i.OriginX,
		MaxY: i.OriginY,
		MaxX: i.OriginX + float64(i.Width)*i.PixelSizeX,
		MinY: i.OriginY - float64(i.Height)*i.PixelSizeY,
	}
}

// Open reads the georeferencing of the GeoTIFF at path. When the file
// carries no placement tags a .tfw world file next to it is used instead.
func Open(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	info, err := Read(f)
	if errors.Is(err, ErrNoGeoreference) {
		tfw := findWorldFile(path)
		if tfw == "" {
			return Info{}, errors.Wrapf(err, "%s", path)
		}
		w, werr := parseWorldFile(tfw)
		if werr != nil {
			return Info{}, werr
		}
		w.apply(&info)
		if info.EPSG == 0 {
			info.EPSG = inferEPSG(info)
		}
		return info, nil
	}
	if err != nil {
		return Info{}, errors.Wrapf(err, "parsing %s", path)
	}
	return info, nil
}

// Read parses the first image directory of a TIFF stream. The returned
// Info carries the size and GeoKeys even when ErrNoGeoreference is
// returned, so a world file can complete it.
func Read(r io.ReadSeeker) (Info, error) {
	d, err := readDirectory(r)
	if err != nil {
		return Info{}, err
	}
	if d.width == 0 || d.height == 0 {
		return Info{}, errors.New("TIFF has no image size")
	}

	info := Info{Width: int(d.width), Height: int(d.height)}
	info.EPSG, info.Geographic = parseGeoKeys(d.geoKeys)

	if len(d.modelPixelScale) < 2 || len(d.modelTiepoint) < 6 {
		return info, ErrNoGeoreference
	}
	info.PixelSizeX = math.Abs(d.modelPixelScale[0])
	info.PixelSizeY = math.Abs(d.modelPixelScale[1])
	if info.PixelSizeX == 0 || info.PixelSizeY == 0 {
		return info, errors.Wrap(ErrNoGeoreference, "zero pixel scale")
	}

	// ModelTiepoint is [I, J, K, X, Y, Z] and maps pixel (I,J) to (X,Y).
	tp := d.modelTiepoint
	info.OriginX = tp[3] - tp[0]*info.PixelSizeX
	info.OriginY = tp[4] + tp[1]*info.PixelSizeY
	return info, nil
}

// parseGeoKeys returns the EPSG code of the model and whether it is
// geographic. User-defined models yield code 0.
func parseGeoKeys(keys []uint16) (int, bool) {
	if len(keys) < 4 {
		return 0, false
	}
	// header: KeyDirectoryVersion, KeyRevision, MinorRevision, NumberOfKeys
	n := int(keys[3])

	var model, projected, geographic uint16
	for i := 0; i < n; i++ {
		base := 4 + i*4
		if base+3 >= len(keys) {
			break
		}
		// only keys stored inline (location 0) are single short values
		if keys[base+1] != 0 {
			continue
		}
		v := keys[base+3]
		switch keys[base] {
		case gkModelTypeGeoKey:
			model = v
		case gkProjectedCSTypeGeoKey:
			projected = v
		case gkGeographicTypeGeoKey:
			geographic = v
		}
	}

	usable := func(v uint16) bool { return v != 0 && v != userDefined }
	switch {
	case model == modelTypeGeographic && usable(geographic):
		return int(geographic), true
	case model != modelTypeGeographic && usable(projected):
		return int(projected), false
	case usable(geographic):
		return int(geographic), true
	}
	return 0, model == modelTypeGeographic
}

// inferEPSG guesses WGS84 when a world-file placement looks like lon/lat.
func inferEPSG(info Info) int {
	b := info.Bounds()
	if b.MinX >= -180 && b.MaxX <= 180 && b.MinY >= -90 && b.MaxY <= 90 {
		return 4326
	}
	return 0
}

// Converter transforms points in place.
type Converter interface {
	ConvertBatch(points []coord.Point) error
}

// Footprint converts the raster extent with conv and returns the bounding
// box of the result. Each edge is sampled at densify+1 points so curved
// edges in the target CRS are enclosed.
func (i Info) Footprint(conv Converter, densify int) (Bounds, error) {
	if densify < 1 {
		densify = 1
	}
	b := i.Bounds()
	pts := make([]coord.Point, 0, 4*densify)
	for k := 0; k < densify; k++ {
		t := float64(k) / float64(densify)
		x := b.MinX + t*(b.MaxX-b.MinX)
		y := b.MinY + t*(b.MaxY-b.MinY)
		pts = append(pts,
			coord.Point{X: x, Y: b.MinY},
			coord.Point{X: b.MaxX, Y: y},
			coord.Point{X: b.MaxX - (x - b.MinX), Y: b.MaxY},
			coord.Point{X: b.MinX, Y: b.MaxY - (y - b.MinY)},
		)
	}
	if err := conv.ConvertBatch(pts); err != nil {
		return Bounds{}, err
	}

	out := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range pts {
		out.MinX = min(out.MinX, p.X)
		out.MinY = min(out.MinY, p.Y)
		out.MaxX = max(out.MaxX, p.X)
		out.MaxY = max(out.MaxY, p.Y)
	}
	return out, nil
}
