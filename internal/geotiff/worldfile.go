package geotiff

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// worldFile holds the six lines of a TIFF world file (.tfw):
//
//	pixel width, rotation about y, rotation about x,
//	pixel height (negative for north-up),
//	x and y of the center of the upper-left pixel.
type worldFile struct {
	pixelSizeX float64
	rotationY  float64
	rotationX  float64
	pixelSizeY float64
	centerX    float64
	centerY    float64
}

func parseWorldFile(path string) (worldFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return worldFile{}, errors.Wrapf(err, "reading world file %s", path)
	}

	lines := strings.Fields(string(data))
	if len(lines) < 6 {
		return worldFile{}, errors.Newf("world file %s: expected 6 values, got %d", path, len(lines))
	}
	var v [6]float64
	for i := range v {
		f, err := strconv.ParseFloat(lines[i], 64)
		if err != nil {
			return worldFile{}, errors.Wrapf(err, "world file %s line %d", path, i+1)
		}
		v[i] = f
	}

	w := worldFile{
		pixelSizeX: v[0],
		rotationY:  v[1],
		rotationX:  v[2],
		pixelSizeY: v[3],
		centerX:    v[4],
		centerY:    v[5],
	}
	if w.rotationX != 0 || w.rotationY != 0 {
		return worldFile{}, errors.Newf("world file %s: rotated grids are not supported (rotation %g, %g)",
			path, w.rotationX, w.rotationY)
	}
	if w.pixelSizeX == 0 || w.pixelSizeY == 0 {
		return worldFile{}, errors.Newf("world file %s: zero pixel size", path)
	}
	return w, nil
}

// findWorldFile looks for a sidecar next to the TIFF at path.
func findWorldFile(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".tfw", ".TFW", ".tifw", ".TIFW"} {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext
		}
	}
	return ""
}

// apply places info using the world file. The world file references the
// pixel center, Info the pixel corner.
func (w worldFile) apply(info *Info) {
	info.PixelSizeX = math.Abs(w.pixelSizeX)
	info.PixelSizeY = math.Abs(w.pixelSizeY)
	info.OriginX = w.centerX - info.PixelSizeX/2
	info.OriginY = w.centerY + info.PixelSizeY/2
}
