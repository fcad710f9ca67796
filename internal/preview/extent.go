package preview

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/coord"
)

// Extent forward projects a grid of samples over area (degrees) and
// returns the bounding box of the points that project. Samples the
// projection rejects are skipped.
func Extent(proj Projector, area coord.AreaOfUse, degrees bool, samples int) (Bounds, error) {
	if err := area.Validate(); err != nil {
		return Bounds{}, err
	}
	if samples < 2 {
		samples = 2
	}
	east := area.East
	if area.CrossesAntimeridian() {
		east += 360
	}

	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	n := samples - 1
	for i := 0; i <= n; i++ {
		lat := area.South + (area.North-area.South)*float64(i)/float64(n)
		for j := 0; j <= n; j++ {
			lon := area.West + (east-area.West)*float64(j)/float64(n)
			if lon > 180 {
				lon -= 360
			}
			p := coord.Point{X: lon, Y: lat}
			if !degrees {
				p = coord.Point{X: coord.DegToRad(lon), Y: coord.DegToRad(lat)}
			}
			q, err := proj.Project(p, false)
			if err != nil || !q.IsFinite() {
				continue
			}
			b.MinX, b.MaxX = math.Min(b.MinX, q.X), math.Max(b.MaxX, q.X)
			b.MinY, b.MaxY = math.Min(b.MinY, q.Y), math.Max(b.MaxY, q.Y)
		}
	}
	if b.Empty() {
		return Bounds{}, errors.Newf("no point of %s projects", area)
	}
	return b, nil
}
