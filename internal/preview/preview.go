// Package preview renders a picture of a projection: every pixel of the
// projected extent is inverse projected and coloured by the graticule cell
// it falls in. Pixels outside the projection's domain stay transparent.
package preview

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/progress"
)

// Projector is the part of an engine the renderer needs.
type Projector interface {
	Project(p coord.Point, inverse bool) (coord.Point, error)
	ProjectBatch(points []coord.Point, inverse bool) error
}

// Bounds is a projected extent.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the extent has no area.
func (b Bounds) Empty() bool {
	return !(b.MaxX > b.MinX && b.MaxY > b.MinY)
}

// Config holds rendering options.
type Config struct {
	Width, Height int
	Bounds        Bounds
	// Degrees is set when the projector's geodetic side is in degrees
	// rather than radians.
	Degrees bool
	// Step is the graticule spacing in degrees; 10 when zero.
	Step        float64
	Concurrency int
	Progress    *progress.Bar
}

var (
	cellLight = color.RGBA{R: 0xe8, G: 0xee, B: 0xf4, A: 0xff}
	cellDark  = color.RGBA{R: 0xb4, G: 0xc8, B: 0xdc, A: 0xff}
	lineColor = color.RGBA{R: 0x30, G: 0x40, B: 0x50, A: 0xff}
)

// Render draws the preview. The returned image comes from the pool; hand
// it back with PutRGBA when done.
func Render(ctx context.Context, proj Projector, cfg Config) (*image.RGBA, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Newf("preview size must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Bounds.Empty() {
		return nil, errors.Newf("preview bounds %+v are empty", cfg.Bounds)
	}
	if cfg.Step <= 0 {
		cfg.Step = 10
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	img := GetRGBA(cfg.Width, cfg.Height)
	rows := make(chan int, cfg.Concurrency*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			row := make([]coord.Point, cfg.Width)
			for y := range rows {
				renderRow(img, proj, cfg, y, row)
				cfg.Progress.Add(1)
			}
		}()
	}

	var err error
feed:
	for y := 0; y < cfg.Height; y++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case rows <- y:
		}
	}
	close(rows)
	wg.Wait()
	if err != nil {
		PutRGBA(img)
		return nil, err
	}
	return img, nil
}

// renderRow inverse projects one pixel row. The batch call is tried first;
// rows that leave the projection's domain fall back to per-pixel calls.
func renderRow(img *image.RGBA, proj Projector, cfg Config, y int, row []coord.Point) {
	b := cfg.Bounds
	dx := (b.MaxX - b.MinX) / float64(cfg.Width)
	dy := (b.MaxY - b.MinY) / float64(cfg.Height)
	northing := b.MaxY - (float64(y)+0.5)*dy
	for x := range row {
		row[x] = coord.Point{X: b.MinX + (float64(x)+0.5)*dx, Y: northing}
	}

	ok := make([]bool, len(row))
	if err := proj.ProjectBatch(row, true); err == nil {
		for x := range ok {
			ok[x] = true
		}
	} else {
		for x, p := range row {
			q, err := proj.Project(p, true)
			if err == nil {
				row[x], ok[x] = q, true
			}
		}
	}

	// Graticule lines are about one pixel wide: the tolerance is the
	// angular size of a pixel, taken from the horizontal neighbour.
	for x, p := range row {
		if !ok[x] || !p.IsFinite() {
			continue
		}
		lon, lat := p.X, p.Y
		if !cfg.Degrees {
			lon, lat = coord.RadToDeg(lon), coord.RadToDeg(lat)
		}
		if math.Abs(lat) > 90 {
			continue
		}
		tol := pixelSize(row, ok, x, cfg.Degrees)
		img.SetRGBA(x, y, shade(lon, lat, cfg.Step, tol))
	}
}

func pixelSize(row []coord.Point, ok []bool, x int, degrees bool) float64 {
	n := x + 1
	if n >= len(row) || !ok[n] {
		n = x - 1
	}
	if n < 0 || !ok[n] {
		return 0
	}
	d := math.Hypot(row[n].X-row[x].X, row[n].Y-row[x].Y)
	if !degrees {
		d = coord.RadToDeg(d)
	}
	return d
}

func shade(lon, lat, step, tol float64) color.RGBA {
	if onLine(lon, step, tol) || onLine(lat, step, tol) {
		return lineColor
	}
	cx := int(math.Floor(lon / step))
	cy := int(math.Floor(lat / step))
	if (cx+cy)%2 == 0 {
		return cellLight
	}
	return cellDark
}

func onLine(v, step, tol float64) bool {
	r := math.Mod(math.Abs(v), step)
	return math.Min(r, step-r) <= tol/2
}
