package preview

import (
	"context"
	"image/color"
	"testing"

	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/projerr"
	"github.com/stretchr/testify/require"
)

// plateCarree maps degrees to "metres" by a fixed scale and rejects
// latitudes beyond ±80, standing in for an engine with a limited domain.
type plateCarree struct{}

const scale = 1000.0

func (plateCarree) Project(p coord.Point, inverse bool) (coord.Point, error) {
	if inverse {
		p = coord.Point{X: p.X / scale, Y: p.Y / scale}
		if p.Y > 80 || p.Y < -80 {
			return coord.Point{}, projerr.LatitudeOutOfRangef("latitude %g", p.Y)
		}
		return p, nil
	}
	if p.Y > 80 || p.Y < -80 {
		return coord.Point{}, projerr.LatitudeOutOfRangef("latitude %g", p.Y)
	}
	return coord.Point{X: p.X * scale, Y: p.Y * scale}, nil
}

func (pc plateCarree) ProjectBatch(points []coord.Point, inverse bool) error {
	out := make([]coord.Point, len(points))
	for i, p := range points {
		q, err := pc.Project(p, inverse)
		if err != nil {
			return err
		}
		out[i] = q
	}
	copy(points, out)
	return nil
}

func TestExtent(t *testing.T) {
	b, err := Extent(plateCarree{}, coord.AreaOfUse{West: -10, South: -90, East: 20, North: 90}, true, 19)
	require.NoError(t, err)
	require.InDelta(t, -10000, b.MinX, 1e-9)
	require.InDelta(t, 20000, b.MaxX, 1e-9)
	require.InDelta(t, -80000, b.MinY, 1e-9)
	require.InDelta(t, 80000, b.MaxY, 1e-9)

	_, err = Extent(plateCarree{}, coord.AreaOfUse{West: 0, South: 85, East: 10, North: 89}, true, 4)
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	cfg := Config{
		Width:       40,
		Height:      20,
		Bounds:      Bounds{MinX: 0, MinY: 0, MaxX: 40000, MaxY: 100000},
		Degrees:     true,
		Step:        10,
		Concurrency: 3,
	}
	img, err := Render(context.Background(), plateCarree{}, cfg)
	require.NoError(t, err)
	defer PutRGBA(img)
	require.Equal(t, 40, img.Rect.Dx())

	// Row 0 is at 97.5° after inverse scaling: beyond the domain.
	require.Equal(t, color.RGBA{}, img.RGBAAt(5, 0))
	// Pixel (5, 19) is centred on (5.5°, 2.5°), inside the first cell.
	require.Equal(t, cellLight, img.RGBAAt(5, 19))
	// Pixel (15, 19) is centred on (15.5°, 2.5°), the neighbouring cell.
	require.Equal(t, cellDark, img.RGBAAt(15, 19))
	// Pixel (9, 19) is centred on 9.5°, within half a pixel of the 10° line.
	require.Equal(t, lineColor, img.RGBAAt(9, 19))
}

func TestRenderErrors(t *testing.T) {
	_, err := Render(context.Background(), plateCarree{}, Config{Width: 0, Height: 10, Bounds: Bounds{MaxX: 1, MaxY: 1}})
	require.Error(t, err)
	_, err = Render(context.Background(), plateCarree{}, Config{Width: 10, Height: 10})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Render(ctx, plateCarree{}, Config{Width: 10, Height: 200, Bounds: Bounds{MaxX: 1, MaxY: 1}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOnLine(t *testing.T) {
	require.True(t, onLine(10.2, 10, 0.5))
	require.True(t, onLine(-19.9, 10, 0.5))
	require.False(t, onLine(15, 10, 0.5))
	require.False(t, onLine(10.2, 10, 0))
}
