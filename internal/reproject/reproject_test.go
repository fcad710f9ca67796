package reproject

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj"
	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// offset adds a fixed amount to every point and fails on points west of
// -170 so that error paths can be exercised.
type offset struct{ dx, dy float64 }

func (o offset) ConvertBatch(points []coord.Point) error {
	for i, p := range points {
		if p.X < -170 {
			return &geoproj.BatchError{Index: i, Err: errors.New("out of range")}
		}
	}
	for i := range points {
		points[i].X += o.dx
		points[i].Y += o.dy
	}
	return nil
}

func TestGeometryKeepsZ(t *testing.T) {
	ls := geom.NewLineStringFlat(geom.XYZ, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, Geometry(offset{10, 20}, ls))
	require.Equal(t, []float64{11, 22, 3, 14, 25, 6}, ls.FlatCoords())
}

func TestGeometryCollection(t *testing.T) {
	gc := geom.NewGeometryCollection()
	require.NoError(t, gc.Push(
		geom.NewPointFlat(geom.XY, []float64{1, 1}),
		geom.NewPolygonFlat(geom.XY, []float64{0, 0, 1, 0, 1, 1, 0, 0}, []int{8}),
	))
	require.NoError(t, Geometry(offset{1, 1}, gc))
	require.Equal(t, []float64{2, 2}, gc.Geom(0).FlatCoords())
	require.Equal(t, []float64{1, 1, 2, 1, 2, 2, 1, 1}, gc.Geom(1).FlatCoords())

	bad := geom.NewGeometryCollection()
	require.NoError(t, bad.Push(geom.NewPointFlat(geom.XY, []float64{-175, 0})))
	err := Geometry(offset{}, bad)
	require.ErrorContains(t, err, "geometry 0")
}

const collection = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"name":"zurich"},"geometry":{"type":"Point","coordinates":[8.5417,47.3769]}},
{"type":"Feature","properties":{"name":"track"},"geometry":{"type":"LineString","coordinates":[[8,47],[9,48]]}},
{"type":"Feature","properties":{"name":"none"},"geometry":null}
]}`

func TestDocumentFeatureCollection(t *testing.T) {
	e, err := geoproj.NewKnownCRS("EPSG:4326", "EPSG:32632", nil)
	require.NoError(t, err)

	var out bytes.Buffer
	err = Document(context.Background(), e, strings.NewReader(collection), &out, Options{MaxDecimalDigits: 3, Concurrency: 2})
	require.NoError(t, err)

	fc := &geojson.FeatureCollection{}
	require.NoError(t, json.Unmarshal(out.Bytes(), fc))
	require.Len(t, fc.Features, 3)
	require.Equal(t, "zurich", fc.Features[0].Properties["name"])
	require.Equal(t, []float64{465403.284, 5247150.839}, fc.Features[0].Geometry.FlatCoords())
	require.Equal(t, 4, len(fc.Features[1].Geometry.FlatCoords()))
	require.Nil(t, fc.Features[2].Geometry)
}

func TestDocumentGeometryAndFeature(t *testing.T) {
	var out bytes.Buffer
	err := Document(context.Background(), offset{1, 2}, strings.NewReader(`{"type":"Point","coordinates":[1.5,2.5]}`), &out, Options{MaxDecimalDigits: -1})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"Point","coordinates":[2.5,4.5]}`, out.String())

	out.Reset()
	err = Document(context.Background(), offset{1, 2}, strings.NewReader(`{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}`), &out, Options{MaxDecimalDigits: -1})
	require.NoError(t, err)
	f := &geojson.Feature{}
	require.NoError(t, json.Unmarshal(out.Bytes(), f))
	require.Equal(t, []float64{1, 2}, f.Geometry.FlatCoords())
}

func TestDocumentErrors(t *testing.T) {
	var out bytes.Buffer
	err := Document(context.Background(), offset{}, strings.NewReader(`not json`), &out, Options{})
	require.Error(t, err)

	bad := `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}},
{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[-175,0]]}}]}`
	err = Document(context.Background(), offset{}, strings.NewReader(bad), &out, Options{Concurrency: 1})
	require.ErrorContains(t, err, "feature 1")
	var be *geoproj.BatchError
	require.True(t, errors.As(err, &be))
	require.Equal(t, 1, be.Index)
	require.Zero(t, out.Len())
}

func TestRoundGeometry(t *testing.T) {
	p := geom.NewPointFlat(geom.XYZ, []float64{1.23456, -9.87654, 100.55555})
	roundGeometry(p, 2)
	require.Equal(t, []float64{1.23, -9.88, 100.55555}, p.FlatCoords())
}
