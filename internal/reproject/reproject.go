// Package reproject converts the coordinates of GeoJSON documents with a
// geoproj engine.
package reproject

import (
	"context"
	"encoding/json"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/coord"
	"github.com/pspoerri/geoproj/internal/progress"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"golang.org/x/sync/errgroup"
)

// Converter converts points in place, all or nothing.
type Converter interface {
	ConvertBatch(points []coord.Point) error
}

// Options tunes a reprojection run.
type Options struct {
	// MaxDecimalDigits rounds output coordinates; negative keeps full
	// precision.
	MaxDecimalDigits int
	// Concurrency bounds the number of features converted at once.
	Concurrency int
	Progress    *progress.Bar
}

// Geometry converts every coordinate of g in place. Z and M ordinates are
// left untouched.
func Geometry(conv Converter, g geom.T) error {
	if gc, ok := g.(*geom.GeometryCollection); ok {
		for i, child := range gc.Geoms() {
			if err := Geometry(conv, child); err != nil {
				return errors.Wrapf(err, "geometry %d", i)
			}
		}
		return nil
	}
	if g == nil || g.Empty() {
		return nil
	}

	flat, stride := g.FlatCoords(), g.Stride()
	points := make([]coord.Point, len(flat)/stride)
	for i := range points {
		points[i] = coord.Point{X: flat[i*stride], Y: flat[i*stride+1]}
	}
	if err := conv.ConvertBatch(points); err != nil {
		return err
	}
	for i, p := range points {
		flat[i*stride], flat[i*stride+1] = p.X, p.Y
	}
	return nil
}

// Features converts every feature geometry of fc. Features run in
// parallel; the first failure cancels the rest and names the feature.
func Features(ctx context.Context, conv Converter, fc *geojson.FeatureCollection, opts Options) error {
	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, f := range fc.Features {
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := Geometry(conv, f.Geometry); err != nil {
				return errors.Wrapf(err, "feature %d", i)
			}
			roundGeometry(f.Geometry, opts.MaxDecimalDigits)
			opts.Progress.Add(1)
			return nil
		})
	}
	return g.Wait()
}

// Document reads a GeoJSON FeatureCollection, Feature or bare geometry
// from r, converts it and writes the same kind of document to w.
func Document(ctx context.Context, conv Converter, r io.Reader, w io.Writer, opts Options) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading GeoJSON")
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return errors.Wrap(err, "decoding GeoJSON")
	}

	var out interface{}
	switch head.Type {
	case "FeatureCollection":
		fc := &geojson.FeatureCollection{}
		if err := json.Unmarshal(data, fc); err != nil {
			return errors.Wrap(err, "decoding feature collection")
		}
		if err := Features(ctx, conv, fc, opts); err != nil {
			return err
		}
		out = fc
	case "Feature":
		f := &geojson.Feature{}
		if err := json.Unmarshal(data, f); err != nil {
			return errors.Wrap(err, "decoding feature")
		}
		fc := &geojson.FeatureCollection{Features: []*geojson.Feature{f}}
		if err := Features(ctx, conv, fc, opts); err != nil {
			return err
		}
		out = f
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return errors.Wrapf(err, "decoding geometry of type %q", head.Type)
		}
		if err := Geometry(conv, g); err != nil {
			return err
		}
		roundGeometry(g, opts.MaxDecimalDigits)
		b, err := geojson.Marshal(g)
		if err != nil {
			return errors.Wrap(err, "encoding geometry")
		}
		_, err = w.Write(append(b, '\n'))
		return err
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(err, "encoding GeoJSON")
	}
	return nil
}

func roundGeometry(g geom.T, digits int) {
	if digits < 0 || g == nil {
		return
	}
	if gc, ok := g.(*geom.GeometryCollection); ok {
		for _, child := range gc.Geoms() {
			roundGeometry(child, digits)
		}
		return
	}
	if g.Empty() {
		return
	}
	scale := math.Pow(10, float64(digits))
	flat, stride := g.FlatCoords(), g.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		flat[i] = math.Round(flat[i]*scale) / scale
		flat[i+1] = math.Round(flat[i+1]*scale) / scale
	}
}
