package geoproj

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/pspoerri/geoproj/internal/pipeline"
	"github.com/pspoerri/geoproj/internal/projerr"
	"golang.org/x/sync/errgroup"
)

// ctxCheckEvery is how many points a worker converts between context checks.
const ctxCheckEvery = 1024

// ProjectBatch projects points in place, in index order. On failure the
// slice is left untouched and the error is a *BatchError naming the first
// failing index.
func (e *Engine) ProjectBatch(points []Point, inverse bool) error {
	dir := pipeline.Forward
	if inverse {
		dir = pipeline.Inverse
	}
	if err := e.batch(points, dir); err != nil {
		return projerr.Mark(errors.Wrap(err, "projection failed"), ErrProjection)
	}
	return nil
}

// ConvertBatch converts points in place with the same all-or-nothing
// contract as ProjectBatch.
func (e *Engine) ConvertBatch(points []Point) error {
	if err := e.batch(points, pipeline.Forward); err != nil {
		return projerr.Mark(errors.Wrap(err, "conversion failed"), ErrConversion)
	}
	return nil
}

func (e *Engine) batch(points []Point, dir pipeline.Direction) error {
	out := make([]Point, len(points))
	for i, p := range points {
		q, err := e.run(p, dir)
		if err != nil {
			return &BatchError{Index: i, Err: err}
		}
		out[i] = q
	}
	copy(points, out)
	return nil
}

// ConvertBatchParallel converts points in place using up to workers
// goroutines, each owning a contiguous chunk. An element failure does not
// stop the other chunks; the reported error is the one at the lowest
// failing index, and the slice is only written when every point succeeded.
// Cancelling ctx aborts the batch with ctx.Err().
func (e *Engine) ConvertBatchParallel(ctx context.Context, points []Point, workers int) error {
	if workers < 1 {
		workers = 1
	}
	if workers > len(points) {
		workers = len(points)
	}
	if workers <= 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return e.ConvertBatch(points)
	}

	out := make([]Point, len(points))
	errs := make([]*BatchError, workers)
	chunk := (len(points) + workers - 1) / workers
	var failed atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(points))
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%ctxCheckEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				q, err := e.run(points[i], pipeline.Forward)
				if err != nil {
					errs[w] = &BatchError{Index: i, Err: err}
					failed.Store(true)
					return nil
				}
				out[i] = q
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if failed.Load() {
		// Chunks are in index order, so the first recorded error is the
		// lowest failing index.
		for _, be := range errs {
			if be != nil {
				return projerr.Mark(errors.Wrap(be, "conversion failed"), ErrConversion)
			}
		}
	}
	copy(points, out)
	return nil
}
