// Package batch provides chunked sequential and parallel execution for
// offline detection runs. The two entry points make the failure policy an
// explicit choice at the call site: record-level tolerance lives inside
// the worker functions (the detector skips and warns), while a chunk-level
// error here aborts the whole run so partial detection sets are never
// published.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Chunk partitions items into fixed-size batches. A non-positive size
// yields a single chunk.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{items}
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// Stats aggregates per-chunk timing into run-level throughput.
type Stats struct {
	Chunks         int           `json:"chunks"`
	Items          int           `json:"items"`
	Elapsed        time.Duration `json:"elapsed"`
	ItemsPerMinute float64       `json:"items_per_minute"`
}

func finalize(s Stats, start time.Time) Stats {
	s.Elapsed = time.Since(start)
	if s.Elapsed > 0 {
		s.ItemsPerMinute = float64(s.Items) / s.Elapsed.Minutes()
	}
	return s
}

// Run processes chunks sequentially. fn receives the chunk index and the
// chunk; its results are appended in order. The first chunk error aborts
// the run and reports the failing chunk.
func Run[T, R any](ctx context.Context, items []T, size int, fn func(ctx context.Context, chunk []T) ([]R, error)) ([]R, Stats, error) {
	start := time.Now()
	chunks := Chunk(items, size)
	stats := Stats{Chunks: len(chunks), Items: len(items)}

	var out []R
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, finalize(stats, start), eris.Wrapf(err, "batch: cancelled before chunk %d", i)
		}
		res, err := fn(ctx, chunk)
		if err != nil {
			return nil, finalize(stats, start), eris.Wrapf(err, "batch: chunk %d/%d failed", i+1, len(chunks))
		}
		out = append(out, res...)
	}
	return out, finalize(stats, start), nil
}

// RunParallel processes chunks concurrently in a bounded worker pool.
// Results are merged with no ordering requirement — callers treat them as
// order-independent facts. Any chunk error cancels the remaining work and
// aborts the run; no partial result set is returned.
func RunParallel[T, R any](ctx context.Context, items []T, size, workers int, fn func(ctx context.Context, chunk []T) ([]R, error)) ([]R, Stats, error) {
	start := time.Now()
	chunks := Chunk(items, size)
	stats := Stats{Chunks: len(chunks), Items: len(items)}

	if workers <= 1 || len(chunks) <= 1 {
		out, _, err := Run(ctx, items, size, fn)
		return out, finalize(stats, start), err
	}

	var (
		mu  sync.Mutex
		out []R
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := fn(gctx, chunk)
			if err != nil {
				return eris.Wrapf(err, "batch: chunk %d/%d failed", i+1, len(chunks))
			}
			mu.Lock()
			out = append(out, res...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, finalize(stats, start), err
	}

	st := finalize(stats, start)
	zap.L().Debug("batch: parallel run complete",
		zap.Int("chunks", st.Chunks),
		zap.Int("items", st.Items),
		zap.Int("workers", workers),
		zap.Duration("elapsed", st.Elapsed),
	)
	return out, st, nil
}
