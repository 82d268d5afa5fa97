package concurrent

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEach runs action for each element of items in separate goroutines, at
// most limit at a time. A limit below one means GOMAXPROCS. It waits for all
// goroutines to finish and returns the first error encountered; the context
// handed to action is cancelled once an error occurs.
func ForEach[T any](ctx context.Context, items []T, limit int, action func(ctx context.Context, i int, item T) error) error {
	if limit < 1 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return action(ctx, i, item)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Map applies mapFn to each element in parallel, preserving order.
func Map[T any, R any](ctx context.Context, items []T, limit int, mapFn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	err := ForEach(ctx, items, limit, func(ctx context.Context, i int, item T) error {
		r, err := mapFn(ctx, item)
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
