// Package slots bounds concurrent provider calls for one request.
//
// A budget attached with With is shared by every adapter that calls Acquire
// under that context, however the calls are fanned out above them.
package slots

import (
	"context"

	"golang.org/x/sync/semaphore"
)

type ctxKey struct{}

// With attaches a budget of n concurrent calls to ctx. n <= 0 leaves ctx
// unchanged. An existing budget is kept so nested callers cannot widen it.
func With(ctx context.Context, n int) context.Context {
	if n <= 0 {
		return ctx
	}
	if _, ok := ctx.Value(ctxKey{}).(*semaphore.Weighted); ok {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, semaphore.NewWeighted(int64(n)))
}

// Acquire blocks until a slot is free or ctx is done. Without a budget on
// ctx it returns immediately.
func Acquire(ctx context.Context) (release func(), err error) {
	sem, ok := ctx.Value(ctxKey{}).(*semaphore.Weighted)
	if !ok {
		return func() {}, nil
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}
