package discovery

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// Option is one fan-out slot: OK is false when that member failed.
type Option[T any] struct {
	Value T
	OK    bool
}

// gather runs fn for every index in [0, n) with at most width in flight and
// waits for all of them. A member that errors or panics leaves its slot
// absent and is reported to onError; it never cancels its siblings.
// Slots keep submission order. onError may be called concurrently.
func gather[T any](
	ctx context.Context,
	width, n int,
	fn func(ctx context.Context, index int) (T, error),
	onError func(index int, err error),
) []Option[T] {
	out := make([]Option[T], n)
	if n == 0 {
		return out
	}
	if width <= 0 || width > n {
		width = n
	}

	p := pool.New().WithMaxGoroutines(width)
	for i := range n {
		p.Go(func() {
			defer func() {
				if recovered := recover(); recovered != nil && onError != nil {
					onError(i, fmt.Errorf("panic: %v", recovered))
				}
			}()
			value, err := fn(ctx, i)
			if err != nil {
				if onError != nil {
					onError(i, err)
				}
				return
			}
			out[i] = Option[T]{Value: value, OK: true}
		})
	}
	p.Wait()
	return out
}
