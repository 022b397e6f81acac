package docmodel

import "context"

// Ordered resolution of asynchronous producers. Producers may finish in any
// order; results always come back in declaration order, never completion
// order. Package open uses this to decode independent parts concurrently
// while keeping the part list stable.

type outcome[T any] struct {
	value T
	err   error
}

// Promise is a single in-flight producer started by Start.
type Promise[T any] struct {
	done chan outcome[T]
}

// Start runs fn on its own goroutine and returns a promise for its result.
func Start[T any](fn func() (T, error)) *Promise[T] {
	p := &Promise[T]{done: make(chan outcome[T], 1)}
	go func() {
		value, err := fn()
		p.done <- outcome[T]{value: value, err: err}
	}()
	return p
}

// Await blocks until the producer finishes or the context is canceled.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case out := <-p.done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ResolveOrdered starts every producer, then awaits them strictly in
// declaration order. The first error (or cancellation) wins; later results
// are discarded.
func ResolveOrdered[T any](ctx context.Context, producers []func() (T, error)) ([]T, error) {
	promises := make([]*Promise[T], len(producers))
	for i, fn := range producers {
		promises[i] = Start(fn)
	}

	results := make([]T, 0, len(promises))
	for _, p := range promises {
		value, err := p.Await(ctx)
		if err != nil {
			return nil, err
		}
		results = append(results, value)
	}
	return results, nil
}
