package fetch

import (
	"context"
	"sync"
)

// Func performs one remote request.
type Func[T any] func(ctx context.Context) (T, error)

// DataFetch issues a request the first time it is asked for data and keeps
// the latest result. ForceFetch repeats the request on demand. It is safe for
// concurrent use. A Fetch that arrives while a request is in flight waits for
// it; ForceFetch calls are not coalesced and the last one to resolve wins.
type DataFetch[T any] struct {
	fn Func[T]

	mu      sync.RWMutex
	data    T
	err     error
	loaded  bool
	started bool
	loading int
	flight  chan struct{}
}

// New wraps fn.
func New[T any](fn Func[T]) *DataFetch[T] {
	return &DataFetch[T]{fn: fn}
}

// Fetch performs the initial request. Later calls return the cached result
// without issuing a new request.
func (d *DataFetch[T]) Fetch(ctx context.Context) (T, error) {
	d.mu.Lock()
	if d.started {
		flight := d.flight
		d.mu.Unlock()
		if flight != nil {
			select {
			case <-flight:
			case <-ctx.Done():
				var zero T
				return zero, ctx.Err()
			}
		}
		d.mu.RLock()
		defer d.mu.RUnlock()
		return d.data, d.err
	}
	d.started = true
	d.mu.Unlock()

	return d.run(ctx)
}

// ForceFetch issues the request again regardless of prior results.
func (d *DataFetch[T]) ForceFetch(ctx context.Context) (T, error) {
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()

	return d.run(ctx)
}

func (d *DataFetch[T]) run(ctx context.Context) (T, error) {
	flight := make(chan struct{})
	d.mu.Lock()
	d.loading++
	d.flight = flight
	d.mu.Unlock()

	data, err := d.fn(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading--
	close(flight)
	if d.flight == flight {
		d.flight = nil
	}
	d.err = err
	if err == nil {
		d.data = data
		d.loaded = true
	}
	return d.data, err
}

// Data returns the last successfully fetched value and whether one exists.
func (d *DataFetch[T]) Data() (T, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data, d.loaded
}

// Err returns the error of the most recent request.
func (d *DataFetch[T]) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// Loading reports whether a request is in flight.
func (d *DataFetch[T]) Loading() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loading > 0
}
