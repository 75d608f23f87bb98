package models

import "sync"

// Result pairs a value with the error that produced it.
type Result[T any] struct {
	Value T
	Err   error
}

// Future is the handle of a scheduled unit of work. It resolves exactly
// once. Stop only cancels the work's context; the future still resolves
// when the worker observes the cancellation and returns.
type Future[T any] struct {
	mu       sync.Mutex
	resolved bool
	value    T
	done     chan struct{}
	cancel   func()
}

// NewFuture returns an unresolved future. cancel is invoked by Stop.
func NewFuture[T any](cancel func()) *Future[T] {
	return &Future[T]{done: make(chan struct{}), cancel: cancel}
}

// Resolve sets the future's value. Later calls are ignored.
func (f *Future[T]) Resolve(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved {
		return
	}
	f.value = v
	f.resolved = true
	close(f.done)
}

// Poll returns the value and whether the future has resolved.
func (f *Future[T]) Poll() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.resolved
}

func (f *Future[T]) IsResolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

// Stop requests cancellation of the underlying work.
func (f *Future[T]) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
}

// Done is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
