package kmeta

import (
	"context"
	"sync"
)

// UpdateFuture is a single-shot broadcast cell for the outcome of the next
// metadata refresh. It is created by RequestUpdate and resolved exactly once,
// by Update on success or FailedUpdate on failure; every holder observes the
// same outcome. Resolving an already resolved future is ignored.
type UpdateFuture struct {
	mu   sync.Mutex
	done chan struct{}

	cl  *Cluster
	err error
}

func newUpdateFuture() *UpdateFuture {
	return &UpdateFuture{done: make(chan struct{})}
}

// Done returns a channel that is closed once the future resolves.
func (f *UpdateFuture) Done() <-chan struct{} { return f.done }

// IsDone returns whether the future has resolved.
func (f *UpdateFuture) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the refresh outcome: the updated cluster on success, or the
// refresh error on failure. Before the future resolves, this returns
// ErrUpdatePending.
func (f *UpdateFuture) Result() (*Cluster, error) {
	if !f.IsDone() {
		return nil, ErrUpdatePending
	}
	return f.cl, f.err
}

// Wait blocks until the future resolves or ctx is done, returning the refresh
// outcome or the ctx error.
func (f *UpdateFuture) Wait(ctx context.Context) (*Cluster, error) {
	select {
	case <-f.done:
		return f.cl, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *UpdateFuture) fulfill(cl *Cluster) { f.resolve(cl, nil) }
func (f *UpdateFuture) fail(err error)      { f.resolve(nil, err) }

func (f *UpdateFuture) resolve(cl *Cluster, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return // already resolved; second resolution is ignored
	default:
	}
	f.cl, f.err = cl, err
	close(f.done)
}
