package cache

import (
	"context"
	"sync"
)

// State is the loading state of an Image.
type State int

const (
	Loading State = iota
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Image tracks a single asynchronous Resolve. It starts Loading and moves
// exactly once to Resolved or Failed.
type Image struct {
	mu    sync.Mutex
	state State
	path  string
	err   error
	done  chan struct{}
}

// ResolveAsync starts resolving id in the background and returns a handle
// that reports progress. Rendering code shows a loading indicator while the
// state is Loading, the file once Resolved, and nothing once Failed.
func ResolveAsync(ctx context.Context, c Cache, id, url string) *Image {
	img := &Image{done: make(chan struct{})}
	go func() {
		path, err := c.Resolve(ctx, id, url)
		img.finish(path, err)
	}()
	return img
}

func (i *Image) finish(path string, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.state = Failed
		i.err = err
	} else {
		i.state = Resolved
		i.path = path
	}
	close(i.done)
}

// State returns the current state.
func (i *Image) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Loading reports whether the resolve is still pending.
func (i *Image) Loading() bool {
	return i.State() == Loading
}

// Done is closed once the state is terminal.
func (i *Image) Done() <-chan struct{} {
	return i.done
}

// Wait blocks until the resolve finishes or ctx is done.
func (i *Image) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-i.done:
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.path, i.err
}
