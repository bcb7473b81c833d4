// Package worker provides a fixed-size slot pool for blocking external
// process work (yt-dlp, whisper), so heavy jobs cannot starve the server.
package worker

import "context"

// DefaultSize bounds concurrent external-process jobs.
const DefaultSize = 2

// Pool is a counting semaphore over blocking jobs. Queued jobs wait for a
// free slot; this is the system's only backpressure mechanism. Jobs are not
// interruptible once started.
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool with the given number of slots.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return cap(p.slots)
}

// Do runs fn once a slot is free and returns its error. If ctx is done before
// a slot frees, the job never starts and ctx.Err() is returned.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()
	return fn()
}
