// Package worker runs blocking repository work off the caller's goroutine
// with a bound on how much of it runs at once.
package worker

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"branchkit/internal/constants"
	"branchkit/internal/logger"
)

// PoolConfig holds configuration for the pool
type PoolConfig struct {
	// MaxConcurrent is the number of jobs allowed to run at once (default: 4)
	MaxConcurrent int
}

// DefaultPoolConfig returns the default pool configuration
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{MaxConcurrent: constants.DefaultMaxConcurrentGitOps}
}

// Pool bounds concurrent blocking jobs. A caller whose context ends stops
// waiting, but a job that already started runs to completion and keeps its
// slot until it returns.
type Pool struct {
	sem       *semaphore.Weighted
	size      int
	running   atomic.Int64
	abandoned atomic.Int64
}

// PoolStats is a snapshot of pool usage
type PoolStats struct {
	Size      int   `json:"size"`
	Running   int64 `json:"running"`
	Abandoned int64 `json:"abandoned"`
}

// NewPool creates a new pool
func NewPool(config *PoolConfig) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}
	size := config.MaxConcurrent
	if size <= 0 {
		size = constants.DefaultMaxConcurrentGitOps
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Stats returns current pool statistics
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:      p.size,
		Running:   p.running.Load(),
		Abandoned: p.abandoned.Load(),
	}
}

type result[T any] struct {
	value T
	err   error
}

// Do runs fn on a pool slot and waits for it or for ctx, whichever ends
// first. A nil pool runs fn inline.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	if p == nil {
		return fn()
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	done := make(chan result[T], 1)
	p.running.Add(1)
	go func() {
		defer p.sem.Release(1)
		defer p.running.Add(-1)
		v, err := fn()
		done <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		p.abandoned.Add(1)
		logger.WithField("component", "worker").Debug("Caller abandoned a running job")
		return zero, ctx.Err()
	}
}

// Run is Do for jobs that only return an error.
func Run(ctx context.Context, p *Pool, fn func() error) error {
	_, err := Do(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
