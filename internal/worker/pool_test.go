package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoReturnsValue(t *testing.T) {
	p := NewPool(&PoolConfig{MaxConcurrent: 2})

	v, err := Do(context.Background(), p, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	boom := errors.New("boom")
	err = Run(context.Background(), p, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestNilPoolRunsInline(t *testing.T) {
	v, err := Do(context.Background(), nil, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestDefaultSize(t *testing.T) {
	assert.Equal(t, 4, NewPool(nil).Stats().Size)
	assert.Equal(t, 4, NewPool(&PoolConfig{MaxConcurrent: -1}).Stats().Size)
}

func TestConcurrencyBound(t *testing.T) {
	p := NewPool(&PoolConfig{MaxConcurrent: 2})

	var current, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = Run(context.Background(), p, func() error {
				n := current.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.Equal(t, int64(0), p.Stats().Running)
}

func TestAbandonedJobKeepsRunning(t *testing.T) {
	p := NewPool(&PoolConfig{MaxConcurrent: 1})
	release := make(chan struct{})
	finished := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, p, func() error {
		<-release
		close(finished)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), p.Stats().Abandoned)

	// The slot is still held, so a new caller with a short deadline times out
	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	err = Run(short, p, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-finished

	require.Eventually(t, func() bool { return p.Stats().Running == 0 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, Run(context.Background(), p, func() error { return nil }))
}
