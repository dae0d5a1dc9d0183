package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePurger struct {
	calls   atomic.Int32
	removed int
	err     error
}

func (f *fakePurger) Purge(context.Context) (int, error) {
	f.calls.Add(1)
	return f.removed, f.err
}

func TestSessionCleanupWorker_Cleanup(t *testing.T) {
	p := &fakePurger{removed: 3}
	w := NewSessionCleanupWorker(p, time.Minute, nil)
	assert.Equal(t, 3, w.Cleanup(context.Background()))

	p.err = errors.New("disk full")
	assert.Equal(t, 0, w.Cleanup(context.Background()))
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestSessionCleanupWorker_StartStopsOnCancel(t *testing.T) {
	p := &fakePurger{}
	w := NewSessionCleanupWorker(p, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
