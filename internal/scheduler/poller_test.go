package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPoller_ImmediatePassOnStart(t *testing.T) {
	var ticks atomic.Int32
	p := New(zap.NewNop(), time.Hour, func(context.Context) { ticks.Add(1) })
	defer p.Stop()

	p.Start()
	waitFor(t, func() bool { return ticks.Load() == 1 })
	assert.True(t, p.Running())
}

func TestPoller_StartStopIdempotent(t *testing.T) {
	var ticks atomic.Int32
	p := New(zap.NewNop(), time.Hour, func(context.Context) { ticks.Add(1) })

	p.Start()
	p.Start() // second start must not spawn a second loop
	waitFor(t, func() bool { return ticks.Load() >= 1 })

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), ticks.Load(), "one immediate pass, not two")

	p.Stop()
	p.Stop() // second stop is a no-op
	assert.False(t, p.Running())
}

func TestPoller_PeriodicTicks(t *testing.T) {
	var ticks atomic.Int32
	p := New(zap.NewNop(), 10*time.Millisecond, func(context.Context) { ticks.Add(1) })
	defer p.Stop()

	p.Start()
	waitFor(t, func() bool { return ticks.Load() >= 3 })
}

func TestPoller_SkipsWhenBusy(t *testing.T) {
	var started atomic.Int32
	block := make(chan struct{})
	p := New(zap.NewNop(), 5*time.Millisecond, func(context.Context) {
		started.Add(1)
		<-block
	})
	defer p.Stop()

	p.Start()
	waitFor(t, func() bool { return started.Load() == 1 })

	// Several periods elapse while the first tick is stuck; none may overlap.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), started.Load(), "ticks must not overlap")

	close(block)
	waitFor(t, func() bool { return started.Load() >= 2 })
}

func TestPoller_StopHaltsTicks(t *testing.T) {
	var ticks atomic.Int32
	p := New(zap.NewNop(), 10*time.Millisecond, func(context.Context) { ticks.Add(1) })

	p.Start()
	waitFor(t, func() bool { return ticks.Load() >= 1 })
	p.Stop()

	n := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	// A tick already due may still land; after that the count must not move.
	assert.LessOrEqual(t, ticks.Load(), n+1)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
