package room

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is a running tick source. Cancel stops it and reports whether this
// call was the one that did; later calls are no-ops.
type Task interface {
	C() <-chan time.Time
	Cancel() bool
}

// Scheduler starts tick sources for rooms.
type Scheduler interface {
	Start(interval time.Duration) Task
}

// TickerScheduler hands out wall-clock TickTasks.
type TickerScheduler struct{}

func (TickerScheduler) Start(interval time.Duration) Task {
	return NewTickTask(interval)
}

// TickTask wraps a time.Ticker with an idempotent Cancel.
type TickTask struct {
	ticker    *time.Ticker
	once      sync.Once
	cancelled atomic.Bool
}

func NewTickTask(interval time.Duration) *TickTask {
	return &TickTask{ticker: time.NewTicker(interval)}
}

func (t *TickTask) C() <-chan time.Time {
	return t.ticker.C
}

func (t *TickTask) Cancel() bool {
	did := false
	t.once.Do(func() {
		t.ticker.Stop()
		t.cancelled.Store(true)
		did = true
	})
	return did
}

func (t *TickTask) Cancelled() bool {
	return t.cancelled.Load()
}
