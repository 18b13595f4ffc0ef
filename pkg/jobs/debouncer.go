package jobs

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Debouncer coalesces bursts of work per key. Scheduling a key replaces any pending
// task for that key and restarts its timer, so only the last task of a burst runs.
type Debouncer struct {
	delay  time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingTask
	stopped bool
}

type pendingTask struct {
	seq   uint64
	timer *time.Timer
	fn    func()
}

// NewDebouncer builds a debouncer firing delay after the last Schedule call of a key.
func NewDebouncer(delay time.Duration, logger *zap.Logger) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer{
		delay:   delay,
		logger:  logger,
		pending: make(map[string]pendingTask),
	}
}

// Schedule arms fn for key, dropping the task previously pending for it. It reports
// false once the debouncer has been stopped.
func (d *Debouncer) Schedule(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending[key] = pendingTask{
		seq:   seq,
		fn:    fn,
		timer: time.AfterFunc(d.delay, func() { d.fire(key, seq) }),
	}
	return true
}

// Cancel drops the pending task of key without running it.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	task, ok := d.pending[key]
	if !ok {
		return false
	}
	task.timer.Stop()
	delete(d.pending, key)
	return true
}

// Flush runs the pending task of key right away on the calling goroutine.
func (d *Debouncer) Flush(key string) bool {
	task, ok := d.take(key)
	if !ok {
		return false
	}
	task.fn()
	return true
}

// Pending reports whether a task is waiting for key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Len returns the number of pending keys.
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop refuses new work and runs every pending task before returning.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	tasks := make([]pendingTask, 0, len(d.pending))
	for key, task := range d.pending {
		task.timer.Stop()
		tasks = append(tasks, task)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, task := range tasks {
		task.fn()
	}
	d.logger.Sugar().Infow("debouncer stopped", "flushed", len(tasks))
}

func (d *Debouncer) take(key string) (pendingTask, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	task, ok := d.pending[key]
	if !ok {
		return pendingTask{}, false
	}
	task.timer.Stop()
	delete(d.pending, key)
	return task, true
}

// fire runs a task whose timer elapsed, unless it was replaced, cancelled or flushed.
func (d *Debouncer) fire(key string, seq uint64) {
	d.mu.Lock()
	task, ok := d.pending[key]
	if !ok || task.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()
	task.fn()
}
