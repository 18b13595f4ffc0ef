package jobs

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerRunsOnlyLastTask(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	var last atomic.Int64
	var runs atomic.Int32

	for i := 1; i <= 5; i++ {
		value := int64(i)
		d.Schedule("plan-1:student-1", func() {
			runs.Add(1)
			last.Store(value)
		})
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int64(5), last.Load())
	assert.False(t, d.Pending("plan-1:student-1"))
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, nil)
	var runs atomic.Int32

	d.Schedule("a", func() { runs.Add(1) })
	d.Schedule("b", func() { runs.Add(1) })

	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	d := NewDebouncer(time.Hour, nil)
	ran := false

	d.Schedule("key", func() { ran = true })
	assert.True(t, d.Pending("key"))

	assert.True(t, d.Flush("key"))
	assert.True(t, ran)
	assert.False(t, d.Flush("key"))
	assert.Equal(t, 0, d.Len())
}

func TestDebouncerCancelDropsTask(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, nil)
	var runs atomic.Int32

	d.Schedule("key", func() { runs.Add(1) })
	assert.True(t, d.Cancel("key"))
	assert.False(t, d.Cancel("key"))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestDebouncerStopFlushesPending(t *testing.T) {
	d := NewDebouncer(time.Hour, nil)
	var runs atomic.Int32

	d.Schedule("a", func() { runs.Add(1) })
	d.Schedule("b", func() { runs.Add(1) })
	d.Stop()

	assert.Equal(t, int32(2), runs.Load())
	assert.False(t, d.Schedule("c", func() { runs.Add(1) }))
}
