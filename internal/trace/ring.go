package trace

import (
	"io"
	"sync"
)

// RingTracer remembers the most recent events in a fixed number of slots.
// It is what --trace-mode ring keeps around for the panic dump.
type RingTracer struct {
	mu    sync.Mutex
	slots []Event
	total uint64 // events accepted so far; slot = total % len(slots)
	level Level
}

// NewRingTracer returns a ring with room for size events (4096 when size
// is not positive).
func NewRingTracer(size int, level Level) *RingTracer {
	if size <= 0 {
		size = 4096
	}
	return &RingTracer{slots: make([]Event, size), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	stored := *ev
	stored.Seq = NextSeq()

	t.mu.Lock()
	t.slots[t.total%uint64(len(t.slots))] = stored
	t.total++
	t.mu.Unlock()
}

// Snapshot returns the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	size := uint64(len(t.slots))
	n := min(t.total, size)
	out := make([]Event, 0, n)
	for seq := t.total - n; seq < t.total; seq++ {
		out = append(out, t.slots[seq%size])
	}
	return out
}

// Overwritten reports how many events fell out of the ring.
func (t *RingTracer) Overwritten() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if size := uint64(len(t.slots)); t.total > size {
		return t.total - size
	}
	return 0
}

// Dump writes the retained events to w, oldest first.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
