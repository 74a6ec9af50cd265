package otel

import "sync"

// DefaultRingSize is the default ring buffer capacity.
const DefaultRingSize = 1024

// RingBuffer is a fixed-size circular buffer of Events.
// Safe for concurrent Push and reads.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	size  int
	head  int // next write position
	count int // number of valid entries (0..size)
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{
		buf:  make([]Event, size),
		size: size,
	}
}

// Push adds an event, overwriting the oldest if full.
// The Extra map is copied so callers may keep mutating theirs.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		cp := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			cp[k] = v
		}
		e.Extra = cp
	}
	r.mu.Lock()
	r.buf[r.head] = e
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
	r.mu.Unlock()
}

// each calls fn for every buffered event, oldest first. Caller holds r.mu.
func (r *RingBuffer) each(fn func(Event)) {
	start := 0
	if r.count >= r.size {
		start = r.head
	}
	for i := 0; i < r.count; i++ {
		fn(r.buf[(start+i)%r.size])
	}
}

// Snapshot returns a copy of all events, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}
	result := make([]Event, 0, r.count)
	r.each(func(e Event) { result = append(result, e) })
	return result
}

// Last returns the n most recent events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	all := r.Snapshot()
	if n > len(all) {
		n = len(all)
	}
	return all[len(all)-n:]
}

// ForChannel returns buffered events for one channel, oldest first.
func (r *RingBuffer) ForChannel(channelID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Event
	r.each(func(e Event) {
		if e.Channel == channelID {
			result = append(result, e)
		}
	})
	return result
}

// ForRun returns buffered events for one refresh run, oldest first.
func (r *RingBuffer) ForRun(runID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Event
	r.each(func(e Event) {
		if e.RunID == runID {
			result = append(result, e)
		}
	})
	return result
}

// Len returns the number of events currently in the buffer.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return r.size
}

// Stats returns counts by EventKind over all buffered events.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	r.each(func(e Event) { counts[e.Kind]++ })
	return counts
}
