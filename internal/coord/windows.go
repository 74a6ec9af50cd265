package coord

import (
	"sync"
	"time"

	"github.com/abelbrown/channelguide/internal/schedule"
)

// Published is a delivered window and the refresh generation that made it.
// Entries are replaced whole and never modified after Publish.
type Published struct {
	Window     schedule.Window
	Generation uint64
	At         time.Time
}

// WindowStore holds the current window per channel. The coordinator is the
// only writer; readers never lock.
type WindowStore struct {
	writeMu sync.Mutex // serializes writers so compare-and-publish is atomic
	entries sync.Map   // channel id -> *Published
}

// NewWindowStore creates an empty store.
func NewWindowStore() *WindowStore {
	return &WindowStore{}
}

// Get returns the current window for a channel.
func (s *WindowStore) Get(channelID string) (Published, bool) {
	v, ok := s.entries.Load(channelID)
	if !ok {
		return Published{}, false
	}
	return *v.(*Published), true
}

// Publish stores w unless a window from a newer generation is already there.
// notify, if non-nil, runs under the writer lock after a successful store so
// downstream consumers see deliveries in generation order.
func (s *WindowStore) Publish(channelID string, gen uint64, w schedule.Window, notify func()) bool {
	return s.PublishIf(channelID, gen, w, nil, notify)
}

// PublishIf is Publish gated by admit, which is asked after the store. A
// rejected entry is removed again before notify, so an owner that runs
// Forget after flipping admit's answer never sees the entry come back.
func (s *WindowStore) PublishIf(channelID string, gen uint64, w schedule.Window, admit func() bool, notify func()) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if v, ok := s.entries.Load(channelID); ok && v.(*Published).Generation > gen {
		return false
	}
	s.entries.Store(channelID, &Published{Window: w, Generation: gen, At: time.Now()})
	if admit != nil && !admit() {
		s.entries.Delete(channelID)
		return false
	}
	if notify != nil {
		notify()
	}
	return true
}


// Snapshot returns every stored window keyed by channel id.
func (s *WindowStore) Snapshot() map[string]Published {
	out := make(map[string]Published)
	s.entries.Range(func(k, v any) bool {
		out[k.(string)] = *v.(*Published)
		return true
	})
	return out
}

// Forget drops a channel, e.g. after it leaves the lineup. It does not take
// the writer lock: notify may be blocked on the display, and the display's
// own goroutine calls Forget through SetLineup.
func (s *WindowStore) Forget(channelID string) {
	s.entries.Delete(channelID)
}
