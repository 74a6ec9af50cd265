package otel

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/channelguide/internal/logging"
)

const writerChanSize = 4096

// Logger appends events to an io.Writer as JSON lines. Emit never blocks the
// caller: events are queued and a single sink goroutine encodes and writes
// them. A nil *Logger accepts and discards every call.
type Logger struct {
	session string
	queue   chan Event
	out     io.Writer
	file    io.Closer // set by OpenFile

	// gate serializes Close against in-flight sends on queue.
	gate   sync.RWMutex
	closed bool

	ringMu sync.Mutex
	ring   *RingBuffer

	dropped  atomic.Uint64
	finished chan struct{}
}

func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		session:  newSessionID(),
		queue:    make(chan Event, writerChanSize),
		out:      w,
		finished: make(chan struct{}),
	}
	go l.sink()
	return l
}

// OpenFile returns a Logger appending to path. Missing directories are created.
func OpenFile(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	l := NewLogger(f)
	l.file = f
	return l, nil
}

func NewNullLogger() *Logger { return NewLogger(io.Discard) }

func newSessionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.session
}

// sink owns out. The ring copy is taken from the queued Event, so fields the
// JSON form omits (Dur as a Duration) survive there.
func (l *Logger) sink() {
	defer close(l.finished)
	enc := json.NewEncoder(l.out)
	for ev := range l.queue {
		if err := enc.Encode(ev); err != nil {
			l.dropped.Add(1)
		}
		if rb := l.ringBuffer(); rb != nil {
			rb.Push(ev)
		}
	}
}

func (l *Logger) ringBuffer() *RingBuffer {
	l.ringMu.Lock()
	defer l.ringMu.Unlock()
	return l.ring
}

// Emit stamps e with the session id and, when unset, the current time, then
// queues it. A full queue or a closed logger counts the event as dropped.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	l.gate.RLock()
	defer l.gate.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.queue <- e:
	default:
		l.dropped.Add(1)
	}
}

func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// SetRingBuffer mirrors every written event into rb. Pass nil to detach.
func (l *Logger) SetRingBuffer(rb *RingBuffer) {
	if l == nil {
		return
	}
	l.ringMu.Lock()
	l.ring = rb
	l.ringMu.Unlock()
}

func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close waits for queued events to be written. Later calls are no-ops and
// later Emits are counted as drops.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.gate.Lock()
	if l.closed {
		l.gate.Unlock()
		return
	}
	l.closed = true
	close(l.queue)
	l.gate.Unlock()

	<-l.finished
	if l.file != nil {
		if err := l.file.Close(); err != nil {
			logging.Warn("event log close failed", "err", err)
		}
	}
	if n := l.dropped.Load(); n > 0 {
		logging.Warn("events dropped", "count", n, "session", l.session)
	}
}
