package otel

import (
	"bufio"
	"encoding/json"
	"io"
)

// Filter selects events when reading a JSONL log. Zero fields match all.
type Filter struct {
	Kind    EventKind
	Channel string
	RunID   string
}

func (f Filter) match(e Event) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Channel != "" && e.Channel != f.Channel {
		return false
	}
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	return true
}

// ReadEvents decodes a JSONL event log. Malformed lines are counted and
// skipped rather than failing the whole read.
func ReadEvents(r io.Reader, f Filter) (events []Event, skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			skipped++
			continue
		}
		if f.match(e) {
			events = append(events, e)
		}
	}
	return events, skipped, sc.Err()
}
