// Package schedule turns an ordered content list into a continuously
// repeating channel timeline and answers "what is playing at time T".
//
// Everything here is pure and synchronous: no I/O, no goroutines. A built
// *Index is immutable, so any number of goroutines may query it at once.
// All times are Unix epoch milliseconds.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// ContentItem is one schedulable piece of on-demand content.
type ContentItem struct {
	ID         string
	Title      string
	DurationMs int64
	Ordinal    int // position in the catalog's original order
	Position   int // position within the loop, assigned by Build
	Payload    any // opaque to the scheduler
}

// Duration returns the item length as a time.Duration.
func (c ContentItem) Duration() time.Duration {
	return time.Duration(c.DurationMs) * time.Millisecond
}

// PlaybackMode is the ordering policy applied to content before scheduling.
type PlaybackMode int

const (
	Sequential PlaybackMode = iota
	Shuffle
	// Random is recognized but rejected by ApplyMode and Build. Callers pick a
	// fresh seed themselves and submit Shuffle instead.
	Random
)

func (m PlaybackMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Shuffle:
		return "shuffle"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "sequential", "shuffle" or "random" (case-insensitive).
func ParseMode(s string) (PlaybackMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "":
		return Sequential, nil
	case "shuffle":
		return Shuffle, nil
	case "random":
		return Random, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Config is everything Build needs to produce a channel's index.
type Config struct {
	ChannelID string
	Items     []ContentItem
	Mode      PlaybackMode
	Seed      int64
	AnchorMs  int64 // start of loop 0
}

// Program is one scheduled airing, computed per query.
type Program struct {
	Item        ContentItem
	StartMs     int64
	EndMs       int64 // exclusive
	ElapsedMs   int64 // relative to the query instant
	RemainingMs int64
	Position    int
	LoopNumber  int64 // negative before the anchor
	IsCurrent   bool
}

// Start returns the absolute start time.
func (p Program) Start() time.Time { return time.UnixMilli(p.StartMs) }

// End returns the absolute (exclusive) end time.
func (p Program) End() time.Time { return time.UnixMilli(p.EndMs) }

// Duration returns EndMs - StartMs as a time.Duration.
func (p Program) Duration() time.Duration {
	return time.Duration(p.EndMs-p.StartMs) * time.Millisecond
}

// Contains reports whether ms falls inside [StartMs, EndMs).
func (p Program) Contains(ms int64) bool {
	return ms >= p.StartMs && ms < p.EndMs
}

// Window is a contiguous run of programs covering [StartMs, EndMs).
// The first and last program may extend past either edge.
type Window struct {
	ChannelID string
	StartMs   int64
	EndMs     int64
	Programs  []Program
}

// At returns the program covering ms, if the window has one.
func (w Window) At(ms int64) (Program, bool) {
	lo, hi := 0, len(w.Programs)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		p := w.Programs[mid]
		switch {
		case ms < p.StartMs:
			hi = mid - 1
		case ms >= p.EndMs:
			lo = mid + 1
		default:
			return p, true
		}
	}
	return Program{}, false
}

// Current returns the program flagged on-air when the window was computed.
func (w Window) Current() (Program, bool) {
	for _, p := range w.Programs {
		if p.IsCurrent {
			return p, true
		}
	}
	return Program{}, false
}

// Empty reports whether the window holds no programs.
func (w Window) Empty() bool { return len(w.Programs) == 0 }
