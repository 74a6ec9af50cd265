package coord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abelbrown/channelguide/internal/schedule"
)

var (
	// ErrClosed is returned to refresh callers still waiting when the
	// coordinator shuts down.
	ErrClosed = errors.New("coord: coordinator closed")

	// ErrInvalidRange is returned for a range with no channels or no time.
	ErrInvalidRange = errors.New("coord: invalid refresh range")
)

// ContentResolver supplies a channel's content. ctx is the abort signal for
// the refresh call that asked; implementations should return promptly once
// it is done.
type ContentResolver interface {
	ResolveChannelContent(ctx context.Context, channelID string) ([]schedule.ContentItem, error)
}

// LiveState is what the live-playback side reports about the airing channel.
type LiveState struct {
	Active    bool
	ChannelID string
}

// LivePlayback is the authority on what is actually airing on the tuned
// channel. Its window is shown instead of a rebuilt one.
type LivePlayback interface {
	State() LiveState
	ScheduleWindow(startMs, endMs int64) (schedule.Window, error)
}

// Display receives each delivered window.
type Display interface {
	LoadScheduleForChannel(channelID string, w schedule.Window)
}

// Channel is one row of the lineup with the settings needed to build its
// index. Mode must already be Sequential or Shuffle.
type Channel struct {
	ID       string
	Number   int
	Name     string
	Mode     schedule.PlaybackMode
	Seed     int64
	AnchorMs int64
}

// Range is the visible part of the guide: lineup rows
// [ChannelStart, ChannelEnd) and times [StartMs, EndMs).
type Range struct {
	ChannelStart int
	ChannelEnd   int
	StartMs      int64
	EndMs        int64
}

func (r Range) validate() error {
	if r.ChannelEnd < r.ChannelStart {
		return fmt.Errorf("%w: channels %d..%d", ErrInvalidRange, r.ChannelStart, r.ChannelEnd)
	}
	if r.EndMs <= r.StartMs {
		return fmt.Errorf("%w: times %d..%d", ErrInvalidRange, r.StartMs, r.EndMs)
	}
	return nil
}

// Reason says why a refresh was requested. Informational only.
type Reason string

const (
	ReasonInitial Reason = "initial"
	ReasonScroll  Reason = "scroll"
	ReasonFocus   Reason = "focus"
	ReasonFilter  Reason = "filter"
	ReasonResize  Reason = "resize"
	ReasonTune    Reason = "tune"
	ReasonTick    Reason = "tick"
	ReasonManual  Reason = "manual"
)

// ContentResolutionError wraps a resolver failure for one channel.
// The coordinator does not retry.
type ContentResolutionError struct {
	ChannelID string
	Err       error
}

func (e *ContentResolutionError) Error() string {
	return fmt.Sprintf("resolve content for %s: %v", e.ChannelID, e.Err)
}

func (e *ContentResolutionError) Unwrap() error { return e.Err }

// RunStats summarizes one refresh run.
type RunStats struct {
	RunID      string
	Generation uint64
	Reason     Reason
	Channels   int // channels in the prioritized list
	Delivered  int // rebuilt and delivered
	Reused     int // live window delivered as-is
	Failed     int
	Stale      int
	Superseded bool
	Started    time.Time
	Duration   time.Duration
}
