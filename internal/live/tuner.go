// Package live tracks what the tuned channel is airing. It does not play
// media; it keeps the index the player would follow so the guide can show
// exactly that schedule for the live channel.
package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abelbrown/channelguide/internal/coord"
	"github.com/abelbrown/channelguide/internal/logging"
	"github.com/abelbrown/channelguide/internal/schedule"
)

// ErrNotTuned is returned when no channel is tuned.
var ErrNotTuned = errors.New("live: no channel tuned")

// Tuner holds the live channel's index. Safe for concurrent use.
type Tuner struct {
	mu        sync.RWMutex
	channelID string
	idx       *schedule.Index
	anchorMs  int64
	tunedAt   time.Time
}

// NewTuner creates an idle Tuner.
func NewTuner() *Tuner {
	return &Tuner{}
}

// Tune makes idx the live schedule for channelID.
func (t *Tuner) Tune(channelID string, idx *schedule.Index, anchorMs int64) error {
	if idx == nil {
		return fmt.Errorf("tune %s: nil index", channelID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.channelID = channelID
	t.idx = idx
	t.anchorMs = anchorMs
	t.tunedAt = time.Now()
	logging.Info("tuned", "channel", channelID, "items", idx.Len(), "loop", idx.LoopDuration())
	return nil
}

// TuneTo resolves content for ch, builds its index and tunes to it.
func (t *Tuner) TuneTo(ctx context.Context, res coord.ContentResolver, ch coord.Channel) error {
	items, err := res.ResolveChannelContent(ctx, ch.ID)
	if err != nil {
		return &coord.ContentResolutionError{ChannelID: ch.ID, Err: err}
	}
	idx, err := schedule.Build(schedule.Config{
		ChannelID: ch.ID,
		Items:     items,
		Mode:      ch.Mode,
		Seed:      ch.Seed,
		AnchorMs:  ch.AnchorMs,
	})
	if err != nil {
		return err
	}
	return t.Tune(ch.ID, idx, ch.AnchorMs)
}

// Stop clears the live channel.
func (t *Tuner) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.channelID != "" {
		logging.Info("tuner stopped", "channel", t.channelID, "after", time.Since(t.tunedAt).Round(time.Second))
	}
	t.channelID = ""
	t.idx = nil
}

// State reports the live channel.
func (t *Tuner) State() coord.LiveState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return coord.LiveState{Active: t.idx != nil, ChannelID: t.channelID}
}

// ScheduleWindow returns the live channel's programs over [startMs, endMs).
func (t *Tuner) ScheduleWindow(startMs, endMs int64) (schedule.Window, error) {
	t.mu.RLock()
	idx, anchor := t.idx, t.anchorMs
	t.mu.RUnlock()
	if idx == nil {
		return schedule.Window{}, ErrNotTuned
	}
	return idx.Window(anchor, startMs, endMs), nil
}

// NowPlaying returns the program airing on the live channel.
func (t *Tuner) NowPlaying() (schedule.Program, error) {
	t.mu.RLock()
	idx, anchor := t.idx, t.anchorMs
	t.mu.RUnlock()
	if idx == nil {
		return schedule.Program{}, ErrNotTuned
	}
	return idx.ProgramAt(anchor, time.Now().UnixMilli()), nil
}
