// Package ui provides the Bubble Tea guide grid for channelguide.
package ui

import (
	"github.com/abelbrown/channelguide/internal/coord"
	"github.com/abelbrown/channelguide/internal/schedule"
)

// LineupLoaded is sent when the channel lineup is read from the catalog.
type LineupLoaded struct {
	Channels []coord.Channel
	Err      error
}

// ScheduleLoaded is sent by the coordinator for each delivered window.
type ScheduleLoaded struct {
	ChannelID string
	Window    schedule.Window
}

// RefreshDone is sent when a requested refresh resolves.
type RefreshDone struct {
	Reason coord.Reason
	Err    error
}

// TuneDone is sent when tuning to a channel finishes.
type TuneDone struct {
	ChannelID string
	Err       error
}

// ClockTick moves the "now" marker.
type ClockTick struct{}
