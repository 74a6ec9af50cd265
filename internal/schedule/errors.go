package schedule

import "errors"

var (
	// ErrEmptyContent means there were no items to schedule.
	ErrEmptyContent = errors.New("schedule: no content items")

	// ErrZeroDuration means the loop would be 0ms long. Every modulo and
	// division in the query path depends on a positive loop length.
	ErrZeroDuration = errors.New("schedule: total loop duration is zero")

	// ErrInvalidDuration means an item had a negative duration.
	ErrInvalidDuration = errors.New("schedule: negative item duration")

	// ErrRandomModeUnsupported is returned for Random. Resolve a seed and
	// submit Shuffle instead.
	ErrRandomModeUnsupported = errors.New("schedule: random mode must be resolved to shuffle by the caller")

	// ErrUnknownMode is returned for a PlaybackMode outside the known set.
	ErrUnknownMode = errors.New("schedule: unknown playback mode")
)
