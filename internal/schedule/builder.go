package schedule

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// Index is the precomputed timeline for one channel. It is immutable once
// built; a content or mode change produces a new Index.
type Index struct {
	channelID   string
	generatedAt time.Time
	mode        PlaybackMode
	seed        int64
	totalMs     int64
	offsets     []int64
	items       []ContentItem
	fingerprint string
}

// ApplyMode orders items according to mode.
func ApplyMode(items []ContentItem, mode PlaybackMode, seed int64) ([]ContentItem, error) {
	switch mode {
	case Sequential:
		out := make([]ContentItem, len(items))
		copy(out, items)
		return out, nil
	case Shuffle:
		return ShuffleItems(items, seed), nil
	case Random:
		return nil, ErrRandomModeUnsupported
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
}

// Build orders cfg.Items and computes cumulative offsets for the loop.
func Build(cfg Config) (*Index, error) {
	if len(cfg.Items) == 0 {
		return nil, fmt.Errorf("channel %s: %w", cfg.ChannelID, ErrEmptyContent)
	}

	ordered, err := ApplyMode(cfg.Items, cfg.Mode, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("channel %s (%d items): %w", cfg.ChannelID, len(cfg.Items), err)
	}

	offsets := make([]int64, len(ordered))
	var total int64
	for i := range ordered {
		if ordered[i].DurationMs < 0 {
			return nil, fmt.Errorf("channel %s item %s: %w", cfg.ChannelID, ordered[i].ID, ErrInvalidDuration)
		}
		ordered[i].Position = i
		offsets[i] = total
		total += ordered[i].DurationMs
	}
	if total == 0 {
		return nil, fmt.Errorf("channel %s (%d items): %w", cfg.ChannelID, len(ordered), ErrZeroDuration)
	}

	return &Index{
		channelID:   cfg.ChannelID,
		generatedAt: time.Now(),
		mode:        cfg.Mode,
		seed:        cfg.Seed,
		totalMs:     total,
		offsets:     offsets,
		items:       ordered,
		fingerprint: fingerprint(cfg.ChannelID, ordered),
	}, nil
}

// fingerprint hashes the channel and its ordered (id, duration) pairs.
func fingerprint(channelID string, items []ContentItem) string {
	h := sha256.New()
	h.Write([]byte(channelID))
	var buf [8]byte
	for _, it := range items {
		h.Write([]byte{0})
		h.Write([]byte(it.ID))
		binary.BigEndian.PutUint64(buf[:], uint64(it.DurationMs))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil)[:12])
}

// ContentFingerprint hashes items in the order given, so callers can tell
// whether a content set changed before rebuilding.
func ContentFingerprint(channelID string, items []ContentItem) string {
	return fingerprint(channelID, items)
}

func (x *Index) ChannelID() string { return x.channelID }
func (x *Index) GeneratedAt() time.Time { return x.generatedAt }
func (x *Index) Mode() PlaybackMode { return x.mode }
func (x *Index) Seed() int64 { return x.seed }
func (x *Index) TotalLoopMs() int64 { return x.totalMs }
func (x *Index) Len() int { return len(x.items) }
func (x *Index) Fingerprint() string { return x.fingerprint }
func (x *Index) Item(i int) ContentItem { return x.items[i] }
func (x *Index) Offset(i int) int64 { return x.offsets[i] }

// LoopDuration returns the length of one full loop.
func (x *Index) LoopDuration() time.Duration {
	return time.Duration(x.totalMs) * time.Millisecond
}

// Items returns a copy of the post-ordering item list.
func (x *Index) Items() []ContentItem {
	out := make([]ContentItem, len(x.items))
	copy(out, x.items)
	return out
}

// Offsets returns a copy of the cumulative offset table.
func (x *Index) Offsets() []int64 {
	out := make([]int64, len(x.offsets))
	copy(out, x.offsets)
	return out
}
