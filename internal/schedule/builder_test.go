package schedule

import (
	"errors"
	"testing"
)

func checkIndexInvariants(t *testing.T, x *Index) {
	t.Helper()

	items := x.Items()
	offsets := x.Offsets()
	if len(items) != len(offsets) {
		t.Fatalf("items/offsets length mismatch: %d vs %d", len(items), len(offsets))
	}
	if offsets[0] != 0 {
		t.Errorf("offsets[0] = %d, want 0", offsets[0])
	}

	var sum int64
	for i, it := range items {
		sum += it.DurationMs
		if it.Position != i {
			t.Errorf("item %d has position %d", i, it.Position)
		}
		if i > 0 && offsets[i] < offsets[i-1] {
			t.Errorf("offsets decrease at %d: %d < %d", i, offsets[i], offsets[i-1])
		}
		end := offsets[i] + it.DurationMs
		if i < len(items)-1 && end != offsets[i+1] {
			t.Errorf("offset %d + duration = %d, want offsets[%d] = %d", i, end, i+1, offsets[i+1])
		}
		if i == len(items)-1 && end != x.TotalLoopMs() {
			t.Errorf("last offset + duration = %d, want total %d", end, x.TotalLoopMs())
		}
	}
	if sum != x.TotalLoopMs() {
		t.Errorf("sum of durations %d != total %d", sum, x.TotalLoopMs())
	}
}

func TestBuildSequential(t *testing.T) {
	x, err := Build(Config{ChannelID: "ch1", Items: makeItems(10, 20, 30), Mode: Sequential})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if x.TotalLoopMs() != 60 {
		t.Errorf("total = %d, want 60", x.TotalLoopMs())
	}
	want := []int64{0, 10, 30}
	for i, off := range x.Offsets() {
		if off != want[i] {
			t.Errorf("offset %d = %d, want %d", i, off, want[i])
		}
	}
	for i, it := range x.Items() {
		if it.Ordinal != i {
			t.Errorf("sequential order changed at %d: ordinal %d", i, it.Ordinal)
		}
	}
	if x.ChannelID() != "ch1" || x.Len() != 3 || x.Mode() != Sequential {
		t.Errorf("unexpected metadata: %s %d %s", x.ChannelID(), x.Len(), x.Mode())
	}
	if x.GeneratedAt().IsZero() {
		t.Error("GeneratedAt not set")
	}
	checkIndexInvariants(t, x)
}

func TestBuildShuffle(t *testing.T) {
	items := makeItems(5, 10, 15, 20, 25, 30, 35, 40)
	x, err := Build(Config{ChannelID: "ch1", Items: items, Mode: Shuffle, Seed: 42})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	checkIndexInvariants(t, x)

	perm := ShuffleIndices(len(items), 42)
	for i, it := range x.Items() {
		if it.ID != items[perm[i]].ID {
			t.Errorf("position %d: got %s, want %s", i, it.ID, items[perm[i]].ID)
		}
		if it.Ordinal != perm[i] {
			t.Errorf("position %d kept ordinal %d, want %d", i, it.Ordinal, perm[i])
		}
	}

	again, err := Build(Config{ChannelID: "ch1", Items: items, Mode: Shuffle, Seed: 42})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if again.Fingerprint() != x.Fingerprint() {
		t.Error("same seed produced a different fingerprint")
	}
}

func TestBuildDoesNotMutateConfigItems(t *testing.T) {
	items := makeItems(10, 20, 30)
	if _, err := Build(Config{ChannelID: "ch1", Items: items, Mode: Shuffle, Seed: 7}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i, it := range items {
		if it.Position != 0 || it.Ordinal != i {
			t.Errorf("input item %d modified: %+v", i, it)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"empty", Config{ChannelID: "ch"}, ErrEmptyContent},
		{"zero total", Config{ChannelID: "ch", Items: makeItems(0, 0, 0)}, ErrZeroDuration},
		{"negative", Config{ChannelID: "ch", Items: makeItems(10, -5)}, ErrInvalidDuration},
		{"random", Config{ChannelID: "ch", Items: makeItems(10), Mode: Random}, ErrRandomModeUnsupported},
		{"unknown mode", Config{ChannelID: "ch", Items: makeItems(10), Mode: PlaybackMode(9)}, ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := Build(tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if x != nil {
				t.Error("expected nil index on error")
			}
		})
	}
}

func TestApplyMode(t *testing.T) {
	items := makeItems(1, 2, 3)

	seq, err := ApplyMode(items, Sequential, 0)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	seq[0].ID = "changed"
	if items[0].ID == "changed" {
		t.Error("sequential mode aliased the input")
	}

	if _, err := ApplyMode(items, Random, 1); !errors.Is(err, ErrRandomModeUnsupported) {
		t.Errorf("random: got %v", err)
	}
}

func TestBuildZeroDurationItemsAllowed(t *testing.T) {
	x, err := Build(Config{ChannelID: "ch", Items: makeItems(10, 0, 20)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	checkIndexInvariants(t, x)

	// the empty span is never reported as airing
	p := x.programAt(0, 10, 0)
	if p.Item.ID != "item-2" {
		t.Errorf("got %s at t=10, want item-2", p.Item.ID)
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]PlaybackMode{
		"sequential": Sequential,
		"Shuffle":    Shuffle,
		" random ":   Random,
		"":           Sequential,
	}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
		if err == nil && in != "" && got.String() == "" {
			t.Errorf("empty String() for %v", got)
		}
	}
	if _, err := ParseMode("loop"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("ParseMode(loop) error = %v", err)
	}
}
