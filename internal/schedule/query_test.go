package schedule

import (
	"math"
	"sync"
	"testing"
)

func mustBuild(t *testing.T, cfg Config) *Index {
	t.Helper()
	x, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return x
}

func TestProgramAtScenario(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(10, 20, 30)})

	p := x.programAt(0, 5, 0)
	if p.Item.ID != "item-0" || p.ElapsedMs != 5 || p.RemainingMs != 5 {
		t.Errorf("t=5: got %+v", p)
	}
	if p.StartMs != 0 || p.EndMs != 10 || p.LoopNumber != 0 {
		t.Errorf("t=5: bounds %d..%d loop %d", p.StartMs, p.EndMs, p.LoopNumber)
	}

	p = x.programAt(0, 65, 0)
	if p.Item.ID != "item-0" || p.LoopNumber != 1 || p.StartMs != 60 || p.ElapsedMs != 5 {
		t.Errorf("t=65: got %+v", p)
	}
}

func TestProgramAtBoundaries(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(10, 20, 30)})

	tests := []struct {
		at    int64
		id    string
		start int64
		loop  int64
	}{
		{0, "item-0", 0, 0},
		{9, "item-0", 0, 0},
		{10, "item-1", 10, 0},
		{29, "item-1", 10, 0},
		{30, "item-2", 30, 0},
		{59, "item-2", 30, 0},
		{60, "item-0", 60, 1},
		{-1, "item-2", -30, -1},
		{-30, "item-2", -30, -1},
		{-31, "item-1", -50, -1},
		{-60, "item-0", -60, -1},
		{-61, "item-2", -90, -2},
	}

	for _, tt := range tests {
		p := x.programAt(0, tt.at, 0)
		if p.Item.ID != tt.id || p.StartMs != tt.start || p.LoopNumber != tt.loop {
			t.Errorf("t=%d: got %s start=%d loop=%d, want %s start=%d loop=%d",
				tt.at, p.Item.ID, p.StartMs, p.LoopNumber, tt.id, tt.start, tt.loop)
		}
		if !p.Contains(tt.at) {
			t.Errorf("t=%d: program %d..%d does not contain query", tt.at, p.StartMs, p.EndMs)
		}
		if p.ElapsedMs+p.RemainingMs != p.Item.DurationMs {
			t.Errorf("t=%d: elapsed+remaining = %d", tt.at, p.ElapsedMs+p.RemainingMs)
		}
	}
}

func TestProgramAtNonZeroAnchor(t *testing.T) {
	const anchor = int64(1_700_000_000_000)
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(1000, 2000, 3000), AnchorMs: anchor})

	p := x.programAt(anchor, anchor+2500, 0)
	if p.Item.ID != "item-1" || p.StartMs != anchor+1000 || p.ElapsedMs != 1500 {
		t.Errorf("got %+v", p)
	}
}

func TestLoopPeriodicity(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(7, 13, 1, 29, 50), Mode: Shuffle, Seed: 3})
	total := x.TotalLoopMs()
	const anchor = int64(12345)

	for at := anchor - 200; at < anchor+200; at += 3 {
		base := x.programAt(anchor, at, 0)
		for _, k := range []int64{-5, -1, 1, 2, 1000} {
			p := x.programAt(anchor, at+k*total, 0)
			if p.Item.ID != base.Item.ID {
				t.Fatalf("t=%d k=%d: item %s, want %s", at, k, p.Item.ID, base.Item.ID)
			}
			if p.StartMs != base.StartMs+k*total || p.EndMs != base.EndMs+k*total {
				t.Fatalf("t=%d k=%d: bounds not shifted by k*total", at, k)
			}
			if p.LoopNumber != base.LoopNumber+k {
				t.Fatalf("t=%d k=%d: loop %d, want %d", at, k, p.LoopNumber, base.LoopNumber+k)
			}
		}
	}
}

func TestNextAndPrevious(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(1, 20, 1, 30)})

	p := x.ProgramAt(0, -100)
	for i := 0; i < 50; i++ {
		n := x.Next(0, p)
		if n.StartMs != p.EndMs {
			t.Fatalf("step %d: next starts at %d, want %d", i, n.StartMs, p.EndMs)
		}
		back := x.Previous(0, n)
		if back.StartMs != p.StartMs || back.Item.ID != p.Item.ID {
			t.Fatalf("step %d: previous(next(p)) = %s@%d, want %s@%d",
				i, back.Item.ID, back.StartMs, p.Item.ID, p.StartMs)
		}
		p = n
	}
}

func TestIsCurrent(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(10, 20, 30)})

	if p := x.programAt(0, 15, 12); !p.IsCurrent {
		t.Error("expected program covering now to be current")
	}
	if p := x.programAt(0, 15, 30); p.IsCurrent {
		t.Error("end is exclusive; program should not be current")
	}
	if p := x.programAt(0, 75, 12); p.IsCurrent {
		t.Error("same item in the next loop is not current")
	}
}

func TestWindowTiles(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(10, 20, 30, 5), Mode: Shuffle, Seed: 11})

	ranges := [][2]int64{{0, 60}, {3, 4}, {-95, 250}, {59, 61}, {1000, 1065}}
	for _, r := range ranges {
		w := x.window(0, r[0], r[1], 0)
		if w.ChannelID != "ch" || w.StartMs != r[0] || w.EndMs != r[1] {
			t.Errorf("%v: window metadata %+v", r, w)
		}
		if len(w.Programs) == 0 {
			t.Fatalf("%v: empty window", r)
		}
		if !w.Programs[0].Contains(r[0]) {
			t.Errorf("%v: first program does not contain start", r)
		}
		if !w.Programs[len(w.Programs)-1].Contains(r[1] - 1) {
			t.Errorf("%v: last program does not contain end-1", r)
		}
		for i := 1; i < len(w.Programs); i++ {
			if w.Programs[i-1].EndMs != w.Programs[i].StartMs {
				t.Errorf("%v: gap/overlap between %d and %d", r, i-1, i)
			}
		}
	}
}

func TestWindowEmptyRange(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(10)})
	if w := x.Window(0, 50, 50); !w.Empty() {
		t.Errorf("expected empty window, got %d programs", len(w.Programs))
	}
	if w := x.Window(0, 50, 10); !w.Empty() {
		t.Errorf("expected empty window for inverted range")
	}
}

func TestWindowAtAndCurrent(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(10, 20, 30)})
	w := x.window(0, 0, 120, 35)

	p, ok := w.At(65)
	if !ok || p.Item.ID != "item-0" || p.StartMs != 60 {
		t.Errorf("At(65) = %+v, %v", p, ok)
	}
	if _, ok := w.At(500); ok {
		t.Error("At outside the window should report false")
	}

	cur, ok := w.Current()
	if !ok || cur.Item.ID != "item-2" || cur.StartMs != 30 {
		t.Errorf("Current() = %+v, %v", cur, ok)
	}
}

func TestConcurrentQueries(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(10, 20, 30, 40), Mode: Shuffle, Seed: 5})
	want := x.programAt(0, 12345, 0).Item.ID

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if got := x.programAt(0, 12345, 0).Item.ID; got != want {
					t.Errorf("concurrent query returned %s, want %s", got, want)
					return
				}
				_ = x.window(0, int64(i), int64(i)+300, 0)
			}
		}()
	}
	wg.Wait()
}

func TestFloorHelpers(t *testing.T) {
	tests := []struct{ a, b, div, mod int64 }{
		{5, 60, 0, 5},
		{65, 60, 1, 5},
		{-1, 60, -1, 59},
		{-60, 60, -1, 0},
		{-61, 60, -2, 59},
		{0, 60, 0, 0},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.div {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.div)
		}
		if got := floorMod(tt.a, tt.b); got != tt.mod {
			t.Errorf("floorMod(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.mod)
		}
	}
}

func TestProgramAtExtremeTimesClamp(t *testing.T) {
	x := mustBuild(t, Config{ChannelID: "ch", Items: makeItems(10, 20, 30)})
	const anchor = 1_700_000_000_000

	tests := []struct {
		at, want int64
	}{
		{math.MaxInt64, anchor + maxOffsetMs},
		{math.MinInt64, anchor - maxOffsetMs},
	}
	for _, tt := range tests {
		got := x.programAt(anchor, tt.at, 0)
		want := x.programAt(anchor, tt.want, 0)
		if got != want {
			t.Errorf("at=%d: got %+v, want %+v", tt.at, got, want)
		}
		if got.StartMs > got.EndMs || got.ElapsedMs < 0 || got.RemainingMs <= 0 {
			t.Errorf("at=%d: inconsistent program %+v", tt.at, got)
		}
	}

	w := x.window(anchor, math.MaxInt64-100, math.MaxInt64, 0)
	if len(w.Programs) != 0 {
		t.Errorf("window past the limit should be empty, got %d programs", len(w.Programs))
	}
}
