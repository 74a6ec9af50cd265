package schedule

import (
	"math"
	"time"
)

// nowMs is the wall clock used for Program.IsCurrent.
var nowMs = func() int64 { return time.Now().UnixMilli() }

// floorDiv divides rounding toward negative infinity. b must be > 0.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// floorMod returns a mod b in [0, b). b must be > 0.
func floorMod(a, b int64) int64 {
	return ((a % b) + b) % b
}

// maxOffsetMs bounds how far from the anchor a query may reach, about
// 285,000 years. Times beyond it are clamped so offset arithmetic stays
// inside int64.
const maxOffsetMs = int64(1) << 53

func satAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

// clampAt limits atMs to anchorMs ± maxOffsetMs.
func clampAt(anchorMs, atMs int64) int64 {
	lo, hi := satAdd(anchorMs, -maxOffsetMs), satAdd(anchorMs, maxOffsetMs)
	return max(lo, min(atMs, hi))
}

// search returns the largest i with offsets[i] <= pos.
// Closed interval, ceiling midpoint so lo always advances.
func (x *Index) search(pos int64) int {
	lo, hi := 0, len(x.offsets)-1
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if x.offsets[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// ProgramAt returns the program airing at atMs for a channel whose loop 0
// began at anchorMs. It never fails for an index produced by Build.
// Results are meaningful for realistic epoch-ms values; times further than
// maxOffsetMs from the anchor resolve as if at that limit.
func (x *Index) ProgramAt(anchorMs, atMs int64) Program {
	return x.programAt(anchorMs, atMs, nowMs())
}

func (x *Index) programAt(anchorMs, atMs, now int64) Program {
	elapsed := clampAt(anchorMs, atMs) - anchorMs
	loop := floorDiv(elapsed, x.totalMs)
	pos := floorMod(elapsed, x.totalMs)

	i := x.search(pos)
	item := x.items[i]
	offsetInItem := pos - x.offsets[i]

	start := anchorMs + loop*x.totalMs + x.offsets[i]
	end := start + item.DurationMs

	return Program{
		Item:        item,
		StartMs:     start,
		EndMs:       end,
		ElapsedMs:   offsetInItem,
		RemainingMs: item.DurationMs - offsetInItem,
		Position:    i,
		LoopNumber:  loop,
		IsCurrent:   now >= start && now < end,
	}
}

// Next returns the program immediately after p.
func (x *Index) Next(anchorMs int64, p Program) Program {
	return x.ProgramAt(anchorMs, p.EndMs)
}

// Previous returns the program immediately before p.
func (x *Index) Previous(anchorMs int64, p Program) Program {
	return x.ProgramAt(anchorMs, p.StartMs-1)
}

// Window returns the programs tiling [startMs, endMs) with no gaps.
func (x *Index) Window(anchorMs, startMs, endMs int64) Window {
	return x.window(anchorMs, startMs, endMs, nowMs())
}

func (x *Index) window(anchorMs, startMs, endMs, now int64) Window {
	startMs, endMs = clampAt(anchorMs, startMs), clampAt(anchorMs, endMs)
	w := Window{ChannelID: x.channelID, StartMs: startMs, EndMs: endMs}
	if endMs <= startMs {
		return w
	}

	p := x.programAt(anchorMs, startMs, now)
	w.Programs = append(w.Programs, p)
	for p.EndMs < endMs {
		p = x.programAt(anchorMs, p.EndMs, now)
		w.Programs = append(w.Programs, p)
	}
	return w
}
