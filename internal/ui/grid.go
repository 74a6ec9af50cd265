package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abelbrown/channelguide/internal/coord"
	"github.com/abelbrown/channelguide/internal/schedule"
)

// labelWidth is the channel column, including the live marker.
const labelWidth = 20

// minGridWidth keeps narrow terminals renderable.
const minGridWidth = 10

// gridView is everything renderGrid needs. Built fresh for each View call.
type gridView struct {
	Channels []coord.Channel
	Windows  map[string]schedule.Window
	Top      int
	Rows     int
	Cursor   int
	StartMs  int64
	Span     time.Duration
	Slot     time.Duration
	LiveID   string
	NowMs    int64
	Width    int
	Loc      *time.Location
}

// cell is a program's horizontal extent in grid columns [x0, x1).
type cell struct {
	x0, x1 int
	p      schedule.Program
}

// layoutCells maps programs onto gridWidth columns spanning [startMs, endMs).
// Programs too short to own a column are dropped.
func layoutCells(w schedule.Window, startMs, endMs int64, gridWidth int) []cell {
	span := endMs - startMs
	if span <= 0 || gridWidth <= 0 {
		return nil
	}
	col := func(ms int64) int {
		return int((ms - startMs) * int64(gridWidth) / span)
	}

	var cells []cell
	for _, p := range w.Programs {
		s := max(p.StartMs, startMs)
		e := min(p.EndMs, endMs)
		if e <= s {
			continue
		}
		x0, x1 := col(s), col(e)
		if x1 <= x0 {
			continue
		}
		cells = append(cells, cell{x0: x0, x1: x1, p: p})
	}
	return cells
}

func gridWidth(total int) int {
	return max(total-labelWidth, minGridWidth)
}

// renderGrid draws the header and v.Rows channel rows starting at v.Top.
func renderGrid(v gridView) string {
	if len(v.Channels) == 0 {
		return HelpStyle.Render("No channels. Load a lineup with `guidectl lineup load <file>`.")
	}

	gw := gridWidth(v.Width)
	endMs := v.StartMs + v.Span.Milliseconds()

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelWidth))
	b.WriteString(SlotHeader.Render(renderHeader(v, gw)))
	b.WriteString("\n")

	last := min(v.Top+v.Rows, len(v.Channels))
	for i := v.Top; i < last; i++ {
		ch := v.Channels[i]
		b.WriteString(renderLabel(ch, i == v.Cursor, ch.ID == v.LiveID))

		w, ok := v.Windows[ch.ID]
		if !ok {
			b.WriteString(PendingCell.Render(padRight(" loading…", gw)))
		} else {
			b.WriteString(renderCells(layoutCells(w, v.StartMs, endMs, gw), gw, v.NowMs))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderHeader places a clock label at the start of every slot.
func renderHeader(v gridView, gw int) string {
	row := []rune(strings.Repeat(" ", gw))
	span := v.Span.Milliseconds()
	slot := v.Slot.Milliseconds()
	if span <= 0 || slot <= 0 {
		return string(row)
	}
	loc := v.Loc
	if loc == nil {
		loc = time.Local
	}
	for off := int64(0); off < span; off += slot {
		x := int(off * int64(gw) / span)
		label := time.UnixMilli(v.StartMs + off).In(loc).Format("15:04")
		for j, r := range label {
			if x+j < gw {
				row[x+j] = r
			}
		}
	}
	return string(row)
}

func renderLabel(ch coord.Channel, focused, live bool) string {
	marker := "  "
	if live {
		marker = LiveMarker.Render("▶ ")
	}
	name := ch.Name
	if name == "" {
		name = ch.ID
	}
	text := padRight(truncateRunes(fmt.Sprintf("%3d %s", ch.Number, name), labelWidth-3), labelWidth-2)
	if focused {
		return marker + FocusedChannelLabel.Render(text)
	}
	return marker + ChannelLabel.Render(text)
}

func renderCells(cells []cell, gw int, nowMs int64) string {
	var b strings.Builder
	x := 0
	for _, c := range cells {
		if c.x0 > x {
			b.WriteString(strings.Repeat(" ", c.x0-x))
		}
		width := c.x1 - c.x0
		title := c.p.Item.Title
		if title == "" {
			title = c.p.Item.ID
		}
		text := padRight("│"+truncateRunes(title, width-1), width)

		style := ProgramCell
		if c.p.Contains(nowMs) {
			style = OnAirCell
		}
		b.WriteString(style.Render(text))
		x = c.x1
	}
	if x < gw {
		b.WriteString(strings.Repeat(" ", gw-x))
	}
	return b.String()
}

// truncateRunes shortens s to at most n runes, ending in an ellipsis when cut.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}

func padRight(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}
