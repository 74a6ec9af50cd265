package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/channelguide/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders refresh stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Refresh Stats"))
	lines = append(lines, fmt.Sprintf("  Runs:       %d started, %d complete, %d superseded, %d failed",
		stats[otel.KindRefreshStart], stats[otel.KindRefreshComplete],
		stats[otel.KindRefreshSuperseded], stats[otel.KindRefreshFailed]))
	lines = append(lines, fmt.Sprintf("  Channels:   %d delivered, %d reused, %d stale",
		stats[otel.KindChannelDelivered], stats[otel.KindChannelReused], stats[otel.KindChannelStale]))
	lines = append(lines, fmt.Sprintf("  Errors:     %d content, %d build, %d invariant",
		stats[otel.KindContentError], stats[otel.KindBuildError], stats[otel.KindInvariant]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-22s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Channel != "" {
			line += "  " + truncateRunes(e.Channel, 16)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.RunID != "" {
			rid := e.RunID
			if len(rid) > 8 {
				rid = rid[:8]
			}
			line += fmt.Sprintf("  rid:%s", rid)
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	return StatusBar.Width(width).Render("  [DEBUG]  " + StatusBarText.Render("D:close"))
}
