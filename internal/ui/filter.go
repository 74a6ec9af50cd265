package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/channelguide/internal/coord"
)

// channelFilter is the "/" box that narrows the lineup shown in the guide.
type channelFilter struct {
	input  textinput.Model
	active bool
}

func newChannelFilter() channelFilter {
	ti := textinput.New()
	ti.Placeholder = "name or number"
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#c9d1d9"))
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff"))
	ti.CharLimit = 32
	return channelFilter{input: ti}
}

func (f *channelFilter) activate() tea.Cmd {
	f.active = true
	f.input.Focus()
	return textinput.Blink
}

func (f *channelFilter) deactivate() {
	f.active = false
	f.input.Blur()
}

func (f *channelFilter) clear() {
	f.input.SetValue("")
	f.deactivate()
}

func (f channelFilter) query() string {
	return strings.TrimSpace(f.input.Value())
}

// matchChannels returns the channels whose name contains q
// (case-insensitive) or whose number starts with q. Order is preserved.
func matchChannels(all []coord.Channel, q string) []coord.Channel {
	if q == "" {
		return all
	}
	q = strings.ToLower(q)
	var out []coord.Channel
	for _, ch := range all {
		if strings.Contains(strings.ToLower(ch.Name), q) ||
			strings.HasPrefix(strconv.Itoa(ch.Number), q) {
			out = append(out, ch)
		}
	}
	return out
}
