package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/channelguide/internal/schedule"
)

// sender is the part of *tea.Program the display needs.
type sender interface {
	Send(msg tea.Msg)
}

// ProgramDisplay forwards delivered windows into a running Bubble Tea
// program as ScheduleLoaded messages.
type ProgramDisplay struct {
	program sender
}

// NewProgramDisplay creates a display bound to p.
func NewProgramDisplay(p *tea.Program) *ProgramDisplay {
	return &ProgramDisplay{program: p}
}

// LoadScheduleForChannel implements coord.Display.
func (d *ProgramDisplay) LoadScheduleForChannel(channelID string, w schedule.Window) {
	if d == nil || d.program == nil {
		return
	}
	d.program.Send(ScheduleLoaded{ChannelID: channelID, Window: w})
}
