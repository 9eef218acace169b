// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the hotspot player
package ui

import (
	"github.com/Sonicmapper/sonicmapper-go/internal/project"
	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a new TUI model
func NewModel(p project.Project, controls Controls, volume int) Model {
	return Model{
		project:  p,
		controls: controls,
		volume:   clampVolume(volume),
	}
}

// Run creates the TUI program. Focus reporting lets the player release the
// output device when the terminal loses focus.
func Run(p project.Project, controls Controls, volume int) *tea.Program {
	return tea.NewProgram(NewModel(p, controls, volume), tea.WithAltScreen(), tea.WithReportFocus())
}
