// ABOUTME: Bubbletea model for the hotspot player TUI
// ABOUTME: Selection, playback keys, highlight timing and focus handling
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/internal/project"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HighlightDuration is how long a played hotspot stays highlighted
const HighlightDuration = 350 * time.Millisecond

const (
	mapWidth  = 50
	mapHeight = 12
	boxWidth  = 54
)

var (
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	unmappedStyle = lipgloss.NewStyle().Faint(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// Controls is what the TUI drives. The playback engine satisfies it.
type Controls interface {
	Play(encoded string)
	Suspend() error
	SetVolume(volume int)
	SetMuted(muted bool)
}

// Model represents the TUI state
type Model struct {
	project  project.Project
	controls Controls

	selected  int
	active    string
	activeSeq int

	volume int
	muted  bool
	status string

	width  int
	height int
}

// highlightDoneMsg ends the highlight started by play number seq
type highlightDoneMsg struct {
	seq int
}

// ErrorMsg reports a playback failure to the TUI
type ErrorMsg struct {
	Err error
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.BlurMsg:
		if err := m.controls.Suspend(); err != nil {
			m.status = err.Error()
		} else {
			m.status = "Paused output (window lost focus)"
		}
	case tea.FocusMsg:
		m.status = ""
	case highlightDoneMsg:
		if msg.seq == m.activeSeq {
			m.active = ""
		}
	case ErrorMsg:
		m.status = fmt.Sprintf("Playback failed: %v", msg.Err)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderMap())
	b.WriteString(m.renderHotspots())
	b.WriteString(m.renderControls())
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderHeader renders the instrument name
func (m Model) renderHeader() string {
	title := "─ SonicMapper Player "
	return fmt.Sprintf("┌%s%s┐\n│ %s │\n├%s┤\n",
		title, strings.Repeat("─", boxWidth-len([]rune(title))),
		pad(truncate(m.project.Name, boxWidth-2), boxWidth-2),
		strings.Repeat("─", boxWidth))
}

// renderMap places hotspot numbers at their image positions
func (m Model) renderMap() string {
	grid := make([][]rune, mapHeight)
	for row := range grid {
		grid[row] = []rune(strings.Repeat("·", mapWidth))
	}

	for i, h := range m.project.Hotspots {
		col := clampIndex(int(h.X/100*mapWidth), mapWidth)
		row := clampIndex(int(h.Y/100*mapHeight), mapHeight)
		mark := hotspotMark(i)
		if h.ID == m.active {
			mark = '●'
		}
		grid[row][col] = mark
	}

	var b strings.Builder
	for _, row := range grid {
		b.WriteString("│  ")
		b.WriteString(string(row))
		b.WriteString("  │\n")
	}
	b.WriteString("├" + strings.Repeat("─", boxWidth) + "┤\n")
	return b.String()
}

// renderHotspots renders the selectable hotspot list
func (m Model) renderHotspots() string {
	if len(m.project.Hotspots) == 0 {
		return "│ " + pad("No hotspots on this instrument", boxWidth-2) + " │\n"
	}

	var b strings.Builder
	for i, h := range m.project.Hotspots {
		cursor := " "
		if i == m.selected {
			cursor = "›"
		}
		note := "♪"
		if !h.Mapped() {
			note = "–"
		}
		if h.ID == m.active {
			note = "▶"
		}
		line := pad(truncate(fmt.Sprintf("%s %c %s %s", cursor, hotspotMark(i), note, h.Label), boxWidth-2), boxWidth-2)

		// Style after padding so escape codes do not skew the width
		switch {
		case h.ID == m.active:
			line = activeStyle.Render(line)
		case i == m.selected:
			line = selectedStyle.Render(line)
		case !h.Mapped():
			line = unmappedStyle.Render(line)
		}
		b.WriteString("│ " + line + " │\n")
	}
	return b.String()
}

// renderControls renders volume and the latest status
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}
	volume := fmt.Sprintf("Volume: [%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon)

	return "├" + strings.Repeat("─", boxWidth) + "┤\n" +
		"│ " + pad(volume, boxWidth-2) + " │\n" +
		"│ " + pad(truncate(m.status, boxWidth-2), boxWidth-2) + " │\n"
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return "│ " + helpStyle.Render(pad("↑/↓:Select  enter:Play  1-9:Play  +/-:Vol  m:Mute  q:Quit", boxWidth-2)) + " │\n" +
		"└" + strings.Repeat("─", boxWidth) + "┘\n"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.project.Hotspots)-1 {
			m.selected++
		}
	case "enter", " ":
		return m.play(m.selected)
	case "+", "=":
		m.volume = clampVolume(m.volume + 5)
		m.controls.SetVolume(m.volume)
	case "-":
		m.volume = clampVolume(m.volume - 5)
		m.controls.SetVolume(m.volume)
	case "m":
		m.muted = !m.muted
		m.controls.SetMuted(m.muted)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			idx := int(key[0] - '1')
			if idx < len(m.project.Hotspots) {
				m.selected = idx
				return m.play(idx)
			}
		}
	}

	return m, nil
}

// play sounds hotspot idx and highlights it. Overlapping plays are allowed;
// only the most recent highlight is cleared by its own timer.
func (m Model) play(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(m.project.Hotspots) {
		return m, nil
	}
	h := m.project.Hotspots[idx]

	m.controls.Play(h.AudioData)
	if !h.Mapped() {
		m.status = fmt.Sprintf("%s has no note yet", h.Label)
	} else {
		m.status = ""
	}

	m.active = h.ID
	m.activeSeq++
	seq := m.activeSeq
	return m, tea.Tick(HighlightDuration, func(time.Time) tea.Msg {
		return highlightDoneMsg{seq: seq}
	})
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}

func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// hotspotMark labels hotspots 1-9, then a-z
func hotspotMark(i int) rune {
	switch {
	case i < 9:
		return rune('1' + i)
	case i < 9+26:
		return rune('a' + i - 9)
	}
	return '*'
}
