// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Shows track, format, playback cursor and scheduler stats
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Track
	title  string
	artist string
	album  string
	source string

	// Format
	codec      string
	sampleRate int
	channels   int
	bitDepth   int

	// Playback
	state  string
	volume int
	muted  bool
	gain   float64

	// Scheduler
	cursor    float64
	clock     float64
	lead      float64
	scheduled int64
	catchUps  int64
	skipped   float64

	// Debug
	showDebug  bool
	goroutines int
	memAlloc   uint64

	volumeCtrl *VolumeControl

	// Dimensions
	width  int
	height int
}

// VolumeChangeMsg is sent when the user changes volume or mute
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg is sent when the user quits
type QuitMsg struct{}

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
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTrackInfo()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders playback state
func (m Model) renderHeader() string {
	icon := "■"
	switch m.state {
	case "playing":
		icon = "▶"
	case "finished":
		icon = "✓"
	}

	return fmt.Sprintf(`┌─ wasmplay ───────────────────────────────────────────┐
│ Status: %s %-43s │
├──────────────────────────────────────────────────────┤
`, icon, m.state)
}

// renderTrackInfo renders current source and format
func (m Model) renderTrackInfo() string {
	if m.codec == "" {
		return "│ No source                                            │\n"
	}

	s := "│ Now Playing:                                         │\n"
	if m.title != "" {
		s += fmt.Sprintf("│   Track:  %-42s │\n", truncate(m.title, 42))
		s += fmt.Sprintf("│   Artist: %-42s │\n", truncate(m.artist, 42))
		s += fmt.Sprintf("│   Album:  %-42s │\n", truncate(m.album, 42))
	} else {
		s += "│   (No metadata)                                      │\n"
	}
	if m.source != "" {
		s += fmt.Sprintf("│   Source: %-42s │\n", truncate(m.source, 42))
	}

	s += "│                                                      │\n"
	s += fmt.Sprintf("│ Format: %-44s │\n",
		fmt.Sprintf("%s %dHz %s %d-bit", m.codec, m.sampleRate, channelName(m.channels), m.bitDepth))

	return s
}

// renderControls renders volume and gain
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-17s │\n"+
		"│ Gain:   %-44s │\n",
		volumeBar, m.volume, muteIcon, "",
		fmt.Sprintf("%.2fx", m.gain))
}

// renderStats renders scheduler statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Cursor: %-44s │
│ Blocks: %-44s │
│                                                      │
`,
		fmt.Sprintf("%.3fs  Clock: %.3fs  Lead: %+.0fms", m.cursor, m.clock, m.lead*1000),
		fmt.Sprintf("%d  Catch-ups: %d  Skipped: %.3fs", m.scheduled, m.catchUps, m.skipped))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  d:Debug  q:Quit                  │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Goroutines: %-38d │
│   Heap:       %-38s │
`, m.goroutines, fmt.Sprintf("%.1f MB", float64(m.memAlloc)/1024/1024))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		if m.volume < 100 {
			m.volume += 5
			if m.volume > 100 {
				m.volume = 100
			}
			m.sendVolume()
		}
	case "down":
		if m.volume > 0 {
			m.volume -= 5
			if m.volume < 0 {
				m.volume = 0
			}
			m.sendVolume()
		}
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// sendVolume notifies the player of a volume change without blocking the UI
func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.Title != "" {
		m.title = msg.Title
		m.artist = msg.Artist
		m.album = msg.Album
	}
	if msg.Source != "" {
		m.source = msg.Source
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
	if msg.Gain != 0 {
		m.gain = msg.Gain
	}
	if msg.Stats {
		m.cursor = msg.Cursor
		m.clock = msg.Clock
		m.lead = msg.Lead
		m.scheduled = msg.Scheduled
		m.catchUps = msg.CatchUps
		m.skipped = msg.Skipped
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
	}
}

// StatusMsg updates TUI state. Zero values leave fields unchanged, except
// for scheduler stats which are applied whenever Stats is set.
type StatusMsg struct {
	State      string
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Title      string
	Artist     string
	Album      string
	Source     string
	Volume     int
	Gain       float64

	Stats     bool
	Cursor    float64
	Clock     float64
	Lead      float64
	Scheduled int64
	CatchUps  int64
	Skipped   float64

	Goroutines int
	MemAlloc   uint64
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
