// ABOUTME: Player TUI setup from the initial playback settings
// ABOUTME: Builds the model, the control channels and scheduler status messages
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/wasmplay/pkg/pcm"
)

// VolumeControl carries user input from the TUI back to the player
type VolumeControl struct {
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// Settings are the playback controls the player starts with.
// Zero values mean full volume and unity gain, as in app.Config.
type Settings struct {
	Volume int
	Gain   float64
	Muted  bool
}

func (s Settings) normalized() Settings {
	switch {
	case s.Volume == 0:
		s.Volume = 100
	case s.Volume < 0:
		s.Volume = 0
	case s.Volume > 100:
		s.Volume = 100
	}
	if s.Gain <= 0 {
		s.Gain = 1.0
	}
	return s
}

// NewModel creates an idle model showing settings
func NewModel(volCtrl *VolumeControl, settings Settings) Model {
	settings = settings.normalized()
	return Model{
		volume:     settings.Volume,
		muted:      settings.Muted,
		gain:       settings.Gain,
		state:      "idle",
		volumeCtrl: volCtrl,
	}
}

// Run creates the TUI program. The caller starts it.
func Run(volCtrl *VolumeControl, settings Settings) *tea.Program {
	return tea.NewProgram(NewModel(volCtrl, settings), tea.WithAltScreen())
}

// SchedulerStatus builds the periodic stats message from a scheduler
// snapshot. Lead is zero once the clock has passed the cursor.
func SchedulerStatus(stats pcm.Stats, cursor, clock float64) StatusMsg {
	lead := cursor - clock
	if lead < 0 {
		lead = 0
	}
	return StatusMsg{
		Stats:     true,
		Cursor:    cursor,
		Clock:     clock,
		Lead:      lead,
		Scheduled: stats.Scheduled,
		CatchUps:  stats.CatchUps,
		Skipped:   stats.Skipped,
	}
}
