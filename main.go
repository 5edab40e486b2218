// ABOUTME: Entry point for the wasmplay native player
// ABOUTME: Parses CLI flags, decodes the chosen source and schedules it to the speakers
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/wasmplay/internal/app"
	"github.com/Resonate-Protocol/wasmplay/internal/ui"
	"github.com/Resonate-Protocol/wasmplay/internal/version"
	"github.com/Resonate-Protocol/wasmplay/pkg/audio/output"
	"github.com/Resonate-Protocol/wasmplay/pkg/audio/source"
)

var (
	file       = flag.String("file", "", "Audio file or HTTP URL to play (WAV, MP3, FLAC). If not specified, plays a test tone")
	blockSize  = flag.Int("block", app.DefaultBlockSize, "Frames per scheduled block")
	leadMs     = flag.Int("lead-ms", app.DefaultLeadMs, "How far ahead of the output clock to schedule, in milliseconds")
	gain       = flag.Float64("gain", 1.0, "Linear gain applied to every block")
	volume     = flag.Int("volume", 100, "Initial output volume (0-100)")
	logFile    = flag.String("log-file", "wasmplay.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs = flag.Bool("stream-logs", false, "Alias for -no-tui")
)

func main() {
	flag.Parse()

	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	src, err := source.New(*file)
	if err != nil {
		log.Fatalf("Failed to open source: %v", err)
	}

	out := output.NewOto()
	player := app.New(app.Config{
		BlockSize: *blockSize,
		LeadMs:    *leadMs,
		Gain:      *gain,
		Volume:    *volume,
	}, src, out)

	// TUI setup
	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl

	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg = ui.Run(volumeCtrl, ui.Settings{Volume: *volume, Gain: *gain})
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	format := src.Format()
	title, artist, album := src.Metadata()
	updateTUI(ui.StatusMsg{
		State:      "playing",
		Codec:      format.Codec,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		BitDepth:   format.BitDepth,
		Title:      title,
		Artist:     artist,
		Album:      album,
		Source:     sourceName(*file),
		Volume:     *volume,
		Gain:       *gain,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if volumeCtrl != nil {
		go handleVolumeControl(ctx, player, volumeCtrl)
	}
	if tuiProg != nil {
		go statsUpdateLoop(ctx, player, updateTUI)
	}

	done := make(chan error, 1)
	go func() {
		done <- player.Run(ctx)
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit <-chan ui.QuitMsg
	if volumeCtrl != nil {
		quit = volumeCtrl.Quit
	}

	select {
	case err := <-done:
		if err != nil {
			log.Printf("Playback error: %v", err)
		}
		updateTUI(ui.StatusMsg{State: "finished"})
		if tuiProg == nil {
			break
		}
		// Leave the final stats on screen until the user quits
		select {
		case <-quit:
		case <-sigChan:
		}
	case <-quit:
		log.Printf("Received quit signal from TUI")
		cancel()
		waitPlayer(done)
	case <-sigChan:
		log.Printf("Shutdown signal received")
		cancel()
		waitPlayer(done)
	}

	if tuiProg != nil {
		tuiProg.Quit()
	}

	if err := player.Close(); err != nil {
		log.Printf("Error closing player: %v", err)
	}

	log.Printf("Player stopped")
}

func waitPlayer(done <-chan error) {
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Playback error: %v", err)
	}
}

func sourceName(file string) string {
	if file == "" {
		return "test tone (440 Hz)"
	}
	return file
}

// handleVolumeControl processes volume changes from TUI
func handleVolumeControl(ctx context.Context, player *app.Player, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			player.SetVolume(vol.Volume)
			player.SetMuted(vol.Muted)
		case <-ctx.Done():
			return
		}
	}
}

// statsUpdateLoop periodically updates TUI with scheduler statistics
func statsUpdateLoop(ctx context.Context, player *app.Player, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	// Use a slower ticker for expensive runtime stats to avoid GC pauses
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	var lastGoroutines int
	var lastMemAlloc uint64

	for {
		select {
		case <-ctx.Done():
			return

		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			lastGoroutines = runtime.NumGoroutine()
			lastMemAlloc = m.Alloc

		case <-ticker.C:
			stats := player.Stats()
			msg := ui.SchedulerStatus(stats.Stats, stats.Cursor, stats.Clock)
			msg.Goroutines = lastGoroutines
			msg.MemAlloc = lastMemAlloc
			updateTUI(msg)
		}
	}
}
