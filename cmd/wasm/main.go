//go:build js && wasm

// ABOUTME: Browser build of wasmplay: fetches a WAV file and plays it through Web Audio
// ABOUTME: Decodes blocks, applies gain and keeps the scheduler a short lead ahead of the clock
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"syscall/js"
	"time"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
	"github.com/Resonate-Protocol/wasmplay/pkg/audio/source"
	"github.com/Resonate-Protocol/wasmplay/pkg/pcm"
	"github.com/Resonate-Protocol/wasmplay/pkg/pcm/webaudio"
)

const (
	blockSize     = 4 * 1024
	leadDuration  = 200 * time.Millisecond
	defaultSource = "test.wav"
)

func main() {
	if err := run(); err != nil {
		log.Printf("wasmplay: %v", err)
		showStatus("Error: " + err.Error())
	}
}

func run() error {
	params := js.Global().Get("URLSearchParams").New(js.Global().Get("location").Get("search"))

	audioURL, err := resolve(param(params, "audio", defaultSource))
	if err != nil {
		return err
	}

	gain := 1.0
	if v := param(params, "gain", ""); v != "" {
		gain, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid gain %q: %w", v, err)
		}
	}

	ctx, err := webaudio.New()
	if err != nil {
		return err
	}

	// Browsers start the context suspended until the page sees a gesture
	resume := js.FuncOf(func(this js.Value, args []js.Value) any {
		if ctx.State() != "suspended" {
			return nil
		}
		if err := ctx.Resume(); err != nil {
			log.Printf("Failed to resume audio: %v", err)
		}
		return nil
	})
	defer resume.Release()
	js.Global().Get("document").Call("addEventListener", "click", resume)

	showStatus("Fetching " + audioURL)
	src, err := source.NewHTTPSource(http.DefaultClient, audioURL)
	if err != nil {
		return err
	}
	defer src.Close()

	format := src.Format()
	title, _, _ := src.Metadata()
	log.Printf("Decoding %s: %s %dHz %dch %d-bit, context at %.0fHz",
		title, format.Codec, format.SampleRate, format.Channels, format.BitDepth, ctx.SampleRate())
	showStatus(playingStatus(title, ctx.State()))

	stream := source.NewResampled(src, pcm.SampleRate)
	scheduler := pcm.NewScheduler(ctx)
	lead := leadDuration.Seconds()

	// The clock stands still while suspended, so state changes are noticed
	// while waiting on the lead
	state := ctx.State()
	checkState := func() {
		if current := ctx.State(); current != state {
			state = current
			log.Printf("Audio context %s", state)
			showStatus(playingStatus(title, state))
		}
	}

	for {
		for scheduler.Lead() > lead {
			time.Sleep(leadDuration / 4)
			checkState()
		}

		block, err := source.ReadBlock(stream, blockSize)
		if block.Frames() > 0 {
			audio.Gain(block, float32(gain))
			if _, schedErr := scheduler.PlayNext(block.Left, block.Right); schedErr != nil {
				log.Printf("Dropped block: %v", schedErr)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", audioURL, err)
		}
	}

	// Drain before releasing the click handler
	for scheduler.Lead() > 0 {
		time.Sleep(leadDuration)
	}

	stats := scheduler.Stats()
	log.Printf("Playback complete: %d blocks, %d catch-ups, %.3fs skipped",
		stats.Scheduled, stats.CatchUps, stats.Skipped)
	showStatus(fmt.Sprintf("Finished %s", title))
	return nil
}

func playingStatus(title, state string) string {
	if state == "suspended" {
		return fmt.Sprintf("Ready: %s (click to start audio)", title)
	}
	return fmt.Sprintf("Playing %s (audio %s)", title, state)
}

// resolve makes ref absolute against the page URL; the fetch-backed HTTP
// client rejects relative URLs.
func resolve(ref string) (string, error) {
	base, err := url.Parse(js.Global().Get("location").Get("href").String())
	if err != nil {
		return "", fmt.Errorf("invalid page location: %w", err)
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid audio URL %q: %w", ref, err)
	}
	return base.ResolveReference(rel).String(), nil
}

func param(params js.Value, name, fallback string) string {
	v := params.Call("get", name)
	if v.IsNull() || v.String() == "" {
		return fallback
	}
	return v.String()
}

func showStatus(text string) {
	el := js.Global().Get("document").Call("getElementById", "status")
	if el.IsNull() {
		return
	}
	el.Set("textContent", text)
}
