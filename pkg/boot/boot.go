// ABOUTME: One-shot WebAssembly bootstrap sequence
// ABOUTME: Fetches a module, instantiates it against a bridge and hands it control
package boot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
)

// DefaultPath is the well-known location of the module
const DefaultPath = "main.wasm"

// Fetcher retrieves a binary payload
type Fetcher interface {
	Fetch(ctx context.Context, path string) (io.ReadCloser, error)
}

// Bridge compiles modules against its import table and runs them
type Bridge interface {
	// Instantiate compiles and links code. It must not run the entry point.
	Instantiate(ctx context.Context, code []byte) (Instance, error)
	// Run transfers control to the instance's entry point and blocks until
	// the module exits.
	Run(ctx context.Context, inst Instance) error
}

// Instance is an instantiated module
type Instance interface {
	Close(ctx context.Context) error
}

// ExitError reports a module that exited with a non-zero status
type ExitError struct {
	Code uint32
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("module exited with code %d", e.Code)
}

var errAlreadyRun = errors.New("bootstrap already ran")

// Loader runs fetch, read, instantiate and run once each, in order.
// Any failure stops the sequence; nothing is retried.
type Loader struct {
	Fetcher Fetcher
	Bridge  Bridge
	Path    string

	started atomic.Bool
}

// Run performs the bootstrap. It may be called once per Loader.
func (l *Loader) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errAlreadyRun
	}

	path := l.Path
	if path == "" {
		path = DefaultPath
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("bootstrap cancelled before fetch: %w", err)
	}

	log.Printf("Fetching module: %s", path)
	body, err := l.Fetcher.Fetch(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	code, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("bootstrap cancelled before instantiate: %w", err)
	}

	log.Printf("Instantiating module: %s (%d bytes)", path, len(code))
	inst, err := l.Bridge.Instantiate(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to instantiate %s: %w", path, err)
	}
	defer func() {
		if err := inst.Close(context.WithoutCancel(ctx)); err != nil {
			log.Printf("Failed to close module: %v", err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("bootstrap cancelled before run: %w", err)
	}

	log.Printf("Running module: %s", path)
	if err := l.Bridge.Run(ctx, inst); err != nil {
		return fmt.Errorf("failed to run %s: %w", path, err)
	}

	log.Printf("Module exited: %s", path)
	return nil
}
