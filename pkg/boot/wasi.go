//go:build !js

// ABOUTME: Native bridge running WASI modules under the wazero runtime
// ABOUTME: Links wasi_snapshot_preview1, defers _start to Run and maps exit codes
package boot

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// WASIConfig holds the environment a module sees
type WASIConfig struct {
	Args   []string // Args[0] is the program name
	Env    map[string]string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Dir    string // mounted read-write at "/" when set
}

// WASIBridge instantiates GOOS=wasip1 (or any WASI preview1) modules
type WASIBridge struct {
	config WASIConfig
}

// NewWASIBridge creates a bridge with the given environment
func NewWASIBridge(config WASIConfig) *WASIBridge {
	return &WASIBridge{config: config}
}

type wasiInstance struct {
	runtime wazero.Runtime
	module  api.Module
}

func (i *wasiInstance) Close(ctx context.Context) error {
	return i.runtime.Close(ctx)
}

// Instantiate compiles code in a fresh runtime. Start functions are not
// run here; Run calls _start.
func (b *WASIBridge) Instantiate(ctx context.Context, code []byte) (Instance, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to link WASI imports: %w", err)
	}

	compiled, err := runtime.CompileModule(ctx, code)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	module, err := runtime.InstantiateModule(ctx, compiled, b.moduleConfig())
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	return &wasiInstance{runtime: runtime, module: module}, nil
}

// Run calls the module's _start export. A zero exit status is success.
func (b *WASIBridge) Run(ctx context.Context, inst Instance) error {
	wi, ok := inst.(*wasiInstance)
	if !ok {
		return fmt.Errorf("instance %T was not created by the WASI bridge", inst)
	}

	start := wi.module.ExportedFunction("_start")
	if start == nil {
		return fmt.Errorf("module does not export _start")
	}

	_, err := start.Call(ctx)
	if err == nil {
		return nil
	}

	// A closed context surfaces as a sys.ExitError with a reserved code
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("module interrupted: %w", ctxErr)
	}

	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 0 {
			return nil
		}
		return &ExitError{Code: exitErr.ExitCode()}
	}
	return err
}

func (b *WASIBridge) moduleConfig() wazero.ModuleConfig {
	config := wazero.NewModuleConfig().
		WithStartFunctions().
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)

	if len(b.config.Args) > 0 {
		config = config.WithArgs(b.config.Args...)
	}
	for k, v := range b.config.Env {
		config = config.WithEnv(k, v)
	}
	if b.config.Stdin != nil {
		config = config.WithStdin(b.config.Stdin)
	}
	if b.config.Stdout != nil {
		config = config.WithStdout(b.config.Stdout)
	}
	if b.config.Stderr != nil {
		config = config.WithStderr(b.config.Stderr)
	}
	if b.config.Dir != "" {
		config = config.WithFSConfig(wazero.NewFSConfig().WithDirMount(b.config.Dir, "/"))
	}
	return config
}
