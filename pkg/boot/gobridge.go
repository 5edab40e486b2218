//go:build js && wasm

// ABOUTME: Browser bridge using the wasm_exec.js Go runtime object
// ABOUTME: Instantiates with go.importObject and awaits go.run for the entry point
package boot

import (
	"context"
	"fmt"
	"syscall/js"
)

// GoBridge wraps a `new Go()` object from wasm_exec.js
type GoBridge struct {
	goObj    js.Value
	exitFunc js.Func
	released bool
	exitCode int
}

type jsInstance struct {
	value js.Value
}

func (i *jsInstance) Close(ctx context.Context) error { return nil }

// NewGoBridge constructs the global Go class. wasm_exec.js must be loaded.
func NewGoBridge() (*GoBridge, error) {
	ctor := js.Global().Get("Go")
	if ctor.IsUndefined() {
		return nil, fmt.Errorf("wasm_exec.js Go runtime not found")
	}

	b := &GoBridge{goObj: ctor.New()}
	b.exitFunc = js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			b.exitCode = args[0].Int()
		}
		return nil
	})
	b.goObj.Set("exit", b.exitFunc)
	return b, nil
}

// Instantiate compiles code against the Go import object
func (b *GoBridge) Instantiate(ctx context.Context, code []byte) (Instance, error) {
	bytes := js.Global().Get("Uint8Array").New(len(code))
	js.CopyBytesToJS(bytes, code)

	promise := js.Global().Get("WebAssembly").Call("instantiate", bytes, b.goObj.Get("importObject"))
	result, err := await(ctx, promise)
	if err != nil {
		return nil, err
	}
	return &jsInstance{value: result.Get("instance")}, nil
}

// Run starts the instance and waits for its program to exit
func (b *GoBridge) Run(ctx context.Context, inst Instance) error {
	ji, ok := inst.(*jsInstance)
	if !ok {
		return fmt.Errorf("instance %T was not created by the Go bridge", inst)
	}

	promise := b.goObj.Call("run", ji.value)
	if _, err := await(ctx, promise); err != nil {
		if ctx.Err() != nil {
			// The program may still call exit
			go func() {
				await(context.Background(), promise)
				b.releaseExit()
			}()
			return err
		}
		b.releaseExit()
		return err
	}
	b.releaseExit()

	if b.exitCode != 0 {
		return &ExitError{Code: uint32(b.exitCode)}
	}
	return nil
}

// releaseExit detaches the exit callback once the program can no longer call it
func (b *GoBridge) releaseExit() {
	if b.released {
		return
	}
	b.released = true
	b.goObj.Set("exit", js.Undefined())
	b.exitFunc.Release()
}

// await blocks until promise settles or ctx is done
func await(ctx context.Context, promise js.Value) (js.Value, error) {
	done := make(chan struct{})
	result := js.Undefined()
	var err error

	onResolve := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			result = args[0]
		}
		close(done)
		return nil
	})
	onReject := js.FuncOf(func(this js.Value, args []js.Value) any {
		reason := js.Undefined()
		if len(args) > 0 {
			reason = args[0]
		}
		err = js.Error{Value: reason}
		close(done)
		return nil
	})
	release := func() {
		onResolve.Release()
		onReject.Release()
	}

	promise.Call("then", onResolve, onReject)

	select {
	case <-done:
		release()
		return result, err
	case <-ctx.Done():
		// The callbacks must outlive the promise
		go func() {
			<-done
			release()
		}()
		return js.Undefined(), ctx.Err()
	}
}
