// ABOUTME: Tests for the bootstrap loader
// ABOUTME: Tests stage ordering, single execution and failure short-circuiting
package boot

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// recorder collects the order of stage calls
type recorder struct {
	calls []string
}

type fakeFetcher struct {
	rec  *recorder
	data string
	err  error
	path string
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	f.rec.calls = append(f.rec.calls, "fetch")
	f.path = path
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.data)), nil
}

type fakeInstance struct {
	rec *recorder
}

func (i *fakeInstance) Close(ctx context.Context) error {
	i.rec.calls = append(i.rec.calls, "close")
	return nil
}

type fakeBridge struct {
	rec            *recorder
	code           []byte
	instantiateErr error
	runErr         error
	cancel         context.CancelFunc // called during Instantiate when set
}

func (b *fakeBridge) Instantiate(ctx context.Context, code []byte) (Instance, error) {
	b.rec.calls = append(b.rec.calls, "instantiate")
	b.code = code
	if b.cancel != nil {
		b.cancel()
	}
	if b.instantiateErr != nil {
		return nil, b.instantiateErr
	}
	return &fakeInstance{rec: b.rec}, nil
}

func (b *fakeBridge) Run(ctx context.Context, inst Instance) error {
	b.rec.calls = append(b.rec.calls, "run")
	return b.runErr
}

func equalCalls(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestLoaderRunsStagesInOrder(t *testing.T) {
	rec := &recorder{}
	fetcher := &fakeFetcher{rec: rec, data: "\x00asm"}
	bridge := &fakeBridge{rec: rec}
	loader := &Loader{Fetcher: fetcher, Bridge: bridge}

	if err := loader.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"fetch", "instantiate", "run", "close"}
	if !equalCalls(rec.calls, want) {
		t.Errorf("expected calls %v, got %v", want, rec.calls)
	}
	if fetcher.path != DefaultPath {
		t.Errorf("expected default path %q, got %q", DefaultPath, fetcher.path)
	}
	if string(bridge.code) != "\x00asm" {
		t.Errorf("expected fetched bytes to reach the bridge, got %q", bridge.code)
	}
}

func TestLoaderCustomPath(t *testing.T) {
	rec := &recorder{}
	fetcher := &fakeFetcher{rec: rec}
	loader := &Loader{Fetcher: fetcher, Bridge: &fakeBridge{rec: rec}, Path: "app/player.wasm"}

	if err := loader.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.path != "app/player.wasm" {
		t.Errorf("expected custom path, got %q", fetcher.path)
	}
}

func TestLoaderFetchFailureSkipsLaterStages(t *testing.T) {
	rec := &recorder{}
	fetchErr := errors.New("connection refused")
	loader := &Loader{
		Fetcher: &fakeFetcher{rec: rec, err: fetchErr},
		Bridge:  &fakeBridge{rec: rec},
	}

	err := loader.Run(context.Background())
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to fetch") {
		t.Errorf("expected error to name the fetch stage, got: %v", err)
	}
	if !equalCalls(rec.calls, []string{"fetch"}) {
		t.Errorf("expected only fetch to be called, got %v", rec.calls)
	}
}

func TestLoaderInstantiateFailureSkipsRun(t *testing.T) {
	rec := &recorder{}
	instErr := errors.New("invalid magic number")
	loader := &Loader{
		Fetcher: &fakeFetcher{rec: rec},
		Bridge:  &fakeBridge{rec: rec, instantiateErr: instErr},
	}

	err := loader.Run(context.Background())
	if !errors.Is(err, instErr) {
		t.Fatalf("expected instantiate error to propagate, got %v", err)
	}
	if !equalCalls(rec.calls, []string{"fetch", "instantiate"}) {
		t.Errorf("expected run to be skipped, got %v", rec.calls)
	}
}

func TestLoaderRunFailureClosesInstance(t *testing.T) {
	rec := &recorder{}
	runErr := &ExitError{Code: 2}
	loader := &Loader{
		Fetcher: &fakeFetcher{rec: rec},
		Bridge:  &fakeBridge{rec: rec, runErr: runErr},
	}

	err := loader.Run(context.Background())
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("expected ExitError with code 2, got %v", err)
	}
	if !equalCalls(rec.calls, []string{"fetch", "instantiate", "run", "close"}) {
		t.Errorf("expected instance to be closed after run, got %v", rec.calls)
	}
}

func TestLoaderRunsOnce(t *testing.T) {
	rec := &recorder{}
	loader := &Loader{Fetcher: &fakeFetcher{rec: rec}, Bridge: &fakeBridge{rec: rec}}

	if err := loader.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := loader.Run(context.Background()); err == nil {
		t.Fatal("expected second run to fail")
	}

	fetches := 0
	for _, c := range rec.calls {
		if c == "fetch" {
			fetches++
		}
	}
	if fetches != 1 {
		t.Errorf("expected exactly one fetch, got %d", fetches)
	}
}

func TestLoaderCancelledBeforeFetch(t *testing.T) {
	rec := &recorder{}
	loader := &Loader{Fetcher: &fakeFetcher{rec: rec}, Bridge: &fakeBridge{rec: rec}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := loader.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("expected no stages to run, got %v", rec.calls)
	}
}

func TestLoaderCancelledBeforeRun(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := &Loader{
		Fetcher: &fakeFetcher{rec: rec},
		Bridge:  &fakeBridge{rec: rec, cancel: cancel},
	}

	err := loader.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !equalCalls(rec.calls, []string{"fetch", "instantiate", "close"}) {
		t.Errorf("expected run to be skipped and instance closed, got %v", rec.calls)
	}
}

func TestExitErrorMessage(t *testing.T) {
	err := &ExitError{Code: 3}
	if err.Error() != "module exited with code 3" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
