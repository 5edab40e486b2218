// ABOUTME: Entry point for wasmboot, the native module bootstrap
// ABOUTME: Fetches a WASI module over HTTP, from disk or via mDNS and runs it under wazero
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/wasmplay/internal/discovery"
	"github.com/Resonate-Protocol/wasmplay/pkg/boot"
)

var (
	baseURL  = flag.String("base", "", "Base URL the module is fetched relative to")
	dir      = flag.String("dir", "", "Local directory holding the module")
	discover = flag.Bool("discover", false, "Find a wasmplay-serve instance via mDNS")
	module   = flag.String("module", "", "Module path (default: advertised module or main.wasm)")
	mount    = flag.String("mount", "", "Host directory mounted at / inside the module")
	cacheDir = flag.String("cache", "", "Keep downloaded modules in this directory and reuse them")
	wait     = flag.Duration("wait", 10*time.Second, "How long to wait for mDNS discovery")
	verbose  = flag.Bool("v", false, "Log bootstrap progress to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-base url | -dir path | -discover] [-module main.wasm] [-- args]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	fetcher, path, err := chooseFetcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "wasmboot: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	if remote, ok := fetcher.(*boot.HTTPFetcher); ok && *cacheDir != "" {
		cached, err := boot.NewCachingFetcher(remote, *cacheDir, remote.BaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wasmboot: %v\n", err)
			os.Exit(1)
		}
		fetcher = cached
	}

	bridge := boot.NewWASIBridge(boot.WASIConfig{
		Args:   append([]string{filepath.Base(path)}, flag.Args()...),
		Env:    map[string]string{"WASMPLAY_BOOT": "1"},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Dir:    *mount,
	})

	loader := &boot.Loader{
		Fetcher: fetcher,
		Bridge:  bridge,
		Path:    path,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loader.Run(ctx); err != nil {
		var exitErr *boot.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		fmt.Fprintf(os.Stderr, "wasmboot: %v\n", err)
		os.Exit(1)
	}
}

// chooseFetcher picks exactly one module location from the flags
func chooseFetcher() (boot.Fetcher, string, error) {
	chosen := 0
	for _, set := range []bool{*baseURL != "", *dir != "", *discover} {
		if set {
			chosen++
		}
	}
	if chosen != 1 {
		return nil, "", errors.New("exactly one of -base, -dir or -discover is required")
	}

	path := *module
	switch {
	case *baseURL != "":
		return &boot.HTTPFetcher{BaseURL: *baseURL}, orDefault(path, boot.DefaultPath), nil

	case *dir != "":
		return &boot.FileFetcher{Dir: *dir}, orDefault(path, boot.DefaultPath), nil
	}

	server, err := discoverServer(*wait)
	if err != nil {
		return nil, "", err
	}
	log.Printf("Discovered %s at %s", server.Name, server.BaseURL())
	return &boot.HTTPFetcher{BaseURL: server.BaseURL()}, orDefault(path, orDefault(server.Module, boot.DefaultPath)), nil
}

func discoverServer(timeout time.Duration) (*discovery.ServerInfo, error) {
	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()

	if err := disc.Browse(); err != nil {
		return nil, fmt.Errorf("failed to start discovery: %w", err)
	}

	select {
	case server := <-disc.Servers():
		return server, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("no server found after %v", timeout)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
