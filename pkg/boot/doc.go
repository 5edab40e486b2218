// ABOUTME: Module bootstrap package for fetching and running WebAssembly
// ABOUTME: Provides Loader with HTTP/file fetchers and wazero or wasm_exec.js bridges
// Package boot fetches a WebAssembly module, instantiates it and hands it
// control, exactly once and in that order.
//
// Natively, WASIBridge runs GOOS=wasip1 modules under wazero. In a js/wasm
// build, GoBridge drives the page's wasm_exec.js Go object.
//
// Example:
//
//	loader := &boot.Loader{
//	    Fetcher: &boot.HTTPFetcher{BaseURL: "http://localhost:8080/"},
//	    Bridge:  boot.NewWASIBridge(boot.WASIConfig{Stdout: os.Stdout}),
//	}
//	err := loader.Run(ctx)
package boot
