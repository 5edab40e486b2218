// ABOUTME: Entry point for the wasmplay development server
// ABOUTME: Serves a browser build with the right MIME types and live reload
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/wasmplay/internal/server"
)

var (
	dir      = flag.String("dir", "public", "Directory to serve")
	port     = flag.Int("port", 8080, "HTTP server port")
	name     = flag.String("name", "", "Server friendly name (default: hostname-wasmplay)")
	module   = flag.String("module", "main.wasm", "Module booted by the loader page")
	goRoot   = flag.String("goroot", "", "Go installation providing wasm_exec.js (default: $GOROOT)")
	logFile  = flag.String("log-file", "wasmplay-serve.log", "Log file path")
	noMDNS   = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noTUI    = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	noReload = flag.Bool("no-reload", false, "Disable live reload when .wasm files change")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if info, err := os.Stat(*dir); err != nil || !info.IsDir() {
		log.Fatalf("Not a directory: %s", *dir)
	}

	// Determine server name
	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-wasmplay", hostname)
	}

	log.Printf("Starting %s on port %d", serverName, *port)
	log.Printf("Logging to: %s", *logFile)

	srv := server.New(server.Config{
		Dir:        *dir,
		Port:       *port,
		Name:       serverName,
		Module:     *module,
		EnableMDNS: !*noMDNS,
		UseTUI:     useTUI,
		LiveReload: !*noReload,
		GoRoot:     *goRoot,
	})

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}
