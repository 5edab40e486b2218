// ABOUTME: Development server for browser builds of wasmplay
// ABOUTME: Serves static files, the embedded loader page and the live-reload socket
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/wasmplay/internal/discovery"
	"github.com/Resonate-Protocol/wasmplay/pkg/boot"
)

// Config holds server configuration
type Config struct {
	Dir        string // directory served at /
	Port       int
	Name       string
	Module     string // module the loader page boots (default main.wasm)
	EnableMDNS bool
	UseTUI     bool
	LiveReload bool
	GoRoot     string        // where wasm_exec.js is looked up when Dir lacks it
	PollEvery  time.Duration // live-reload modification scan interval
}

// Server represents the development server
type Server struct {
	config   Config
	serverID string

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Live-reload clients
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// Module watcher state
	modTimes map[string]time.Time
	modMu    sync.Mutex

	// Counters
	requests atomic.Int64
	reloads  atomic.Int64

	// mDNS discovery
	mdnsManager *discovery.Manager

	// TUI
	tui       *ServerTUI
	startTime time.Time

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once // Ensure Stop() is only called once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client is a connected live-reload socket
type Client struct {
	ID   string
	Addr string
	Conn *websocket.Conn

	// Output channel for messages
	sendChan chan string
}

// New creates a new server instance
func New(config Config) *Server {
	if config.Dir == "" {
		config.Dir = "."
	}
	if config.Module == "" {
		config.Module = boot.DefaultPath
	}
	if config.PollEvery == 0 {
		config.PollEvery = 500 * time.Millisecond
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The reload socket only pushes "reload"; any page served
				// from this machine may listen.
				return true
			},
		},
		clients:   make(map[string]*Client),
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}

	s.modTimes = scanModules(config.Dir)

	s.mux.HandleFunc("/reload", s.handleReload)
	s.mux.Handle("/", s.fileHandler())

	return s
}

// Handler returns the HTTP handler serving files and the reload socket
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the server and blocks until it is stopped
func (s *Server) Start() error {
	// Start TUI if enabled
	if s.config.UseTUI {
		s.tui = NewServerTUI(s.config.Name, s.config.Port)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tui.Start(s.config.Name, s.config.Port, s.config.Dir)
		}()

		// Give TUI time to initialize
		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	// Start mDNS advertisement if enabled
	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Module:      s.config.Module,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	if s.config.LiveReload {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.watchModules()
		}()
	}

	// Start HTTP server
	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("Serving %s on http://localhost%s", s.config.Dir, addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	s.updateTUI()

	// Wait for stop signal, TUI quit, or server error
	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case <-tuiQuitChan:
		log.Printf("TUI quit requested, shutting down...")
		s.Stop()
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
		s.Stop()
	}

	// Mark server as shutting down to reject new connections
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	// Stop TUI first so it can display shutdown message
	if s.tui != nil {
		s.tui.Stop()
	}

	// Stop mDNS
	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	// Reload sockets are hijacked, so Shutdown does not close them
	s.closeClients()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}
