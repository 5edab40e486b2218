// ABOUTME: Live-reload WebSocket and module watcher for the development server
// ABOUTME: Broadcasts "reload" to connected pages when a .wasm file changes
package server

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// ReloadMessage tells a page to reload itself
	ReloadMessage = "reload"

	helloPrefix = "hello:"
)

// handleReload upgrades a page's reload socket
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New reload connection from %s", r.RemoteAddr)

	s.handleConnection(conn, r.RemoteAddr)
}

// handleConnection registers a reload client until its socket closes
func (s *Server) handleConnection(conn *websocket.Conn, addr string) {
	defer conn.Close()

	client := &Client{
		ID:       uuid.New().String(),
		Addr:     addr,
		Conn:     conn,
		sendChan: make(chan string, 10),
	}
	client.sendChan <- helloPrefix + client.ID

	done := make(chan struct{})

	// Registration and wg.Add happen under the shutdown lock so Start never
	// waits on a group that is still growing
	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.clientsMu.Lock()
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client, done)
	}()
	s.shutdownMu.RUnlock()

	s.updateTUI()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(done)
		log.Printf("Reload client disconnected: %s", client.ID)

		s.updateTUI()
	}()

	// Pages never send anything; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// clientWriter sends messages to the client
func (s *Server) clientWriter(client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg := <-client.sendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				log.Printf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

// broadcast queues msg for every connected client
func (s *Server) broadcast(msg string) int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	sent := 0
	for _, client := range s.clients {
		select {
		case client.sendChan <- msg:
			sent++
		default:
			log.Printf("Reload client %s is not reading, skipping", client.ID)
		}
	}
	return sent
}

// closeClients closes every reload socket
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.Conn.Close()
	}
}

// watchModules polls Dir until the server stops
func (s *Server) watchModules() {
	ticker := time.NewTicker(s.config.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkModules()
		case <-s.stopChan:
			return
		}
	}
}

// checkModules compares .wasm modification times with the last scan and
// tells pages to reload when anything changed. It reports whether a reload
// was sent.
func (s *Server) checkModules() bool {
	current := scanModules(s.config.Dir)

	s.modMu.Lock()
	changed := len(current) != len(s.modTimes)
	for name, mod := range current {
		if prev, ok := s.modTimes[name]; !ok || !prev.Equal(mod) {
			log.Printf("Module changed: %s", name)
			changed = true
		}
	}
	s.modTimes = current
	s.modMu.Unlock()

	if !changed {
		return false
	}

	s.reloads.Add(1)
	n := s.broadcast(ReloadMessage)
	log.Printf("Sent reload to %d page(s)", n)
	s.updateTUI()
	return true
}

// scanModules returns the modification time of every .wasm file under dir
func scanModules(dir string) map[string]time.Time {
	mods := make(map[string]time.Time)
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".wasm") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		mods[path] = info.ModTime()
		return nil
	})
	return mods
}
