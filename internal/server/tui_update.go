// ABOUTME: TUI update helpers for server
// ABOUTME: Functions to send server state updates to TUI
package server

// status snapshots the server for display
func (s *Server) status() ServerStatus {
	s.modMu.Lock()
	modules := len(s.modTimes)
	s.modMu.Unlock()

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	clients := make([]ClientInfo, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, ClientInfo{
			ID:   client.ID,
			Addr: client.Addr,
		})
	}

	return ServerStatus{
		Name:     s.config.Name,
		Port:     s.config.Port,
		Dir:      s.config.Dir,
		Module:   s.config.Module,
		Modules:  modules,
		Requests: s.requests.Load(),
		Reloads:  s.reloads.Load(),
		Clients:  clients,
	}
}

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}
	s.tui.Update(s.status())
}
