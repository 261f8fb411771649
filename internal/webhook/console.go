package webhook

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KizzyCode/MinecraftWebhook/internal/history"
)

const (
	consoleWriteDeadline = 10 * time.Second
	consoleReadDeadline  = 5 * time.Minute
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The console page is served from this host; same-origin browsers
		// pass, curl and friends don't send an Origin header at all.
		return true
	},
}

// consoleRequest is one command typed into the web console.
type consoleRequest struct {
	Command string `json:"command"`
}

// consoleResponse reports the outcome of one console command.
type consoleResponse struct {
	OK       bool   `json:"ok"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleConsole upgrades the connection to a websocket and runs a simple
// request/response loop: one JSON command in, one JSON result out.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("console: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("console: client connected from %s", r.RemoteAddr)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(consoleReadDeadline))

		var req consoleRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("console: read failed: %v", err)
			}
			return
		}
		if req.Command == "" {
			continue
		}

		resp, err := s.exec.Execute(r.Context(), req.Command)
		s.store.Record(r.Context(), history.Entry{
			Source:  "console",
			Command: req.Command,
			OK:      err == nil,
			Detail:  errDetail(err),
		})

		out := consoleResponse{OK: err == nil, Response: resp}
		if err != nil {
			out.Error = err.Error()
		}

		_ = conn.SetWriteDeadline(time.Now().Add(consoleWriteDeadline))
		if err := conn.WriteJSON(out); err != nil {
			log.Printf("console: write failed: %v", err)
			return
		}
	}
}
