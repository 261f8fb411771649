// Package webhook implements the HTTP face of the bridge: the webhook
// endpoints that trigger RCON commands, the embedded web console, and the
// health and audit endpoints.
package webhook

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/KizzyCode/MinecraftWebhook/internal/domain"
	"github.com/KizzyCode/MinecraftWebhook/internal/history"
	"github.com/KizzyCode/MinecraftWebhook/internal/status"
)

//go:embed static/index.html
var indexHTML []byte

// Server handles the bridge's HTTP surface. Command execution is delegated
// to the shared executor, which serializes access to the RCON connection.
type Server struct {
	hooks   *Hooks
	exec    domain.CommandExecutor
	store   *history.Store // may be nil, then auditing is off
	checker *status.Checker
}

// NewServer wires the HTTP server. store may be nil to disable auditing;
// checker may be nil to skip the game-port probe in /health.
func NewServer(hooks *Hooks, exec domain.CommandExecutor, store *history.Store, checker *status.Checker) *Server {
	return &Server{hooks: hooks, exec: exec, store: store, checker: checker}
}

// Handler returns the route table. Method mismatches on known routes yield
// 405, unknown targets 404, both with empty bodies.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/{name}", s.handleWebhook)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /console", s.handleConsole)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("/", s.handleNotFound)

	return mux
}

// handleWebhook resolves /api/<name> to its configured command and runs it.
// The response body is the raw RCON output; the bridge never interprets it.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set("X-Request-Id", reqID)

	if r.Method != http.MethodPost {
		log.Printf("webhook: [%s] invalid method %s for webhook trigger", reqID, r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name := r.PathValue("name")
	command, ok := s.hooks.Lookup(name)
	if !ok {
		log.Printf("webhook: [%s] unknown webhook name %q", reqID, name)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	resp, err := s.exec.Execute(r.Context(), command)
	s.store.Record(r.Context(), history.Entry{
		Source:  "webhook",
		Hook:    name,
		Command: command,
		OK:      err == nil,
		Detail:  errDetail(err),
	})
	if err != nil {
		log.Printf("webhook: [%s] failed to execute command for %q: %v", reqID, name, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Printf("webhook: [%s] executed %q (%d bytes of response)", reqID, name, len(resp))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(resp))
}

// handleHealth reports bridge liveness plus, when configured, a TCP probe
// of the game port.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]string{"status": "ok"}
	if s.checker != nil {
		health["game"] = s.checker.Check()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health)
}

// handleHistory returns the most recent audit entries, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Recent(r.Context(), 50)
	if err != nil {
		log.Printf("webhook: failed to read audit log: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	log.Printf("webhook: invalid request target: %s %s", r.Method, r.URL.Path)
	w.WriteHeader(http.StatusNotFound)
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
