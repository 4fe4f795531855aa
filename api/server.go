package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/rv32edu/rv32emu/asm"
)

// Server is the thin HTTP+websocket front end described by the session
// API: assemble a program, create a session for it, then stream its
// clock-by-clock state over a websocket. It carries no emulation logic of
// its own — every request is translated directly into asm/vm calls.
type Server struct {
	sessions   *SessionManager
	mux        *http.ServeMux
	httpServer *http.Server
	addr       string
}

// NewServer builds a Server listening on addr (e.g. ":8080") once Start is
// called.
func NewServer(addr string) *Server {
	s := &Server{
		sessions: NewSessionManager(),
		mux:      http.NewServeMux(),
		addr:     addr,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/assemble", s.handleAssemble)
	s.mux.HandleFunc("/session", s.handleSession)
	s.mux.HandleFunc("/session/", s.handleSessionRoute)
}

// Handler returns the server's routes wrapped in CORS middleware, suitable
// for httptest or a custom http.Server.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("rv32emu api server listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// (including open websocket connections) to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

// handleAssemble handles POST /assemble: assemble source, report the
// resulting label table and image sizes, and keep no state around it.
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AssembleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	program, errs := asm.Assemble("assemble", req.Source)
	if len(errs) > 0 {
		writeJSON(w, http.StatusOK, AssembleResponse{OK: false, Errors: errStrings(errs)})
		return
	}

	labels := make(map[string]uint32, len(program.Labels))
	for name, addr := range program.Labels {
		labels[name] = uint32(addr)
	}

	writeJSON(w, http.StatusOK, AssembleResponse{
		OK:             true,
		Labels:         labels,
		EntryTextStart: program.EntryTextStart,
		EntryDataStart: program.EntryDataStart,
		TextBytes:      len(program.InstructionMemory),
		DataBytes:      len(program.DataMemory),
	})
}

// handleSession handles POST /session: assemble source, build an Emulator
// for it, and register a new session the client can then drive over
// /session/{id}/ws.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SessionCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, errs := s.sessions.Create(req.Source, req.Pipeline, []byte(req.Input))
	if len(errs) > 0 {
		writeJSON(w, http.StatusOK, SessionCreateResponse{OK: false, Errors: errStrings(errs)})
		return
	}

	writeJSON(w, http.StatusOK, SessionCreateResponse{OK: true, SessionID: session.ID})
}

// handleSessionRoute handles /session/{id}/ws.
func (s *Server) handleSessionRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/session/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "ws" {
		writeError(w, http.StatusNotFound, "unknown route")
		return
	}

	session, err := s.sessions.Get(parts[0])
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	s.handleWebSocket(w, r, session)
}

func errStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return decoder.Decode(v)
}

// corsMiddleware allows only localhost origins, since this server is meant
// for local tooling rather than an arbitrary remote frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1") {
		return true
	}
	return false
}
