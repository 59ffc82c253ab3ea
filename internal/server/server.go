// Package server exposes the command dispatcher and the process registry
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xdg/consolex/internal/audit"
	"github.com/xdg/consolex/internal/clog"
	"github.com/xdg/consolex/internal/dispatch"
	"github.com/xdg/consolex/internal/procreg"
)

// StatusMessage is the liveness message returned by GET /.
const StatusMessage = "ConsoleX API is running"

// ProcessIDHeader carries the registry ID of a process started by open.
const ProcessIDHeader = "X-Process-Id"

// CommandHandler executes run requests.
type CommandHandler interface {
	Handle(req dispatch.CommandRequest) (dispatch.Result, error)
}

// ProcessRegistry lists and signals processes started by open.
type ProcessRegistry interface {
	List() []procreg.Info
	Get(id string) (procreg.Info, bool)
	Signal(id string, sig unix.Signal) (procreg.Info, error)
}

// Server is the consolex HTTP API.
type Server struct {
	// Addr is the address to listen on (e.g., "127.0.0.1:8000").
	Addr string

	// ReadHeaderTimeout bounds how long a client may take to send headers.
	// Zero means 30 seconds.
	ReadHeaderTimeout time.Duration

	// Commands executes POST /run requests. Required.
	Commands CommandHandler

	// Processes backs the /processes routes. If nil, no processes are listed.
	Processes ProcessRegistry

	// AuditLogger records signal events. May be nil.
	AuditLogger *audit.Logger

	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// New creates a server listening on addr.
func New(addr string, commands CommandHandler, processes ProcessRegistry, auditLogger *audit.Logger) *Server {
	return &Server{
		Addr:        addr,
		Commands:    commands,
		Processes:   processes,
		AuditLogger: auditLogger,
	}
}

// Handler returns the HTTP handler with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /processes", s.handleListProcesses)
	mux.HandleFunc("GET /processes/{id}", s.handleGetProcess)
	mux.HandleFunc("POST /processes/{id}/signal", s.handleSignal)
	return mux
}

// Start begins accepting connections.
// Returns an error if the server is already running or fails to listen.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	timeout := s.ReadHeaderTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: timeout,
		ErrorLog:          clog.StdLogger(clog.LevelWarn),
	}
	s.running = true

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.Error("http server: %v", err)
		}
	}()

	clog.Info("listening on %s", listener.Addr())
	return nil
}

// Stop gracefully shuts down the server. In-flight shell requests are
// allowed to finish until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.server.Shutdown(ctx)
}

// ListenAddr returns the address the server is listening on, which differs
// from Addr when started on port 0. Returns empty string before Start.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
