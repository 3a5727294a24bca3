package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labwatch/labwatch/internal/state"
	"github.com/labwatch/labwatch/internal/view"
)

const (
	// sseWriteTimeout bounds a single SSE write so a slow or disconnected
	// client cannot leak the handler goroutine. Must be <= the shutdown
	// timeout for clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Backend is the mutation API the server drives. Implemented by
// manage.Manager; faked in tests.
type Backend interface {
	ListServices() []state.Service
	AddService(name, host, port string) []state.Service
	UpdateService(i int, name, host, port string) ([]state.Service, error)
	RemoveService(i int) ([]state.Service, error)
	Interval() uint64
	SetInterval(secs uint64)
	IconSet() string
	SetIconSet(pref string) string
}

// Feed supplies refreshes to the status and SSE handlers. Implemented by
// view.Hub.
type Feed interface {
	Latest() (view.Refresh, bool)
	Subscribe() <-chan view.Refresh
	Unsubscribe(<-chan view.Refresh)
}

// Server handles HTTP requests for labwatch status and mutations.
//
// Routes:
//   - GET    /api/status            latest refresh as JSON
//   - GET    /api/sse               Server-Sent Events stream of refreshes
//   - GET    /api/services          ordered service list
//   - POST   /api/services          append a service
//   - PUT    /api/services/{index}  replace a service in place
//   - DELETE /api/services/{index}  remove a service (indices shift)
//   - GET    /api/interval          current probe interval in seconds
//   - PUT    /api/interval          replace the probe interval
//   - GET    /api/iconset           current icon set preference
//   - PUT    /api/iconset           replace the icon set preference
//
// The server shuts down gracefully when the context passed to Start is
// cancelled.
type Server struct {
	backend    Backend
	feed       Feed
	port       int
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a [Server]. It is not listening until [Server.Start].
func NewServer(backend Backend, feed Feed, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		backend: backend,
		feed:    feed,
		port:    port,
		logger:  logger,
	}
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound, so a port
// conflict surfaces synchronously. The server runs until ctx is cancelled,
// then shuts down gracefully with a bounded timeout.
func (s *Server) Start(ctx context.Context) error {
	mux := s.routes()

	// bind synchronously so port conflicts are reported to the caller
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: mux,
		// request contexts derive from the server context, so SSE
		// handlers unwind on shutdown as well as client disconnect
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// routes builds the request mux. Split out so tests can exercise handlers
// with path values populated.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/sse", s.handleSSE)
	mux.HandleFunc("GET /api/services", s.handleListServices)
	mux.HandleFunc("POST /api/services", s.handleAddService)
	mux.HandleFunc("PUT /api/services/{index}", s.handleUpdateService)
	mux.HandleFunc("DELETE /api/services/{index}", s.handleRemoveService)
	mux.HandleFunc("GET /api/interval", s.handleGetInterval)
	mux.HandleFunc("PUT /api/interval", s.handleSetInterval)
	mux.HandleFunc("GET /api/iconset", s.handleGetIconSet)
	mux.HandleFunc("PUT /api/iconset", s.handleSetIconSet)

	return mux
}

// handleStatus returns the latest refresh. Before the first probe cycle
// completes it synthesizes an empty healthy refresh from the current
// configuration, matching the reset-to-healthy startup semantics.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	refresh, ok := s.feed.Latest()
	if !ok {
		refresh = view.Refresh{
			Healthy:  true,
			IconSet:  s.backend.IconSet(),
			Services: []view.ServiceStatus{},
		}
	}
	s.writeJSON(w, http.StatusOK, refresh)
}

// handleSSE streams refreshes via Server-Sent Events.
//
// Write deadlines keep a blocked Fprintf from pinning the handler when the
// client is slow or gone.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.feed.Subscribe()
	defer s.feed.Unsubscribe(ch)

	// replay the latest refresh so new clients see status immediately
	if refresh, ok := s.feed.Latest(); ok {
		data, err := json.Marshal(refresh)
		if err == nil {
			if err := writeAndFlush(data); err != nil {
				return
			}
		}
	}

	for {
		select {
		case refresh, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(refresh)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.backend.ListServices())
}

func (s *Server) handleAddService(w http.ResponseWriter, r *http.Request) {
	var svc state.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid service payload: %w", err))
		return
	}

	list := s.backend.AddService(svc.Name, svc.Host, svc.Port)
	s.writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var svc state.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid service payload: %w", err))
		return
	}

	list, err := s.backend.UpdateService(index, svc.Name, svc.Host, svc.Port)
	if err != nil {
		s.writeBackendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRemoveService(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	list, err := s.backend.RemoveService(index)
	if err != nil {
		s.writeBackendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetInterval(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]uint64{"interval_secs": s.backend.Interval()})
}

func (s *Server) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IntervalSecs uint64 `json:"interval_secs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid interval payload: %w", err))
		return
	}

	s.backend.SetInterval(payload.IntervalSecs)
	s.writeJSON(w, http.StatusOK, map[string]uint64{"interval_secs": payload.IntervalSecs})
}

func (s *Server) handleGetIconSet(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"icon_set": s.backend.IconSet()})
}

func (s *Server) handleSetIconSet(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IconSet string `json:"icon_set"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid icon set payload: %w", err))
		return
	}

	normalized := s.backend.SetIconSet(payload.IconSet)
	s.writeJSON(w, http.StatusOK, map[string]string{"icon_set": normalized})
}

// parseIndex extracts the {index} path value as a non-negative integer.
func parseIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid service index %q", raw)
	}
	return index, nil
}

// writeBackendError maps mutation errors to HTTP status codes: a
// nonexistent index is the caller's error (404); anything else is internal.
func (s *Server) writeBackendError(w http.ResponseWriter, err error) {
	if errors.Is(err, state.ErrIndexOutOfRange) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
