// Package popup serves the capture popup as a local web page: the form, a
// small JSON API driving the capture controller, and a WebSocket stream of
// display state.
package popup

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/hoarder-capture/internal/capture"
	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/metrics"
)

//go:embed popup.html
var popupHTML []byte

// Server is the HTTP + WebSocket surface of the popup.
type Server struct {
	cfg      Config
	ctrl     *capture.Controller
	display  *capture.StateDisplay
	metrics  *metrics.Metrics
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer wires a popup around ctrl, which must write to display. m may
// be nil, in which case /metrics is not served.
func NewServer(cfg Config, ctrl *capture.Controller, display *capture.StateDisplay, m *metrics.Metrics) (*Server, error) {
	if ctrl == nil || display == nil {
		return nil, fmt.Errorf("popup: controller and display are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Popup")
	}

	s := &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		display: display,
		metrics: m,
		router:  chi.NewRouter(),
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return isLocalOrigin(r.Header.Get("Origin"))
			},
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)
	if s.metrics != nil {
		r.Use(s.metricsMiddleware)
	}

	r.Options("/api/submit", s.optionsHandler("POST"))
	r.Options("/api/health", s.optionsHandler("POST"))

	r.Get("/", s.handlePage)
	r.Get("/api/state", s.handleState)
	r.Post("/api/submit", s.handleSubmit)
	r.Post("/api/health", s.handleHealth)
	r.Get("/ws", s.handleStateWS)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		pattern := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			pattern = rc.RoutePattern()
		}
		s.metrics.ObserveRequest(r.Method, pattern, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack is needed by the websocket upgrade.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	// Request bodies here are tiny; captured HTML never passes through.
	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Debug("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket stream
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(popupHTML)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.display.Snapshot())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			s.logger.Warn("decoding submit body", logging.Err(err))
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	// The workflow outlives this request.
	done, err := s.ctrl.Start(context.WithoutCancel(r.Context()), body.URL)
	if errors.Is(err, capture.ErrBusy) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	go func() {
		out, ok := <-done
		if ok {
			s.logger.Info("capture finished", logging.Field{Key: "run_id", Value: out.RunID}, logging.Field{Key: "error", Value: out.IsError})
		}
	}()
	writeJSON(w, http.StatusAccepted, SubmitAccepted{Status: "started"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	text := s.ctrl.RefreshConnection(r.Context())
	writeJSON(w, http.StatusOK, HealthResponse{Connection: text})
}

// --- WebSocket ---

func (s *Server) handleStateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.display.Subscribe()
	defer unsubscribe()

	// Read pump: the page never sends anything, but reading notices a close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.display.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(st); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func isLocalOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	for _, prefix := range []string{"http://127.0.0.1", "http://localhost", "chrome-extension://"} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}
