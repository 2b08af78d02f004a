// Package server exposes the gptbot façade over HTTP. One POST /chat
// endpoint carries the whole conversational contract: an optional session
// identifier plus a user message in, the assistant reply plus the (possibly
// newly minted) identifier out. Health and Prometheus metrics endpoints ride
// alongside.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gptbotio/gptbot"
	"github.com/gptbotio/gptbot/logging"
	"github.com/gptbotio/gptbot/telemetry"
)

// ChatRequest is the inbound payload. SessionID is optional: when omitted a
// new session is created and its id returned.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the outbound payload.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Options configures the Server.
type Options struct {
	// Addr is the listen address (host:port).
	Addr string
	// Logger receives request logs. Defaults to NoOpLogger.
	Logger logging.Logger
	// Metrics, if set, records request counts/latency and serves /metrics.
	Metrics *telemetry.Metrics
	// ReadTimeout/WriteTimeout guard slow clients. Write timeout must
	// cover model generation latency.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP front end for a Bot.
type Server struct {
	bot     *gptbot.Bot
	logger  logging.Logger
	metrics *telemetry.Metrics
	httpSrv *http.Server
}

// New constructs a Server around bot.
func New(bot *gptbot.Bot, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:         ":8000",
		Logger:       logging.NoOpLogger{},
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{bot: bot, logger: opts.Logger, metrics: opts.Metrics}
	s.httpSrv = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.withRequestLog(mux)
}

// statusWriter captures the response code for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		s.logger.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", elapsed,
		)
		if s.metrics != nil && r.URL.Path == "/chat" {
			s.metrics.ObserveChatRequest(sw.status, elapsed)
		}
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	reply, sessionID, err := s.bot.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, gptbot.ErrEmptyMessage) {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message must not be empty"})
			return
		}
		s.logger.Error("chat request failed", "error", err)
		// Keep provider failures opaque to clients.
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	s.writeJSON(w, http.StatusOK, ChatResponse{Response: reply, SessionID: sessionID})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
