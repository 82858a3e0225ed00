package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/vk/patchbay/internal/core"
	"github.com/vk/patchbay/internal/plugin"
)

// Controller is the part of core.Controller the API needs.
type Controller interface {
	Do(ctx context.Context, req core.Request) (core.Response, error)
	Emit(ctx context.Context, ev plugin.Event) error
}

// Options configures the handler.
type Options struct {
	Logger *slog.Logger
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// RequestTimeout bounds each call into the core. Zero means 10s.
	RequestTimeout time.Duration
}

type server struct {
	ctrl    Controller
	logger  *slog.Logger
	timeout time.Duration
}

// NewHandler returns the router serving ctrl.
func NewHandler(ctrl Controller, opts Options) http.Handler {
	s := &server{ctrl: ctrl, logger: opts.Logger, timeout: opts.RequestTimeout}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Post("/rpc", s.rpc)
	r.Post("/events/{package}/{event}", s.emit)
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

type rpcRequest struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data"`
}

type rpcResponse struct {
	Type string        `json:"type"`
	Data core.Response `json:"data"`
}

func (s *server) rpc(w http.ResponseWriter, r *http.Request) {
	var body rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := validate.Struct(body); err != nil {
		s.writeError(w, r, validationError(err))
		return
	}

	req, err := decodeRequest(body.Type, body.Data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	resp, err := s.ctrl.Do(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, rpcResponse{Type: req.Kind(), Data: resp})
}

type emitResponse struct {
	ID string `json:"id"`
}

func (s *server) emit(w http.ResponseWriter, r *http.Request) {
	var payload any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	ev := plugin.Event{
		ID:      uuid.NewString(),
		Package: chi.URLParam(r, "package"),
		Name:    chi.URLParam(r, "event"),
		Payload: payload,
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	if err := s.ctrl.Emit(ctx, ev); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Event injected over HTTP", "package", ev.Package, "event", ev.Name, "event_id", ev.ID)
	writeJSON(w, s.logger, http.StatusAccepted, emitResponse{ID: ev.ID})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Response encode failed", "error", err)
	}
}
