package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
	"github.com/yndnr/cryptogen-go/pkg/cryptogen"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// DefaultMaxTokensPerRequest caps the count accepted by GET /v1/tokens.
const DefaultMaxTokensPerRequest = 1000

// Session is the part of cryptogen.Session the handlers use.
type Session interface {
	ID() string
	Get(ctx context.Context, count int) ([]token.Token, time.Duration, error)
	Configure(ctx context.Context, update cryptogen.PoolUpdate) (cryptogen.PoolSettings, error)
	Err() error
}

// Handler serves the token API.
type Handler struct {
	session   Session
	logger    logger.Logger
	maxTokens int
	mux       *http.ServeMux
}

// New creates a Handler drawing tokens from session. maxTokens <= 0
// selects DefaultMaxTokensPerRequest.
func New(session Session, log logger.Logger, maxTokens int) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokensPerRequest
	}
	h := &Handler{
		session:   session,
		logger:    log,
		maxTokens: maxTokens,
		mux:       http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /v1/tokens", h.handleGetTokens)
	h.mux.HandleFunc("GET /v1/pool", h.handleGetPool)
	h.mux.HandleFunc("PUT /v1/pool", h.handleConfigurePool)
}

// requestLogger returns the handler logger tagged with the session and
// the HTTP request id.
func (h *Handler) requestLogger(w http.ResponseWriter, r *http.Request) logger.Logger {
	ctx := logger.WithSessionID(logger.WithLogger(r.Context(), h.logger), h.session.ID())
	l := logger.L(ctx)
	if id := w.Header().Get("X-Request-ID"); id != "" {
		l = l.With("http_request_id", id)
	}
	return l
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	requestID := w.Header().Get("X-Request-ID")
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details any) {
	requestID := w.Header().Get("X-Request-ID")
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// handleSessionError converts session errors to HTTP responses.
func (h *Handler) handleSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		return
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "CG-REQ-5040", "token request timed out", nil)
		return
	}

	var de *domain.DomainError
	if errors.As(err, &de) {
		status := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.requestLogger(w, r).Error("request failed", "path", r.URL.Path, "error", err)
		}
		h.writeError(w, status, de.Code, err.Error(), nil)
		return
	}

	h.requestLogger(w, r).Error("internal error", "path", r.URL.Path, "error", err)
	h.writeError(w, http.StatusInternalServerError, "CG-SYS-5000", "internal server error", nil)
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrChannelClosed),
		errors.Is(err, domain.ErrInitFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRefillFailed),
		errors.Is(err, domain.ErrRequestFailed),
		errors.Is(err, domain.ErrWorkerError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
