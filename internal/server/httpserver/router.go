package httpserver

import (
	"net/http"

	"github.com/yndnr/cryptogen-go/internal/server/httpserver/handler"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Session serves token and pool requests.
	Session handler.Session

	// Logger for request logging.
	Logger logger.Logger

	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string

	// MaxTokensPerRequest caps GET /v1/tokens (0 selects the handler default).
	MaxTokensPerRequest int
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	h := handler.New(cfg.Session, log, cfg.MaxTokensPerRequest)

	mux := http.NewServeMux()
	mux.Handle("/", h)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, cfg.Metrics)
	}

	// Order: Recover -> RequestID -> AccessLog -> mux
	return Chain(mux, Recover(log), RequestID(), AccessLog(log))
}
