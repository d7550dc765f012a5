package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/groomer-price-service/internal/admission"
	"github.com/couchcryptid/groomer-price-service/internal/domain"
	"github.com/couchcryptid/groomer-price-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Quoter answers validated price requests.
type Quoter interface {
	Quote(ctx context.Context, req domain.PriceRequest) (domain.Quote, error)
}

// Options holds the optional parts of the HTTP surface.
type Options struct {
	// StaticDir, when set, is served at / for paths no other route claims.
	StaticDir      string
	AllowedOrigins []string
}

// Server exposes the price API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	quoter     Quoter
	limiter    *admission.RateLimiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server. A nil limiter disables rate limiting.
func NewServer(addr string, quoter Quoter, ready sharedobs.ReadinessChecker, limiter *admission.RateLimiter, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		quoter:  quoter,
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /api/price", s.handlePrice)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/api/", s.rateLimit(api))
	if opts.StaticDir != "" {
		mux.Handle("/", staticHandler(opts.StaticDir))
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           requestID(newCORS(opts.AllowedOrigins).Handler(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", headerRequestID},
		ExposedHeaders: []string{
			headerRequestID,
			headerRetryAfter,
			headerRateLimitLimit,
			headerRateLimitRemaining,
			headerRateLimitReset,
		},
	})
}

func staticHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		files.ServeHTTP(w, r)
	})
}
