package http

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"portalunk/internal/auth"
	applog "portalunk/internal/log"
	"portalunk/internal/middleware/ratelimit"
	"portalunk/internal/middleware/security"
	"portalunk/internal/middleware/trace"
	"portalunk/internal/services"
)

// Deps are the collaborators the API serves. Auth may be nil, which leaves
// /api open; cmd/portal only does that when no admin account is configured.
type Deps struct {
	Events    *services.EventService
	Payments  *services.PaymentService
	DJs       *services.DJService
	Dashboard *services.DashboardService
	Auth      *auth.Manager
	Ready     func(context.Context) error
	Logger    *applog.Logger
	Location  *time.Location

	AllowedOrigins []string
	RateLimit      ratelimit.Config

	// FilesDir is served under FilesPrefix when both are set. It backs the
	// URLs handed out by the local blob store.
	FilesDir    string
	FilesPrefix string

	// MaxUploadBytes bounds payment proof uploads.
	MaxUploadBytes int64
}

type Server struct {
	http.Server
	deps Deps

	logger          *applog.Logger
	location        *time.Location
	maxUploadBytes  int64
	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware
	metrics         *appMetrics

	shutdownOnce sync.Once
}

const defaultMaxUploadBytes = 10 << 20

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	detector := security.NewDetector()
	s := &Server{
		deps:            deps,
		logger:          logger.WithComponent(applog.ComponentHTTP),
		location:        loc,
		maxUploadBytes:  maxUpload,
		rateLimiter:     ratelimit.NewLimiter(deps.RateLimit),
		detector:        detector,
		traceMiddleware: trace.NewMiddleware(logger, detector.ExtractClientIP),
		metrics:         newAppMetrics(),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.buildHandler(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	if s.deps.Auth != nil {
		protected.Use(s.deps.Auth.Middleware)
	}
	protected.Use(security.NoStoreMiddleware)

	protected.HandleFunc("/auth/session", s.handleSession).Methods(http.MethodGet)

	protected.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	protected.HandleFunc("/dashboard/revenue", s.handleRevenueChart).Methods(http.MethodGet)

	protected.HandleFunc("/events", s.handleListEvents).Methods(http.MethodGet)
	protected.HandleFunc("/events", s.handleCreateEvent).Methods(http.MethodPost)
	protected.HandleFunc("/events/upcoming", s.handleUpcomingEvents).Methods(http.MethodGet)
	protected.HandleFunc("/events/{id}", s.handleGetEvent).Methods(http.MethodGet)
	protected.HandleFunc("/events/{id}", s.handleUpdateEvent).Methods(http.MethodPut, http.MethodPatch)
	protected.HandleFunc("/events/{id}", s.handleDeleteEvent).Methods(http.MethodDelete)
	protected.HandleFunc("/events/{id}/payment-proof", s.handleUploadPaymentProof).Methods(http.MethodPost)

	protected.HandleFunc("/payments", s.handleListPayments).Methods(http.MethodGet)
	protected.HandleFunc("/payments", s.handleCreatePayment).Methods(http.MethodPost)
	protected.HandleFunc("/payments/{id}", s.handleGetPayment).Methods(http.MethodGet)
	protected.HandleFunc("/payments/{id}/paid", s.handleMarkPaid).Methods(http.MethodPost)

	protected.HandleFunc("/producers/{id}/finance", s.handleProducerFinance).Methods(http.MethodGet)

	protected.HandleFunc("/djs", s.handleListDJs).Methods(http.MethodGet)
	protected.HandleFunc("/djs", s.handleCreateDJ).Methods(http.MethodPost)
	protected.HandleFunc("/djs/{id}", s.handleGetDJ).Methods(http.MethodGet)
	protected.HandleFunc("/djs/{id}", s.handleUpdateDJ).Methods(http.MethodPut, http.MethodPatch)
	protected.HandleFunc("/djs/{id}", s.handleDeleteDJ).Methods(http.MethodDelete)

	if s.deps.FilesDir != "" && strings.HasPrefix(s.deps.FilesPrefix, "/") {
		prefix := strings.TrimSuffix(s.deps.FilesPrefix, "/") + "/"
		var files http.Handler = http.StripPrefix(prefix, http.FileServer(noListingFS{http.Dir(s.deps.FilesDir)}))
		if s.deps.Auth != nil {
			files = s.deps.Auth.Middleware(files)
		}
		r.PathPrefix(prefix).Handler(security.NoStoreMiddleware(files)).Methods(http.MethodGet, http.MethodHead)
	}

	return r
}

// buildHandler wraps the router, outermost first: CORS, security headers,
// tracing, suspicious request logging, then rate limiting of writes.
func (s *Server) buildHandler(router http.Handler) http.Handler {
	var h http.Handler = router
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, ratelimit.MutationsOnly, func(w http.ResponseWriter, r *http.Request) {
		s.metrics.rateLimited()
		TooManyRequestsError().Write(w)
	})(h)
	h = s.detector.Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           600,
	})
	return c.Handler(h)
}

// Shutdown stops the rate limiter and drains the HTTP server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// noListingFS hides directory listings of the blob directory.
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
