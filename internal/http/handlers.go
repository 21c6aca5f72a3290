package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"portalunk/internal/auth"
	applog "portalunk/internal/log"
)

// appMetrics counts domain writes for /metrics.
type appMetrics struct {
	uptime           time.Time
	eventsCreated    int64
	paymentsRecorded int64
	paymentsPaid     int64
	proofsUploaded   int64
	loginFailures    int64
	rateLimitHits    int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now()}
}

func (m *appMetrics) rateLimited() { atomic.AddInt64(&m.rateLimitHits, 1) }

// handleHealth performs basic liveness check
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady checks the data backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if s.deps.Ready == nil {
		checks["backend"] = "ok"
	} else if err := s.deps.Ready(ctx); err != nil {
		checks["backend"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).String(),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	counters := []struct {
		name, help string
		value      int64
	}{
		{"http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests},
		{"http_server_errors_total", "Total number of 5xx responses", traceMetrics.ServerErrors},
		{"events_created_total", "Total number of events created", atomic.LoadInt64(&s.metrics.eventsCreated)},
		{"payments_recorded_total", "Total number of payments registered", atomic.LoadInt64(&s.metrics.paymentsRecorded)},
		{"payments_paid_total", "Total number of payments marked paid", atomic.LoadInt64(&s.metrics.paymentsPaid)},
		{"payment_proofs_uploaded_total", "Total number of payment proofs uploaded", atomic.LoadInt64(&s.metrics.proofsUploaded)},
		{"login_failures_total", "Total number of rejected logins", atomic.LoadInt64(&s.metrics.loginFailures)},
		{"rate_limit_hits_total", "Total number of rate limited requests", rateLimitMetrics.TotalHits},
		{"security_suspicious_requests_total", "Total number of suspicious requests", securityMetrics.SuspiciousRequests},
		{"security_invalid_ip_total", "Total number of invalid forwarded addresses", securityMetrics.InvalidIPAttempts},
	}

	w.WriteHeader(http.StatusOK)
	for _, c := range counters {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", c.name, c.help, c.name, c.name, c.value)
	}

	fmt.Fprintf(w, "# HELP http_response_time_average_microseconds Mean duration of completed requests\n")
	fmt.Fprintf(w, "# TYPE http_response_time_average_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_average_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP rate_limit_active_clients Clients tracked by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_active_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_active_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.metrics.uptime).Seconds())
}

type loginResponse struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin exchanges the admin credentials for a session cookie. The
// token is also returned for clients that send it as a bearer header.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		NotFoundError("authentication is disabled").Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	email := p.Get("email")
	password := p.Get("password")
	if email == "" || password == "" {
		UnprocessableEntityError("email", "email and password are required").Write(w)
		return
	}

	token, expires, err := s.deps.Auth.Login(email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			atomic.AddInt64(&s.metrics.loginFailures, 1)
			applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).WarnContext(r.Context(), "Login rejected",
				applog.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		writeError(w, r, "login", err)
		return
	}

	s.deps.Auth.SetCookie(w, token, expires)
	writeJSON(w, http.StatusOK, loginResponse{Email: email, Token: token, ExpiresAt: expires})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth != nil {
		s.deps.Auth.ClearCookie(w)
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleSession reports who is logged in.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"email":         claims.Email,
		"expires_at":    claims.ExpiresAt,
	})
}
