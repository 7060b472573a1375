package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/identity"
	"github.com/jonathan/cojournalist/internal/logging"
	"github.com/jonathan/cojournalist/internal/metrics"
	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/server/middleware"
	"github.com/jonathan/cojournalist/internal/server/ratelimit"
	"github.com/jonathan/cojournalist/internal/session"
	"github.com/jonathan/cojournalist/internal/types"
	"go.uber.org/zap"
)

// IdentityProvider signs callers in and out of the hosted identity provider.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignUp(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Users is the user-facing persistence surface of the API.
type Users interface {
	ResolveUser(ctx context.Context, identity *types.Identity) (*types.User, bool)
	EnsureUser(ctx context.Context, externalID, email string) (uuid.UUID, bool)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options are the collaborators of a Server. Identity and DB may be nil.
type Options struct {
	Port          int
	Sessions      *session.Manager
	Users         Users
	Identity      IdentityProvider
	Registry      *modes.Registry
	Tokens        *JWTService
	RateLimiter   *ratelimit.Limiter
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
	DB            Pinger
	SweepInterval time.Duration
}

// Server represents the HTTP server
type Server struct {
	httpServer    *http.Server
	handler       http.Handler
	sessions      *session.Manager
	users         Users
	identity      IdentityProvider
	registry      *modes.Registry
	tokens        *JWTService
	rateLimiter   *ratelimit.Limiter
	metrics       *metrics.Metrics
	logger        *zap.Logger
	db            Pinger
	validator     *validator.Validate
	sweepInterval time.Duration
}

// New creates a new server instance
func New(opts Options) *Server {
	s := &Server{
		sessions:      opts.Sessions,
		users:         opts.Users,
		identity:      opts.Identity,
		registry:      opts.Registry,
		tokens:        opts.Tokens,
		rateLimiter:   opts.RateLimiter,
		metrics:       opts.Metrics,
		logger:        logging.OrNop(opts.Logger),
		db:            opts.DB,
		validator:     validator.New(),
		sweepInterval: opts.SweepInterval,
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}

	auth := middleware.AuthMiddleware(s.tokens.AsTokenValidator())
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /modes", s.handleListModes)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Auth routes
	mux.HandleFunc("POST /auth/signin", s.handleSignIn)
	mux.Handle("POST /auth/signout", protected(s.handleSignOut))
	mux.Handle("GET /users/me", protected(s.handleMe))

	// Session routes
	mux.Handle("POST /sessions", protected(s.handleCreateSession))
	mux.Handle("GET /sessions/{id}", protected(s.handleGetSession))
	mux.Handle("PUT /sessions/{id}/mode", protected(s.handleSetMode))
	mux.Handle("PUT /sessions/{id}/input", protected(s.handleSetInput))
	mux.Handle("POST /sessions/{id}/chat", protected(s.handleChat))
	mux.Handle("POST /sessions/{id}/chat/stream", protected(s.handleChatStream))
	mux.Handle("PATCH /sessions/{id}/draft", protected(s.handleUpdateDraft))
	mux.Handle("POST /sessions/{id}/scrape", protected(s.handleSubmitScrape))
	mux.Handle("GET /sessions/{id}/jobs", protected(s.handleListJobs))
	mux.Handle("DELETE /sessions/{id}/jobs/{job_id}", protected(s.handleDeleteJob))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full middleware-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully. Idle
// sessions are swept on every tick of the sweep interval.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	if s.sweepInterval > 0 {
		go s.sweepLoop(ctx)
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.sessions.Sweep(now)
		case <-ctx.Done():
			return
		}
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE responses streaming through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to its status. Internal errors are logged and hidden.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
		s.errorResponse(w, status, http.StatusText(status))
		return
	}
	s.errorResponse(w, status, err.Error())
}

// decodeJSON decodes the request body into dst and validates it.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	if err := s.validator.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds() + 0.5)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.String("client", s.extractClientID(r)),
		zap.Int("limit", info.Limit),
	)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
