package devapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/client/client"
	"github.com/dmitrijs2005/fieldsales/internal/clock"
	"github.com/dmitrijs2005/fieldsales/internal/common"
	"github.com/dmitrijs2005/fieldsales/internal/logging"
	"github.com/google/uuid"
)

const (
	VersionPath     = "/version.json"
	shutdownTimeout = 5 * time.Second
)

type ctxKey string

const (
	requestIDKey ctxKey = "requestID"
	userIDKey    ctxKey = "userID"
)

// Server is an in-memory implementation of the sales API endpoints the
// client consumes.
type Server struct {
	cfg    Config
	secret []byte
	logger logging.Logger
	clock  *clock.Clock
	mux    *http.ServeMux

	mu       sync.Mutex
	users    map[string]*user
	refresh  map[string]refreshToken
	events   []DayEventRecord
	invoices []map[string]any
	stats    Stats
}

// Stats counts handled calls; tests use it to observe client behavior.
type Stats struct {
	Logins    int
	Refreshes int
	Rejected  int
}

type Option func(*Server)

// WithClock replaces the server clock, e.g. with a fixed "now".
func WithClock(c *clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

func NewServer(cfg Config, l logging.Logger, opts ...Option) *Server {
	if l == nil {
		l = logging.Discard()
	}
	s := &Server{
		cfg:     cfg,
		secret:  []byte(cfg.SecretKey),
		logger:  l.With("module", "devapi"),
		clock:   clock.Default(),
		mux:     http.NewServeMux(),
		users:   seedUsers(),
		refresh: make(map[string]refreshToken),
	}
	for _, o := range opts {
		o(s)
	}
	s.invoices = seedInvoices(s.clock.Now())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST "+client.LoginPath, s.handleLogin)
	s.mux.HandleFunc("POST "+client.RefreshPath, s.handleRefresh)
	s.mux.Handle("POST "+client.DayStartPath, s.authorized(s.handleDayEvent(true)))
	s.mux.Handle("POST "+client.DayEndPath, s.authorized(s.handleDayEvent(false)))
	s.mux.Handle("GET "+client.DashboardPath+"/{territoryId}/{userId}", s.authorized(http.HandlerFunc(s.handleDashboard)))
	s.mux.Handle("GET "+client.InvoicesPath, s.authorized(http.HandlerFunc(s.handleInvoices)))
	s.mux.HandleFunc("GET "+VersionPath, s.handleVersion)
}

// Handler returns the API with request id and access logging applied.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping dev API server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting dev API server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Events returns a copy of the received day notifications.
func (s *Server) Events() []DayEventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DayEventRecord(nil), s.events...)
}

func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// RevokeRefreshTokens forgets every issued refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]refreshToken)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		s.logger.Debug(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status,
			"request_id", id, "took", time.Since(started).String())
	})
}

// authorized checks the bearer access token and puts the user id in the
// request context.
func (s *Server) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix)
		if !ok || token == "" {
			s.reject(w, common.ErrorUnauthorized.Error())
			return
		}

		userID, err := UserIDFromToken(token, s.secret, s.clock.Now())
		if err != nil {
			s.reject(w, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func (s *Server) reject(w http.ResponseWriter, msg string) {
	s.mu.Lock()
	s.stats.Rejected++
	s.mu.Unlock()
	writeJSON(w, http.StatusUnauthorized, envelope{Code: http.StatusUnauthorized, Message: msg})
}
