// Package rest exposes the user API over HTTP.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gallery/internal/api"
	"github.com/dmitrijs2005/gallery/internal/logging"
	"github.com/dmitrijs2005/gallery/internal/server/auth"
	"github.com/dmitrijs2005/gallery/internal/server/metrics"
	"github.com/dmitrijs2005/gallery/internal/server/models"
	"github.com/dmitrijs2005/gallery/internal/server/services"
	"github.com/gorilla/mux"
)

const defaultMaxBodyBytes = 1 << 20

// userIDPath matches only uuid ids so that fixed paths like /login never
// fall through to the protected per-user routes.
const userIDPath = api.PathUsers + "/{id:[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}}"

// UserService is the business logic the handlers delegate to.
type UserService interface {
	Register(ctx context.Context, userName, password string) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*services.LoginResult, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, caller *auth.Identity, id, userName, password string) (*models.User, error)
	DeleteUser(ctx context.Context, caller *auth.Identity, id string) error
	Ping(ctx context.Context) error
}

// TokenVerifier checks bearer tokens for the auth gate.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// Options tunes request handling. Zero values fall back to defaults.
type Options struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

type HTTPServer struct {
	address string
	users   UserService
	tokens  TokenVerifier
	metrics *metrics.Auth
	logger  logging.Logger
	opts    Options
	handler http.Handler
}

func NewHTTPServer(a string, l logging.Logger, us UserService, tv TokenVerifier, m *metrics.Auth, opts Options) *HTTPServer {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	s := &HTTPServer{
		address: a,
		users:   us,
		tokens:  tv,
		metrics: m,
		logger:  l.With("module", "http_server"),
		opts:    opts,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Use(s.recoverPanic, s.requestID, s.accessLog, s.timeout, s.maxBytes)

	r.HandleFunc(api.PathHealth, s.health).Methods(http.MethodGet)
	r.Handle(api.PathMetrics, s.metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc(api.PathLogin, s.login).Methods(http.MethodPost)
	r.HandleFunc(api.PathRegister, s.register).Methods(http.MethodPost)
	r.HandleFunc(api.PathCreate, s.register).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.authGate)
	protected.HandleFunc(api.PathUsers, s.listUsers).Methods(http.MethodGet)
	protected.HandleFunc(api.PathMe, s.me).Methods(http.MethodGet)
	protected.HandleFunc(userIDPath, s.getUser).Methods(http.MethodGet)
	protected.HandleFunc(userIDPath, s.updateUser).Methods(http.MethodPut)
	protected.HandleFunc(userIDPath, s.deleteUser).Methods(http.MethodDelete)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HTTPServer) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
