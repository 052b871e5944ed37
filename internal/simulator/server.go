package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-irrigation/internal/infrastructure/logging"
)

const (
	gracefulShutdownTimeout = 10 * time.Second
	readTimeout             = 10 * time.Second
	writeTimeout            = 15 * time.Second
	idleTimeout             = 60 * time.Second
)

// Deps holds the dependencies of the simulator server.
type Deps struct {
	Config config.SimulatorConfig

	// Token, when set, must be presented as a bearer token on every
	// endpoint except /health.
	Token string

	Store  *Store
	Logger *logging.Logger
}

// Server serves the cloud API over a Store.
type Server struct {
	cfg    config.SimulatorConfig
	token  string
	store  *Store
	logger *logging.Logger
	server *http.Server
}

// New creates a server. It does not listen until Start.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If the store or logger is missing
func New(deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Server{
		cfg:    deps.Config,
		token:  deps.Token,
		store:  deps.Store,
		logger: deps.Logger,
	}, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start listens on the configured host and port in the background.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	go func() {
		s.logger.Info("simulator listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("simulator server error", "error", err)
		}
	}()
	return nil
}

// Close shuts the server down, waiting up to 10 seconds for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("simulator shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down simulator: %w", err)
	}
	return nil
}
