package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"branchkit/internal/branch"
	"branchkit/internal/constants"
	"branchkit/internal/db"
	"branchkit/internal/git"
	"branchkit/internal/logger"
	"branchkit/internal/service"
	"branchkit/internal/sysinfo"
	"branchkit/internal/vault"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// CORS settings
	AllowOrigins []string
	AllowHeaders []string
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            constants.DefaultServerHost,
		Port:            constants.DefaultServerPort,
		ReadTimeout:     constants.DefaultServerReadTimeout,
		WriteTimeout:    constants.DefaultServerWriteTimeout,
		ShutdownTimeout: constants.DefaultServerShutdownTimeout,
		AllowOrigins:    []string{"http://localhost", "http://127.0.0.1"},
		AllowHeaders:    []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}
}

// BranchService is the service surface the API exposes
type BranchService interface {
	CloneRepository(ctx context.Context, url, dest string, inline *vault.Credentials, progress io.Writer) (git.CloneResult, error)
	InitializeRepository(ctx context.Context, path string) (git.CloneResult, error)
	RepositoryStatus(ctx context.Context, path string) (git.Status, error)
	RepositoryExists(ctx context.Context, path string) (bool, error)
	AddAll(ctx context.Context, path string) (git.CloneResult, error)
	Commit(ctx context.Context, path, message string) (git.CloneResult, error)

	ListBranches(ctx context.Context, path string) ([]git.Branch, error)
	CreateBranch(ctx context.Context, path string, req service.CreateBranchRequest) (service.CreateResult, error)
	GenerateBranchName(p branch.Pattern) (string, error)
	SuggestBranchPattern(workspace string, featureType *branch.FeatureType) branch.Pattern
	GetSuggestedBranches(workspace string) []service.Suggestion
	GetBranchHistory(ctx context.Context, limit int) ([]service.HistoryEntry, error)
	BranchConfig() branch.Config
	UpdateConfig(ctx context.Context, cfg branch.Config) error
	SystemInfo() sysinfo.Info
}

// CredentialStore is the credential vault surface the API exposes
type CredentialStore interface {
	Store(key string, creds vault.Credentials) error
	Get(key string) (vault.Credentials, error)
	Delete(key string) error
	Exists(key string) bool
}

// HealthChecker reports storage health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	GetSchemaVersion(ctx context.Context) (db.SchemaVersion, error)
}

// Dependencies are the collaborators a Server serves
type Dependencies struct {
	Service     BranchService
	Credentials CredentialStore
	Database    HealthChecker
}

// Server represents the main HTTP server
type Server struct {
	config    *Config
	echo      *echo.Echo
	svc       BranchService
	creds     CredentialStore
	db        HealthChecker
	startTime time.Time
	routed    bool
}

// New creates a new server instance
func New(cfg *Config, deps Dependencies) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	return &Server{
		config:    cfg,
		echo:      e,
		svc:       deps.Service,
		creds:     deps.Credentials,
		db:        deps.Database,
		startTime: time.Now(),
	}
}

// Echo returns the Echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	s.setup()
	return s.echo
}

func (s *Server) setup() {
	if s.routed {
		return
	}
	s.routed = true
	s.setupMiddleware()
	s.setupRoutes()
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.setup()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	log := logger.WithField("addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()
	log.Info("API server listening")

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(logger.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowOrigins,
		AllowHeaders: s.config.AllowHeaders,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	s.echo.Use(contextEnricher())
}
