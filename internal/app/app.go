package app

import (
	"context"
	"fmt"

	"branchkit/internal/cli"
	"branchkit/internal/config"
	"branchkit/internal/db"
	"branchkit/internal/git"
	"branchkit/internal/logger"
	"branchkit/internal/server"
	"branchkit/internal/service"
	"branchkit/internal/sysinfo"
	"branchkit/internal/vault"
	"branchkit/internal/worker"
)

// App represents the main application
type App struct {
	Config  *config.GlobalConfig
	DB      *db.DB
	Vault   *vault.Vault
	Git     *git.Driver
	Pool    *worker.Pool
	Service *service.Service
	Server  *server.Server
	CLI     *cli.Manager
}

// New creates a new application instance
func New() *App {
	return &App{}
}

// Run starts the application
func (a *App) Run(args []string) error {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext wires every component and runs the CLI with args
func (a *App) RunWithContext(ctx context.Context, args []string) error {
	if err := a.init(ctx); err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 0 {
		return a.CLI.ExecuteWithContext(ctx, []string{"--help"})
	}
	return a.CLI.ExecuteWithContext(ctx, args)
}

func (a *App) init(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.Config = cfg

	logger.SetLevel(cfg.Logging.Level)
	if err := logger.EnableFile(logger.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}); err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	database, err := db.New(db.DefaultConfig(cfg.Storage.DatabasePath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database

	a.Vault = vault.New()
	a.Git = git.NewDriver(git.Options{
		SSHDir:              cfg.Git.SSHDir,
		InsecureSkipHostKey: cfg.Git.InsecureSkipHostKeyCheck,
		FallbackAuthorName:  cfg.Git.FallbackAuthorName,
		FallbackAuthorEmail: cfg.Git.FallbackAuthorEmail,
	})
	a.Pool = worker.NewPool(&worker.PoolConfig{MaxConcurrent: cfg.Workers.MaxConcurrent})

	svc, err := service.New(ctx, service.Options{
		Driver:      a.Git,
		History:     db.NewHistoryRepository(database),
		Settings:    db.NewSettingsRepository(database),
		Credentials: a.Vault,
		Pool:        a.Pool,
		System:      sysinfo.Detect(),
		Defaults:    cfg.Branch,
	})
	if err != nil {
		a.Close()
		return fmt.Errorf("failed to start branch service: %w", err)
	}
	a.Service = svc

	a.CLI = cli.New(cli.Dependencies{
		Config:      cfg,
		Service:     svc,
		Credentials: a.Vault,
		Serve:       a.serve,
	})
	return nil
}

// serve runs the HTTP API until ctx is cancelled
func (a *App) serve(ctx context.Context, host string, port int) error {
	serverConfig := server.DefaultConfig()
	serverConfig.Host = host
	serverConfig.Port = port

	a.Server = server.New(serverConfig, server.Dependencies{
		Service:     a.Service,
		Credentials: a.Vault,
		Database:    a.DB,
	})

	logger.WithFields(logger.Fields{
		"host":      host,
		"port":      port,
		"database":  a.DB.Path(),
		"operation": "server_start",
	}).Info("Starting branchkit server")
	return a.Server.Start(ctx)
}

// Close releases the database and the log file
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
		a.DB = nil
	}
	logger.Close()
}
