package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hookman/internal/config"
	"hookman/internal/dispatch"
	"hookman/internal/server"
	"hookman/internal/session"
	"hookman/internal/store"
	"hookman/pkg/fileutil"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	configFile string
	logFile    string
	dbPath     string
	host       string
	port       int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook manager server",
	Long: `Start the HTTP server that serves the front-end and the webhook API.

Settings come from flags, environment variables (WEBHOOK_PASSWORD,
DATABASE_PATH, HOST, PORT), an optional .env file, and an optional
hookman.yaml configuration file, in that order of precedence.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", os.Getenv("HOOKMAN_CONFIG_FILE"), "Path to hookman.yaml configuration file")
	serveCmd.Flags().StringVar(&logFile, "log", "", "Path to log file")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	serveCmd.Flags().StringVar(&host, "host", "", "Host to bind to")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load .env before reading any environment variables. Missing file is fine.
	_ = godotenv.Load()

	// The config file is optional; search default locations when not given
	if configFile == "" {
		configFile = fileutil.FindConfigOptional("hookman.yaml")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags win over environment and file
	if cmd.Flags().Changed("db") {
		cfg.DBPath = dbPath
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("log") {
		cfg.LogFile = logFile
	}

	logger, logFileHandle, err := setupLogging(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logFileHandle.Close()

	logger.Info("Starting hookman", "db", cfg.DBPath, "port", cfg.Port)

	if cfg.UsesDefaultPassword() {
		logger.Warn("Using the default password, set WEBHOOK_PASSWORD to change it")
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	sessions := session.NewManager(cfg.Password, logger)
	dispatcher := dispatch.NewDispatcher(logger)
	srv := server.NewServer(st, sessions, dispatcher, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Host, cfg.Port)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown failed", "error", err)
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}

	return nil
}

// setupLogging configures slog for file logging
// Returns both the logger and the file handle (caller must close the file)
func setupLogging(logPath string) (*slog.Logger, *os.File, error) {
	// Create log directory if needed
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Open log file with secure permissions
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// Create multi-writer to log to both file and console
	multiWriter := io.MultiWriter(os.Stdout, file)

	// Create JSON handler for structured logging
	handler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	logger := slog.New(handler)

	return logger, file, nil
}
