package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ganot/pdftalks/internal/sqlite"
	"github.com/ganot/pdftalks/internal/transport"
	"github.com/spf13/cobra"
)

var (
	backendRequireAuth bool
	backendEcho        bool
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run the reference backend for local development",
	Long: `Serve the backend HTTP surface over a local SQLite database.

Documents and chats are stored as-is. Questions are answered by a
placeholder engine unless --echo is set.`,
	RunE: runBackend,
}

func init() {
	backendCmd.Flags().BoolVar(&backendRequireAuth, "auth", false, "Require a bearer ID token on project routes")
	backendCmd.Flags().BoolVar(&backendEcho, "echo", false, "Answer questions by echoing them with the document name")
	rootCmd.AddCommand(backendCmd)
}

func runBackend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		return err
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		return err
	}

	deps := transport.Deps{
		Projects:       sqlite.NewProjectRepository(db),
		Documents:      sqlite.NewDocumentRepository(db),
		Chats:          sqlite.NewChatRepository(db),
		Logger:         logger,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	}
	if backendEcho {
		deps.Answerer = transport.EchoAnswerer{}
	}

	var auth func(http.Handler) http.Handler
	if backendRequireAuth {
		auth = transport.AuthMiddleware(transport.ClaimsResolver{})
	}

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(deps, auth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "auth", backendRequireAuth)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
