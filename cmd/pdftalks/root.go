package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ganot/pdftalks/internal/app"
	"github.com/ganot/pdftalks/internal/backend"
	"github.com/ganot/pdftalks/internal/config"
	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/identity"
	"github.com/spf13/cobra"
)

var (
	configPath string
	backendURL string
	idToken    string
)

var rootCmd = &cobra.Command{
	Use:   "pdftalks",
	Short: "Chat with PDF documents",
	Long: `pdftalks - upload PDF documents and ask questions about them

Each project holds one document and its chat history. Run without a
subcommand to start the terminal interface.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tuiCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $PDFTALKS_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&idToken, "token", "", "ID token used to sign in (overrides config)")
}

// loadConfig applies defaults, the config file, the environment, then flags.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("PDFTALKS_CONFIG_PATH")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if backendURL != "" {
		cfg.Backend.URL = backendURL
	}
	if idToken != "" {
		cfg.Auth.IDToken = idToken
	}
	return cfg, nil
}

// newLogger writes to the configured log file and, when console is not
// nil, to console as well. The returned close func is never nil.
func newLogger(cfg config.Config, console io.Writer) (*slog.Logger, func(), error) {
	var writers []io.Writer
	closeFn := func() {}

	if cfg.Log.Path != "" {
		logFile, err := openCappedLog(cfg.Log.Path)
		if err != nil {
			return nil, closeFn, fmt.Errorf("log file error: %w", err)
		}
		writers = append(writers, logFile)
		closeFn = func() { _ = logFile.Close() }
	}
	if console != nil {
		writers = append(writers, console)
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return logger, closeFn, nil
}

func newController(cfg config.Config, logger *slog.Logger) (*app.Controller, error) {
	session := identity.NewSession(logger.With("component", "identity"))
	client, err := backend.New(backend.Options{
		BaseURL:   cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
		Burst:     cfg.Backend.Burst,
		Tokens:    session,
		Logger:    logger.With("component", "backend"),
	})
	if err != nil {
		return nil, err
	}

	return app.New(client, session, logger, app.Options{
		Upload: upload.Options{
			MaxBytes:  cfg.Upload.MaxBytes,
			Namespace: cfg.Upload.Collection,
		},
		Chat: chat.Options{
			Debounce:      cfg.Chat.Debounce,
			ResultLimit:   cfg.Chat.ResultLimit,
			SerializeAsks: cfg.Chat.SerializeAsks,
		},
	}), nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
