package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ganot/pdftalks/internal/identity"
	"github.com/ganot/pdftalks/internal/mcp"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the client as MCP tools over stdio",
	Long: `Start an MCP server on stdin/stdout that drives one client session.

Configure in an MCP client:
  {
    "mcpServers": {
      "pdftalks": {
        "command": "pdftalks",
        "args": ["mcp", "--token", "<id token>"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Stdout carries JSON-RPC.
	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctrl, err := newController(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// A failed start leaves the tools gated; get_status still answers.
	if err := ctrl.Start(ctx); err != nil {
		logger.Warn("backend not ready", "error", err)
	} else if cfg.Auth.IDToken != "" {
		if err := ctrl.Login(ctx, identity.StaticToken(cfg.Auth.IDToken)); err != nil {
			logger.Warn("sign in failed", "error", err)
		}
	}

	server := mcp.NewServer(mcp.Config{
		Controller: ctrl,
		Version:    Version,
		Logger:     logger,
	})

	logger.Info("starting stdio transport", "backend", cfg.Backend.URL)
	runErr := server.Run(ctx, &sdkmcp.StdioTransport{})

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	ctrl.Close(flushCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", runErr)
	}
	return nil
}
