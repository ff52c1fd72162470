package mcp

import (
	"context"
	"log/slog"

	"github.com/ganot/pdftalks/internal/app"
	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Controller is the client session the tools operate on.
type Controller interface {
	Projects() []project.Project
	Active() (project.Project, bool)
	Select(ctx context.Context, id string) error
	CreateProject(ctx context.Context) (project.Project, error)
	DeleteProject(ctx context.Context, id string) error
	UploadPath(ctx context.Context, path string) (*upload.Result, error)
	Ask(ctx context.Context, question string) (chat.Message, error)
	Messages() []chat.Message
	Ready() bool
	Authenticated() bool
	UserID() (string, bool)
	View() app.View
}

var _ Controller = (*app.Controller)(nil)

// Config contains server configuration.
type Config struct {
	Controller Controller
	Version    string
	Logger     *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "pdftalks",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(readinessMiddleware(cfg.Controller))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Controller)

	return server
}
