package testserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ganot/pdftalks/internal/sqlite"
	"github.com/ganot/pdftalks/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is the reference backend over an in-memory database.
type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Projects  *sqlite.ProjectRepository
	Documents *sqlite.DocumentRepository
	Chats     *sqlite.ChatRepository
}

// Option adjusts the server before it starts.
type Option func(*config)

type config struct {
	deps transport.Deps
	auth bool
}

// WithAnswerer replaces the default answer engine.
func WithAnswerer(a transport.Answerer) Option {
	return func(c *config) { c.deps.Answerer = a }
}

// WithAuth requires a bearer token whose claims name the user.
func WithAuth() Option {
	return func(c *config) { c.auth = true }
}

// WithMaxUploadBytes sets the server-side document ceiling.
func WithMaxUploadBytes(n int64) Option {
	return func(c *config) { c.deps.MaxUploadBytes = n }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.deps.Logger = logger }
}

// New starts a reference backend for the duration of the test.
func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	ts := &TestServer{
		DB:        db,
		Projects:  sqlite.NewProjectRepository(db),
		Documents: sqlite.NewDocumentRepository(db),
		Chats:     sqlite.NewChatRepository(db),
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.deps.Projects = ts.Projects
	cfg.deps.Documents = ts.Documents
	cfg.deps.Chats = ts.Chats

	var auth func(next http.Handler) http.Handler
	if cfg.auth {
		auth = transport.AuthMiddleware(transport.ClaimsResolver{})
	}
	ts.Server = httptest.NewServer(transport.NewServer(cfg.deps, auth))

	t.Cleanup(func() {
		ts.Server.Close()
		_ = db.Close()
	})

	return ts
}

// URL returns the base URL of the server.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}
