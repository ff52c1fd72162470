package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ganot/pdftalks/internal/app"
	"github.com/ganot/pdftalks/internal/backend"
	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/identity"
	"github.com/ganot/pdftalks/internal/repository/mocks"
	"github.com/ganot/pdftalks/internal/testserver"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const samplePDF = "%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n%%EOF\n"

type env struct {
	server     *testserver.TestServer
	session    *identity.Session
	controller *app.Controller
}

func newEnv(t *testing.T, opts ...testserver.Option) *env {
	t.Helper()
	ts := testserver.New(t, opts...)
	session := identity.NewSession(nil)
	client, err := backend.New(backend.Options{BaseURL: ts.URL(), Tokens: session, Timeout: 5 * time.Second})
	require.NoError(t, err)

	controller := app.New(client, session, nil, app.Options{
		Chat: chat.Options{Debounce: 10 * time.Millisecond},
	})
	t.Cleanup(func() { controller.Close(context.Background()) })
	return &env{server: ts, session: session, controller: controller}
}

func token(t *testing.T, email string) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": email}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	return raw
}

func writePDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(samplePDF), 0o600))
	return path
}

func TestController_FirstRunFlow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.controller

	require.Equal(t, app.ViewWaiting, c.View())
	require.NoError(t, c.Start(ctx))
	require.Equal(t, app.ViewLanding, c.View())

	_, err := c.CreateProject(ctx)
	require.ErrorIs(t, err, app.ErrNotAuthenticated)

	require.NoError(t, c.Login(ctx, identity.StaticToken(token(t, "alice@example.com"))))
	projects := c.Projects()
	require.Len(t, projects, 1)
	require.Equal(t, project.PlaceholderTitle, projects[0].Title)
	require.Equal(t, app.ViewUpload, c.View())

	res, err := c.UploadPath(ctx, writePDF(t, "report.pdf"))
	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, projects[0].ID, res.Project.ID)
	require.Equal(t, app.ViewChat, c.View())

	active, ok := c.Active()
	require.True(t, ok)
	require.Equal(t, "report", active.Title)
	require.Empty(t, c.Messages())

	reply, err := c.Ask(ctx, "what is this?")
	require.NoError(t, err)
	require.Equal(t, chat.RoleBot, reply.Type)
	require.Len(t, c.Messages(), 2)

	c.Close(ctx)
	stored, err := e.server.Chats.Get(ctx, active.ID)
	require.NoError(t, err)
	require.Equal(t, c.Messages(), stored)
}

func TestController_ReturningUserSeesHistory(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.controller
	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Login(ctx, identity.StaticToken(token(t, "alice@example.com"))))

	res, err := c.UploadPath(ctx, writePDF(t, "notes.pdf"))
	require.NoError(t, err)
	_, err = c.Ask(ctx, "first question")
	require.NoError(t, err)
	c.Logout(ctx)

	require.Equal(t, app.ViewLanding, c.View())
	require.Empty(t, c.Projects())

	require.NoError(t, c.Login(ctx, identity.StaticToken(token(t, "alice@example.com"))))
	projects := c.Projects()
	require.Len(t, projects, 2)
	require.Equal(t, res.Project.ID, projects[0].ID)
	require.True(t, projects[0].Bound())
	require.False(t, projects[1].Bound())

	active, _ := c.Active()
	require.Equal(t, projects[1].ID, active.ID)

	require.NoError(t, c.Select(ctx, projects[0].ID))
	require.Equal(t, app.ViewChat, c.View())
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "first question", msgs[0].Content)
}

func TestController_UploadOnBoundProjectCreatesNew(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.controller
	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Login(ctx, identity.StaticToken(token(t, "alice@example.com"))))

	first, err := c.UploadPath(ctx, writePDF(t, "one.pdf"))
	require.NoError(t, err)
	second, err := c.UploadPath(ctx, writePDF(t, "two.pdf"))
	require.NoError(t, err)

	require.True(t, second.Created)
	require.NotEqual(t, first.Project.ID, second.Project.ID)
	active, _ := c.Active()
	require.Equal(t, second.Project.ID, active.ID)

	doc, err := e.server.Documents.Get(ctx, second.Project.ID)
	require.NoError(t, err)
	require.Equal(t, "two.pdf", doc.FileName)
}

func TestController_DeleteActiveFallsBack(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.controller
	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Login(ctx, identity.StaticToken(token(t, "alice@example.com"))))

	a, _ := c.Active()
	b, err := c.CreateProject(ctx)
	require.NoError(t, err)

	require.NoError(t, c.DeleteProject(ctx, b.ID))
	active, _ := c.Active()
	require.Equal(t, a.ID, active.ID)

	require.NoError(t, c.DeleteProject(ctx, a.ID))
	projects := c.Projects()
	require.Len(t, projects, 1)
	require.Equal(t, project.PlaceholderTitle, projects[0].Title)

	require.ErrorIs(t, c.Select(ctx, "missing"), project.ErrProjectNotFound)
}

func TestController_AskNeedsDocument(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.controller
	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Login(ctx, identity.StaticToken(token(t, "alice@example.com"))))

	_, err := c.Ask(ctx, "hello?")
	require.ErrorIs(t, err, app.ErrNoDocument)
}

func TestController_RejectedUploadStaysOnUploadView(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.controller
	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Login(ctx, identity.StaticToken(token(t, "alice@example.com"))))

	_, err := c.Upload(ctx, upload.File{Name: "big.pdf", MediaType: upload.MediaTypePDF, Size: 11 * 1024 * 1024})
	require.ErrorIs(t, err, upload.ErrTooLarge)
	require.Equal(t, app.ViewUpload, c.View())

	active, _ := c.Active()
	attempt, ok := c.Attempt(active.ID)
	require.True(t, ok)
	require.Equal(t, upload.PhaseFailed, attempt.Phase)
}

func TestController_BackendDown(t *testing.T) {
	ctx := context.Background()
	pinger := &mocks.Pinger{}
	pinger.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	c := app.New(&downBackend{Pinger: pinger}, nil, nil, app.Options{})
	require.ErrorIs(t, c.Start(ctx), app.ErrNotReady)
	require.Equal(t, app.ViewWaiting, c.View())

	_, err := c.CreateProject(ctx)
	require.ErrorIs(t, err, app.ErrNotReady)
}

type downBackend struct {
	*mocks.Pinger
	mocks.ProjectLister
	mocks.Uploader
	mocks.ChatBackend
}

func TestController_HydrateFailureStillUsable(t *testing.T) {
	ctx := context.Background()
	pinger := &mocks.Pinger{}
	pinger.On("Ping", mock.Anything).Return(nil)
	b := &downBackend{Pinger: pinger}
	b.ProjectLister.On("ListProjects", mock.Anything, "alice@example.com").Return(nil, errors.New("500"))

	c := app.New(b, nil, nil, app.Options{})
	require.NoError(t, c.Start(ctx))
	err := c.Login(ctx, identity.StaticToken(token(t, "alice@example.com")))
	require.Error(t, err)

	require.Len(t, c.Projects(), 1)
	require.Equal(t, app.ViewUpload, c.View())
}

func TestController_CredentialWithoutUserIsDropped(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	c := e.controller
	require.NoError(t, c.Start(ctx))

	err := c.Login(ctx, identity.StaticToken("not-a-jwt"))
	require.ErrorIs(t, err, app.ErrNotAuthenticated)
	require.False(t, c.Authenticated())
	require.Equal(t, app.ViewLanding, c.View())
	require.Empty(t, c.Projects())

	require.NoError(t, c.Login(ctx, identity.StaticToken(token(t, "alice@example.com"))))
	require.Len(t, c.Projects(), 1)
	require.Equal(t, app.ViewUpload, c.View())
}
