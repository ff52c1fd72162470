// Package app composes the client components into one session context.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/readiness"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/identity"
	"github.com/ganot/pdftalks/internal/repository"
	"golang.org/x/oauth2"
)

// Options configures a Controller.
type Options struct {
	Upload upload.Options
	Chat   chat.Options
}

// Controller owns the session state: readiness, identity, projects,
// uploads, and chat. Every project operation is keyed by the active
// project id.
type Controller struct {
	prober   *readiness.Prober
	session  *identity.Session
	store    *project.Store
	pipeline *upload.Pipeline
	engine   *chat.Engine
	logger   *slog.Logger

	mu      sync.Mutex
	chatFor string
}

// New creates a new controller over a backend and an identity session.
func New(backend repository.Backend, session *identity.Session, logger *slog.Logger, opts Options) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if session == nil {
		session = identity.NewSession(logger.With("component", "identity"))
	}

	store := project.NewStore(backend, logger.With("component", "projects"))
	c := &Controller{
		prober:   readiness.NewProber(backend, logger.With("component", "readiness")),
		session:  session,
		store:    store,
		pipeline: upload.NewPipeline(store, backend, session, logger.With("component", "upload"), opts.Upload),
		engine:   chat.NewEngine(backend, logger.With("component", "chat"), opts.Chat),
		logger:   logger,
	}

	session.OnChange(func(authenticated bool) {
		if !authenticated {
			c.reset()
		}
	})
	return c
}

// Start probes the backend and, when a credential is already held,
// hydrates the project list.
func (c *Controller) Start(ctx context.Context) error {
	if c.prober.Probe(ctx) != readiness.Ready {
		return ErrNotReady
	}
	if !c.session.Authenticated() {
		return nil
	}
	return c.hydrate(ctx)
}

// Login authenticates with the identity provider and hydrates projects.
// A credential without a readable user id is dropped again.
func (c *Controller) Login(ctx context.Context, src oauth2.TokenSource) error {
	if _, err := c.session.Authenticate(ctx, src); err != nil {
		return fmt.Errorf("signing in: %w", err)
	}
	if _, ok := c.session.UserID(); !ok {
		c.session.Logout()
		return fmt.Errorf("signing in: credential has no user id: %w", ErrNotAuthenticated)
	}
	if !c.prober.Ready() {
		return ErrNotReady
	}
	return c.hydrate(ctx)
}

// Logout flushes pending chat writes, then drops the credential and all
// project and chat state.
func (c *Controller) Logout(ctx context.Context) {
	c.engine.Flush(ctx)
	c.session.Logout()
}

// Select activates a project and loads its chat when it has a document.
func (c *Controller) Select(ctx context.Context, id string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if err := c.store.Select(id); err != nil {
		return err
	}
	c.syncChat(ctx)
	return nil
}

// CreateProject appends an empty project and activates it.
func (c *Controller) CreateProject(ctx context.Context) (project.Project, error) {
	if err := c.requireSession(); err != nil {
		return project.Project{}, err
	}
	proj := c.store.CreateEmpty()
	c.syncChat(ctx)
	return proj, nil
}

// DeleteProject removes a project locally. The backend keeps it, so it
// returns on the next sign-in.
func (c *Controller) DeleteProject(ctx context.Context, id string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if err := c.store.Remove(id); err != nil {
		return err
	}
	c.syncChat(ctx)
	return nil
}

// Upload sends a document for the active project.
func (c *Controller) Upload(ctx context.Context, f upload.File) (*upload.Result, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	res, err := c.pipeline.Upload(ctx, c.store.ActiveID(), f)
	if err != nil {
		return nil, err
	}
	c.syncChat(ctx)
	return res, nil
}

// UploadPath reads a local file and uploads it for the active project.
func (c *Controller) UploadPath(ctx context.Context, path string) (*upload.Result, error) {
	f, err := upload.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return c.Upload(ctx, f)
}

// Ask sends a question about the active project's document.
func (c *Controller) Ask(ctx context.Context, question string) (chat.Message, error) {
	if err := c.requireSession(); err != nil {
		return chat.Message{}, err
	}
	active, ok := c.store.Active()
	if !ok || !active.Bound() {
		return chat.Message{}, ErrNoDocument
	}
	return c.engine.Ask(ctx, active.ID, question)
}

// Projects returns the project list in display order.
func (c *Controller) Projects() []project.Project {
	return c.store.Projects()
}

// Active returns the active project.
func (c *Controller) Active() (project.Project, bool) {
	return c.store.Active()
}

// Messages returns the active project's chat history.
func (c *Controller) Messages() []chat.Message {
	id := c.store.ActiveID()
	if id == "" {
		return []chat.Message{}
	}
	return c.engine.Messages(id)
}

// Attempt returns the latest upload attempt for a project.
func (c *Controller) Attempt(projectID string) (upload.Attempt, bool) {
	return c.pipeline.Attempt(projectID)
}

// Ready reports the last liveness probe result.
func (c *Controller) Ready() bool {
	return c.prober.Ready()
}

// Authenticated reports whether a user is signed in.
func (c *Controller) Authenticated() bool {
	return c.session.Authenticated()
}

// UserID returns the signed-in user's identifier.
func (c *Controller) UserID() (string, bool) {
	return c.session.UserID()
}

// View selects the screen for the current state.
func (c *Controller) View() View {
	if !c.prober.Ready() {
		return ViewWaiting
	}
	if !c.session.Authenticated() {
		return ViewLanding
	}
	active, ok := c.store.Active()
	switch {
	case !ok:
		return ViewUpload
	case c.pipeline.Analyzing(active.ID):
		return ViewAnalyzing
	case !active.Bound():
		return ViewUpload
	default:
		return ViewChat
	}
}

// Close flushes pending chat writes.
func (c *Controller) Close(ctx context.Context) {
	c.engine.Flush(ctx)
}

func (c *Controller) hydrate(ctx context.Context) error {
	userID, ok := c.session.UserID()
	if !ok {
		c.session.Logout()
		return ErrNotAuthenticated
	}
	if _, err := c.store.Hydrate(ctx, userID); err != nil {
		return err
	}
	c.syncChat(ctx)
	return nil
}

func (c *Controller) requireSession() error {
	if !c.prober.Ready() {
		return ErrNotReady
	}
	if !c.session.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// syncChat loads the chat history when the active project changed to a
// bound project.
func (c *Controller) syncChat(ctx context.Context) {
	active, ok := c.store.Active()

	c.mu.Lock()
	if !ok || !active.Bound() {
		c.chatFor = ""
		c.mu.Unlock()
		return
	}
	if c.chatFor == active.ID {
		c.mu.Unlock()
		return
	}
	c.chatFor = active.ID
	c.mu.Unlock()

	if _, err := c.engine.Activate(ctx, active.ID); err != nil {
		c.logger.Warn("chat history unavailable", "project_id", active.ID, "error", err)
	}
}

func (c *Controller) reset() {
	c.store.Reset()
	c.engine.Reset()
	c.pipeline.Reset()

	c.mu.Lock()
	c.chatFor = ""
	c.mu.Unlock()
	c.logger.Info("session state cleared")
}
