package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/pdftalks/internal/domain/project"
)

// Options configures a Pipeline.
type Options struct {
	MaxBytes  int64
	Namespace string
}

// Pipeline validates, binds, and transmits documents, tracking one
// attempt per project.
//
// The analyzing phase is local only: the backend offers no completion
// signal, so it ends as soon as the upload call returns.
type Pipeline struct {
	binder   Binder
	uploader Uploader
	users    UserSource
	logger   *slog.Logger
	opts     Options

	mu       sync.Mutex
	attempts map[string]Attempt
	inflight map[string]bool
}

// NewPipeline creates a new upload pipeline.
func NewPipeline(binder Binder, uploader Uploader, users UserSource, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	return &Pipeline{
		binder:   binder,
		uploader: uploader,
		users:    users,
		logger:   logger,
		opts:     opts,
		attempts: make(map[string]Attempt),
		inflight: make(map[string]bool),
	}
}

// Upload runs one attempt against projectID. A rejected file never
// reaches the transport. When projectID is already bound the document is
// attached to a new project and uploaded under that project's id.
func (p *Pipeline) Upload(ctx context.Context, projectID string, f File) (*Result, error) {
	if !p.startAttempt(projectID, f.Name) {
		return nil, ErrUploadInFlight
	}

	if err := Validate(f, p.opts.MaxBytes); err != nil {
		var verr *ValidationError
		reason := err.Error()
		if errors.As(err, &verr) {
			reason = verr.Reason()
		}
		p.setPhase(projectID, f.Name, PhaseFailed, reason)
		p.logger.Info("upload rejected", "project_id", projectID, "file", f.Name, "reason", reason)
		return nil, err
	}
	if f.Open == nil {
		p.setPhase(projectID, f.Name, PhaseFailed, ErrNoContent.Error())
		return nil, ErrNoContent
	}

	userID, ok := p.users.UserID()
	if !ok {
		p.setPhase(projectID, f.Name, PhaseFailed, ErrNotAuthenticated.Error())
		return nil, ErrNotAuthenticated
	}

	proj, created, err := p.binder.BindFile(projectID, project.Attachment{
		FileName: f.Name,
		FileURL:  f.LocalURL,
	})
	if err != nil {
		p.setPhase(projectID, f.Name, PhaseFailed, err.Error())
		return nil, fmt.Errorf("binding file: %w", err)
	}
	if created {
		p.clearAttempt(projectID)
	}

	if !p.beginUpload(proj.ID, f.Name) {
		return nil, ErrUploadInFlight
	}
	serverName, err := p.transmit(ctx, proj.ID, userID, f)
	p.endUpload(proj.ID)

	if err != nil {
		p.setPhase(proj.ID, f.Name, PhaseFailed, err.Error())
		p.logger.Error("upload failed", "project_id", proj.ID, "file", f.Name, "error", err)
		return nil, fmt.Errorf("uploading file: %w", err)
	}

	p.setPhase(proj.ID, f.Name, PhaseAnalyzing, "")
	p.finish(proj.ID, serverName)
	p.logger.Info("upload complete", "project_id", proj.ID, "file", f.Name, "server_name", serverName, "created", created)

	return &Result{
		Project:    proj,
		Created:    created,
		ServerName: serverName,
		Phase:      PhaseReady,
	}, nil
}

// Attempt returns the latest attempt for a project.
func (p *Pipeline) Attempt(projectID string) (Attempt, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.attempts[projectID]
	return a, ok
}

// Phase returns the current phase for a project; PhaseIdle when none.
func (p *Pipeline) Phase(projectID string) Phase {
	if a, ok := p.Attempt(projectID); ok {
		return a.Phase
	}
	return PhaseIdle
}

// Analyzing reports whether the project is waiting on the backend.
func (p *Pipeline) Analyzing(projectID string) bool {
	switch p.Phase(projectID) {
	case PhaseUploading, PhaseAnalyzing:
		return true
	default:
		return false
	}
}

// Reset forgets every attempt that is not in flight.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.attempts {
		if !p.inflight[id] {
			delete(p.attempts, id)
		}
	}
}

func (p *Pipeline) transmit(ctx context.Context, projectID, userID string, f File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer rc.Close()

	return p.uploader.Upload(ctx, Request{
		ProjectID: projectID,
		FileName:  f.Name,
		MediaType: f.MediaType,
		Size:      f.Size,
		Content:   rc,
		Namespace: p.opts.Namespace,
		UserID:    userID,
	})
}

// startAttempt records a Validating attempt unless an upload for the
// project is in flight.
func (p *Pipeline) startAttempt(projectID, fileName string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[projectID] {
		return false
	}
	p.attempts[projectID] = Attempt{
		ProjectID: projectID,
		FileName:  fileName,
		Phase:     PhaseValidating,
		StartedAt: time.Now(),
	}
	return true
}

func (p *Pipeline) beginUpload(projectID, fileName string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[projectID] {
		return false
	}
	p.inflight[projectID] = true
	p.attempts[projectID] = Attempt{
		ProjectID: projectID,
		FileName:  fileName,
		Phase:     PhaseUploading,
		StartedAt: time.Now(),
	}
	return true
}

func (p *Pipeline) endUpload(projectID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, projectID)
}

// setPhase never touches the record of an upload in flight; that attempt
// owns it until endUpload.
func (p *Pipeline) setPhase(projectID, fileName string, phase Phase, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[projectID] {
		return
	}
	a, ok := p.attempts[projectID]
	if !ok {
		a = Attempt{ProjectID: projectID, StartedAt: time.Now()}
	}
	a.FileName = fileName
	a.Phase = phase
	a.Reason = reason
	p.attempts[projectID] = a
}

func (p *Pipeline) finish(projectID, serverName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a := p.attempts[projectID]
	a.Phase = PhaseReady
	a.ServerName = serverName
	a.Reason = ""
	p.attempts[projectID] = a
}

func (p *Pipeline) clearAttempt(projectID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.inflight[projectID] {
		delete(p.attempts, projectID)
	}
}
