package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the ordered project collection and the active project id.
//
// Every mutation ends with EnsureNonEmpty, so callers never observe an
// empty collection or an active id that does not resolve.
type Store struct {
	lister Lister
	logger *slog.Logger

	mu       sync.Mutex
	projects []Project
	activeID string
}

// NewStore creates a new project store.
func NewStore(lister Lister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{lister: lister, logger: logger}
}

// Hydrate replaces the collection with the user's remote projects and
// appends a fresh placeholder, which becomes active.
//
// On a listing failure the collection is left empty and repaired to a
// single placeholder; the error is returned for the caller to surface.
func (s *Store) Hydrate(ctx context.Context, userID string) ([]Project, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNoUser
	}

	remote, err := s.lister.ListProjects(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Error("fetching projects failed", "user_id", userID, "error", err)
		s.projects = nil
		s.ensureNonEmptyLocked()
		return s.snapshotLocked(), fmt.Errorf("listing projects: %w", err)
	}

	s.projects = dedupe(remote)
	placeholder := newPlaceholder()
	s.projects = append(s.projects, placeholder)
	s.activeID = placeholder.ID
	s.logger.Info("projects hydrated", "user_id", userID, "remote", len(remote))

	s.ensureNonEmptyLocked()
	return s.snapshotLocked(), nil
}

// EnsureNonEmpty repairs the collection invariants. It is a no-op on a
// valid state.
func (s *Store) EnsureNonEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureNonEmptyLocked()
}

// Select activates the project with the given id.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return ErrProjectNotFound
	}
	s.activeID = id
	return nil
}

// CreateEmpty appends a placeholder project and activates it.
func (s *Store) CreateEmpty() Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	proj := newPlaceholder()
	s.projects = append(s.projects, proj)
	s.activeID = proj.ID
	return proj
}

// BindFile attaches a document to a project.
//
// An unbound project is updated in place and keeps its id. A bound (or
// unknown) project is left untouched; a new bound project is created and
// activated instead. The returned flag reports whether a project was created.
func (s *Store) BindFile(projectID string, att Attachment) (Project, bool, error) {
	if strings.TrimSpace(att.FileName) == "" || strings.TrimSpace(att.FileURL) == "" {
		return Project{}, false, ErrInvalidAttachment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(projectID); i >= 0 && !s.projects[i].Bound() {
		s.projects[i].Title = TitleFromFileName(att.FileName)
		s.projects[i].FileName = att.FileName
		s.projects[i].FileURL = att.FileURL
		return s.projects[i], false, nil
	}

	proj := Project{
		ID:         uuid.NewString(),
		Title:      TitleFromFileName(att.FileName),
		FileName:   att.FileName,
		UploadDate: time.Now(),
		FileURL:    att.FileURL,
	}
	s.projects = append(s.projects, proj)
	s.activeID = proj.ID
	s.logger.Debug("bound project kept, created new project", "from", projectID, "project_id", proj.ID)
	return proj, true, nil
}

// Remove deletes a project. When the active project is removed the first
// remaining project becomes active; removing the last project leaves a
// fresh placeholder.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrProjectNotFound
	}
	s.projects = append(s.projects[:i:i], s.projects[i+1:]...)
	s.ensureNonEmptyLocked()
	return nil
}

// Reset drops every project. The store is left empty until the next
// Hydrate or CreateEmpty.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = nil
	s.activeID = ""
}

// Projects returns a copy of the collection in display order.
func (s *Store) Projects() []Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the project with the given id.
func (s *Store) Get(id string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Project{}, ErrProjectNotFound
	}
	return s.projects[i], nil
}

// Active returns the active project, if any.
func (s *Store) Active() (Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(s.activeID)
	if i < 0 {
		return Project{}, false
	}
	return s.projects[i], true
}

// ActiveID returns the active project id, or "" when none.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *Store) ensureNonEmptyLocked() {
	if len(s.projects) == 0 {
		proj := newPlaceholder()
		s.projects = []Project{proj}
		s.activeID = proj.ID
		s.logger.Debug("empty collection repaired", "project_id", proj.ID)
		return
	}
	if s.indexLocked(s.activeID) < 0 {
		s.logger.Debug("dangling active project repaired", "from", s.activeID, "to", s.projects[0].ID)
		s.activeID = s.projects[0].ID
	}
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []Project {
	out := make([]Project, len(s.projects))
	copy(out, s.projects)
	return out
}

func newPlaceholder() Project {
	return Project{
		ID:         uuid.NewString(),
		Title:      PlaceholderTitle,
		UploadDate: time.Now(),
	}
}

// dedupe keeps the first occurrence of each id; remote lists are not
// trusted to be unique.
func dedupe(in []Project) []Project {
	seen := make(map[string]struct{}, len(in))
	out := make([]Project, 0, len(in))
	for _, p := range in {
		if p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
