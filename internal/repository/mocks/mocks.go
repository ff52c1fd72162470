package mocks

import (
	"context"

	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/stretchr/testify/mock"
)

// Pinger is a mock for readiness.Pinger.
type Pinger struct {
	mock.Mock
}

func (m *Pinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ProjectLister is a mock for project.Lister.
type ProjectLister struct {
	mock.Mock
}

func (m *ProjectLister) ListProjects(ctx context.Context, userID string) ([]project.Project, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Uploader is a mock for upload.Uploader.
type Uploader struct {
	mock.Mock
}

func (m *Uploader) Upload(ctx context.Context, req upload.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// ChatBackend is a mock for chat.Backend.
type ChatBackend struct {
	mock.Mock
}

func (m *ChatBackend) GetChat(ctx context.Context, projectID string) ([]chat.Message, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]chat.Message); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ChatBackend) UpdateChat(ctx context.Context, projectID string, messages []chat.Message) error {
	args := m.Called(ctx, projectID, messages)
	return args.Error(0)
}

func (m *ChatBackend) Ask(ctx context.Context, q chat.Question) (string, error) {
	args := m.Called(ctx, q)
	return args.String(0), args.Error(1)
}

// UserSource is a mock for upload.UserSource.
type UserSource struct {
	mock.Mock
}

func (m *UserSource) UserID() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}
