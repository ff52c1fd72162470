package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pdfFile(name string, size int64) upload.File {
	return upload.File{
		Name:      name,
		MediaType: upload.MediaTypePDF,
		Size:      size,
		LocalURL:  "file:///tmp/" + name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("%PDF-1.4 body")), nil
		},
	}
}

func authedUser() *mocks.UserSource {
	users := &mocks.UserSource{}
	users.On("UserID").Return("alice@example.com", true)
	return users
}

func TestPipeline_UploadUnboundProjectInPlace(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)
	target := store.CreateEmpty()

	uploader := &mocks.Uploader{}
	uploader.On("Upload", ctx, mock.MatchedBy(func(req upload.Request) bool {
		body, _ := io.ReadAll(req.Content)
		return req.ProjectID == target.ID &&
			req.FileName == "report.pdf" &&
			req.Namespace == upload.DefaultNamespace &&
			req.UserID == "alice@example.com" &&
			bytes.HasPrefix(body, []byte("%PDF"))
	})).Return("report.pdf", nil)

	pipeline := upload.NewPipeline(store, uploader, authedUser(), nil, upload.Options{})
	res, err := pipeline.Upload(ctx, target.ID, pdfFile("report.pdf", 1024))
	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, target.ID, res.Project.ID)
	require.Equal(t, "report", res.Project.Title)
	require.Equal(t, "report.pdf", res.ServerName)
	require.Equal(t, upload.PhaseReady, res.Phase)

	require.Equal(t, upload.PhaseReady, pipeline.Phase(target.ID))
	require.False(t, pipeline.Analyzing(target.ID))
	require.Equal(t, target.ID, store.ActiveID())
	uploader.AssertExpectations(t)
}

func TestPipeline_UploadBoundProjectCreatesNew(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)
	first := store.CreateEmpty()
	_, _, err := store.BindFile(first.ID, project.Attachment{FileName: "one.pdf", FileURL: "file:///one.pdf"})
	require.NoError(t, err)

	uploader := &mocks.Uploader{}
	uploader.On("Upload", ctx, mock.MatchedBy(func(req upload.Request) bool {
		return req.ProjectID != first.ID
	})).Return("two.pdf", nil)

	pipeline := upload.NewPipeline(store, uploader, authedUser(), nil, upload.Options{})
	res, err := pipeline.Upload(ctx, first.ID, pdfFile("two.pdf", 10))
	require.NoError(t, err)
	require.True(t, res.Created)
	require.NotEqual(t, first.ID, res.Project.ID)
	require.Equal(t, res.Project.ID, store.ActiveID())

	original, err := store.Get(first.ID)
	require.NoError(t, err)
	require.Equal(t, "one.pdf", original.FileName)
	require.Equal(t, upload.PhaseIdle, pipeline.Phase(first.ID))
	require.Equal(t, upload.PhaseReady, pipeline.Phase(res.Project.ID))
}

func TestPipeline_RejectionsNeverReachTransport(t *testing.T) {
	tests := []struct {
		name   string
		file   upload.File
		target error
		reason string
	}{
		{
			name:   "too large",
			file:   pdfFile("big.pdf", upload.DefaultMaxBytes+1),
			target: upload.ErrTooLarge,
			reason: "File size must be less than 10MB",
		},
		{
			name: "not pdf",
			file: upload.File{
				Name:      "notes.txt",
				MediaType: "text/plain",
				Size:      10,
				LocalURL:  "file:///tmp/notes.txt",
			},
			target: upload.ErrNotPDF,
			reason: "Please upload a PDF file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := project.NewStore(nil, nil)
			target := store.CreateEmpty()
			uploader := &mocks.Uploader{}

			pipeline := upload.NewPipeline(store, uploader, authedUser(), nil, upload.Options{})
			_, err := pipeline.Upload(context.Background(), target.ID, tt.file)
			require.ErrorIs(t, err, tt.target)

			var verr *upload.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.reason, verr.Reason())

			attempt, ok := pipeline.Attempt(target.ID)
			require.True(t, ok)
			require.Equal(t, upload.PhaseFailed, attempt.Phase)
			require.Equal(t, tt.reason, attempt.Reason)

			got, err := store.Get(target.ID)
			require.NoError(t, err)
			require.False(t, got.Bound())
			uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
		})
	}
}

func TestPipeline_ExactCeilingAccepted(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)
	target := store.CreateEmpty()
	uploader := &mocks.Uploader{}
	uploader.On("Upload", ctx, mock.Anything).Return("edge.pdf", nil)

	pipeline := upload.NewPipeline(store, uploader, authedUser(), nil, upload.Options{})
	_, err := pipeline.Upload(ctx, target.ID, pdfFile("edge.pdf", upload.DefaultMaxBytes))
	require.NoError(t, err)
}

func TestPipeline_RequiresUser(t *testing.T) {
	store := project.NewStore(nil, nil)
	target := store.CreateEmpty()
	users := &mocks.UserSource{}
	users.On("UserID").Return("", false)
	uploader := &mocks.Uploader{}

	pipeline := upload.NewPipeline(store, uploader, users, nil, upload.Options{})
	_, err := pipeline.Upload(context.Background(), target.ID, pdfFile("a.pdf", 1))
	require.ErrorIs(t, err, upload.ErrNotAuthenticated)

	got, err := store.Get(target.ID)
	require.NoError(t, err)
	require.False(t, got.Bound())
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestPipeline_TransportFailureKeepsBinding(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)
	target := store.CreateEmpty()
	uploader := &mocks.Uploader{}
	uploader.On("Upload", ctx, mock.Anything).Return("", errors.New("connection refused")).Once()

	pipeline := upload.NewPipeline(store, uploader, authedUser(), nil, upload.Options{})
	_, err := pipeline.Upload(ctx, target.ID, pdfFile("a.pdf", 1))
	require.Error(t, err)

	require.Equal(t, upload.PhaseFailed, pipeline.Phase(target.ID))
	got, err := store.Get(target.ID)
	require.NoError(t, err)
	require.True(t, got.Bound())
	uploader.AssertNumberOfCalls(t, "Upload", 1)
}

func TestPipeline_OneUploadInFlightPerProject(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)
	target := store.CreateEmpty()

	started := make(chan struct{})
	release := make(chan struct{})
	uploader := &mocks.Uploader{}
	uploader.On("Upload", ctx, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return("a.pdf", nil).Once()

	pipeline := upload.NewPipeline(store, uploader, authedUser(), nil, upload.Options{})

	errs := make(chan error, 1)
	go func() {
		_, err := pipeline.Upload(ctx, target.ID, pdfFile("a.pdf", 1))
		errs <- err
	}()
	<-started

	require.True(t, pipeline.Analyzing(target.ID))
	require.Equal(t, upload.PhaseUploading, pipeline.Phase(target.ID))

	_, err := pipeline.Upload(ctx, target.ID, pdfFile("b.pdf", 1))
	require.ErrorIs(t, err, upload.ErrUploadInFlight)

	close(release)
	require.NoError(t, <-errs)
	require.False(t, pipeline.Analyzing(target.ID))
	uploader.AssertNumberOfCalls(t, "Upload", 1)
}

func TestPipeline_CustomLimits(t *testing.T) {
	ctx := context.Background()
	store := project.NewStore(nil, nil)
	target := store.CreateEmpty()
	uploader := &mocks.Uploader{}
	uploader.On("Upload", ctx, mock.MatchedBy(func(req upload.Request) bool {
		return req.Namespace == "docs"
	})).Return("a.pdf", nil)

	pipeline := upload.NewPipeline(store, uploader, authedUser(), nil, upload.Options{
		MaxBytes:  2 * 1024 * 1024,
		Namespace: "docs",
	})

	_, err := pipeline.Upload(ctx, target.ID, pdfFile("big.pdf", 3*1024*1024))
	var verr *upload.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "File size must be less than 2MB", verr.Reason())

	_, err = pipeline.Upload(ctx, target.ID, pdfFile("a.pdf", 1024))
	require.NoError(t, err)
}
