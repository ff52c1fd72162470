package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestDocumentRepository_PutAndGet(t *testing.T) {
	db := NewTestDB(t)
	projects := NewProjectRepository(db)
	docs := NewDocumentRepository(db)
	ctx := context.Background()

	require.NoError(t, projects.Upsert(ctx, "alice", project.Project{ID: "p1", Title: "r", UploadDate: time.Now()}))

	doc := upload.Document{
		ProjectID: "p1",
		FileName:  "r.pdf",
		MediaType: upload.MediaTypePDF,
		Namespace: upload.DefaultNamespace,
		Content:   []byte("%PDF-1.4 test"),
		StoredAt:  time.Now(),
	}
	require.NoError(t, docs.Put(ctx, doc))

	got, err := docs.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, doc.Content, got.Content)
	require.Equal(t, "r.pdf", got.FileName)
	require.Equal(t, upload.DefaultNamespace, got.Namespace)

	_, err = docs.Get(ctx, "missing")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestDocumentRepository_RequiresProject(t *testing.T) {
	docs := NewDocumentRepository(NewTestDB(t))

	err := docs.Put(context.Background(), upload.Document{
		ProjectID: "orphan",
		FileName:  "x.pdf",
		MediaType: upload.MediaTypePDF,
		Content:   []byte("%PDF"),
		StoredAt:  time.Now(),
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}
