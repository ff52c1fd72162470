package upload_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/stretchr/testify/require"
)

func TestOpenFile_SniffsPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7\n%âãÏÓ\n1 0 obj\n"), 0o600))

	f, err := upload.OpenFile(path)
	require.NoError(t, err)
	require.Equal(t, "report.pdf", f.Name)
	require.Equal(t, upload.MediaTypePDF, f.MediaType)
	require.True(t, strings.HasPrefix(f.LocalURL, "file://"))
	require.NoError(t, upload.Validate(f, 0))

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.EqualValues(t, f.Size, len(body))
}

func TestOpenFile_RenamedTextIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("just some notes"), 0o600))

	f, err := upload.OpenFile(path)
	require.NoError(t, err)
	require.NotEqual(t, upload.MediaTypePDF, f.MediaType)
	require.ErrorIs(t, upload.Validate(f, 0), upload.ErrNotPDF)
}

func TestOpenFile_Errors(t *testing.T) {
	_, err := upload.OpenFile(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)

	_, err = upload.OpenFile(t.TempDir())
	require.ErrorIs(t, err, upload.ErrNoContent)
}
