package upload

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
)

// sniffLen covers the longest magic signature filetype inspects.
const sniffLen = 262

// OpenFile describes a local file for upload. The media type comes from
// the file's magic bytes, not its extension.
func OpenFile(path string) (File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return File{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory: %w", abs, ErrNoContent)
	}

	mediaType, err := sniffMediaType(abs)
	if err != nil {
		return File{}, err
	}

	return File{
		Name:      info.Name(),
		MediaType: mediaType,
		Size:      info.Size(),
		LocalURL:  (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(abs)
		},
	}, nil
}

func sniffMediaType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read file header: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream", nil
	}
	return kind.MIME.Value, nil
}
