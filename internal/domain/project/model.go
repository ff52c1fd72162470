package project

import (
	"path/filepath"
	"strings"
	"time"
)

// PlaceholderTitle is the title of a project that has no document yet.
const PlaceholderTitle = "New Project"

// Project pairs at most one uploaded document with one chat session
type Project struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	FileName   string    `json:"fileName"`
	UploadDate time.Time `json:"uploadDate"`
	FileURL    string    `json:"fileUrl,omitempty"`
}

// Bound reports whether a document is attached. FileURL is the only signal.
func (p Project) Bound() bool {
	return p.FileURL != ""
}

// Attachment describes the document being bound to a project
type Attachment struct {
	FileName string
	FileURL  string
}

// TitleFromFileName strips the extension from a file name.
func TitleFromFileName(name string) string {
	base := filepath.Base(name)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.TrimSpace(title) == "" {
		return base
	}
	return title
}
