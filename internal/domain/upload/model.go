package upload

import (
	"io"
	"time"

	"github.com/ganot/pdftalks/internal/domain/project"
)

// Phase is the state of one upload attempt
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseUploading  Phase = "uploading"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseReady      Phase = "ready"
	PhaseFailed     Phase = "failed"
)

// MediaTypePDF is the only accepted media type.
const MediaTypePDF = "application/pdf"

// DefaultMaxBytes is the upload size ceiling.
const DefaultMaxBytes int64 = 10 * 1024 * 1024

// DefaultNamespace is the collection tag sent with every upload.
const DefaultNamespace = "test_collection3"

// File is a candidate document for upload
type File struct {
	Name      string
	MediaType string
	Size      int64
	// LocalURL is the preview reference stored on the bound project.
	LocalURL string
	Open     func() (io.ReadCloser, error)
}

// Request is what the transport sends to the backend
type Request struct {
	ProjectID string
	FileName  string
	MediaType string
	Size      int64
	Content   io.Reader
	Namespace string
	UserID    string
}

// Attempt records the progress of an upload for a project
type Attempt struct {
	ProjectID  string    `json:"project_id"`
	FileName   string    `json:"file_name"`
	Phase      Phase     `json:"phase"`
	Reason     string    `json:"reason,omitempty"`
	ServerName string    `json:"server_name,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// Result is returned by a successful upload
type Result struct {
	Project    project.Project
	Created    bool
	ServerName string
	Phase      Phase
}

// Document is a stored upload as kept by the reference backend
type Document struct {
	ProjectID string
	FileName  string
	MediaType string
	Namespace string
	Content   []byte
	StoredAt  time.Time
}
