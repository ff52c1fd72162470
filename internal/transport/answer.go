package transport

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/ganot/pdftalks/internal/domain/upload"
)

// NoAnswerEngine is the reply of the default Answerer.
const NoAnswerEngine = "No answer engine is configured for this backend."

// AnswerRequest is a question scoped to one project's document.
type AnswerRequest struct {
	ProjectID string
	Question  string
	Limit     int
	// Document is nil when nothing was uploaded for the project.
	Document *upload.Document
}

// Answerer produces answers for the getanswer route.
type Answerer interface {
	Answer(ctx context.Context, req AnswerRequest) (string, error)
}

// StaticAnswerer always replies with the same text.
type StaticAnswerer string

// Answer implements Answerer.
func (a StaticAnswerer) Answer(context.Context, AnswerRequest) (string, error) {
	return string(a), nil
}

// EchoAnswerer repeats the question along with the document it was
// asked about. It is meant for local development.
type EchoAnswerer struct{}

// Answer implements Answerer.
func (EchoAnswerer) Answer(_ context.Context, req AnswerRequest) (string, error) {
	if req.Document == nil {
		return fmt.Sprintf("You asked %q, but no document is stored for this project.", req.Question), nil
	}
	return fmt.Sprintf("You asked %q about %s (%s).",
		req.Question, req.Document.FileName, humanize.Bytes(uint64(len(req.Document.Content)))), nil
}
