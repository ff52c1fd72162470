package mcp

import (
	"time"

	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
)

type emptyInput struct{}

type projectIDInput struct {
	ID string `json:"id" jsonschema:"Project identifier from list_projects"`
}

type uploadDocumentInput struct {
	Path string `json:"path" jsonschema:"Absolute path of a local PDF file"`
}

type askQuestionInput struct {
	Question string `json:"question" jsonschema:"Question about the active project's document"`
}

type statusOutput struct {
	Ready         bool   `json:"ready"`
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	View          string `json:"view"`
	ActiveProject string `json:"active_project,omitempty"`
}

type projectOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	FileName    string `json:"file_name,omitempty"`
	UploadDate  string `json:"upload_date"`
	HasDocument bool   `json:"has_document"`
	Active      bool   `json:"active"`
}

type projectListOutput struct {
	Projects []projectOutput `json:"projects"`
	ActiveID string          `json:"active_id"`
}

type uploadOutput struct {
	Project    projectOutput `json:"project"`
	Created    bool          `json:"created"`
	ServerName string        `json:"server_name"`
	Phase      string        `json:"phase"`
}

type messageOutput struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

type messagesOutput struct {
	ProjectID string          `json:"project_id"`
	Messages  []messageOutput `json:"messages"`
}

type answerOutput struct {
	ProjectID string        `json:"project_id"`
	Answer    messageOutput `json:"answer"`
}

func toProjectOutput(p project.Project, activeID string) projectOutput {
	return projectOutput{
		ID:          p.ID,
		Title:       p.Title,
		FileName:    p.FileName,
		UploadDate:  p.UploadDate.Format(time.RFC3339),
		HasDocument: p.Bound(),
		Active:      p.ID == activeID,
	}
}

func toMessageOutput(m chat.Message) messageOutput {
	return messageOutput{
		ID:        m.ID,
		Role:      string(m.Type),
		Content:   m.Content,
		Timestamp: m.FormatTime(time.RFC3339),
	}
}
