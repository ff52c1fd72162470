package chat

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Valid reports whether r is one of the two supported roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleBot
}

// Message is a single chat entry
type Message struct {
	ID        string     `json:"id"`
	Type      Role       `json:"type"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	now := time.Now().UTC().Round(0)
	return Message{
		ID:        uuid.NewString(),
		Type:      role,
		Content:   content,
		Timestamp: &now,
	}
}

// Question is a request to the question-answering endpoint
type Question struct {
	ProjectID string
	Text      string
	Limit     int
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999Z07:00",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON decodes a message, treating a missing, null, or
// unparseable timestamp as absent.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string          `json:"id"`
		Type      Role            `json:"type"`
		Content   string          `json:"content"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.ID = raw.ID
	m.Type = raw.Type
	m.Content = raw.Content
	m.Timestamp = parseTimestamp(raw.Timestamp)
	return nil
}

func parseTimestamp(raw json.RawMessage) *time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var ms int64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return nil
		}
		t := time.UnixMilli(ms)
		return &t
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// FormatTime renders a message time, or "" when the timestamp is absent.
func (m Message) FormatTime(layout string) string {
	if m.Timestamp == nil || m.Timestamp.IsZero() {
		return ""
	}
	return m.Timestamp.Local().Format(layout)
}
