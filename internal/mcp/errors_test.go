package mcp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ganot/pdftalks/internal/app"
	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "missing project", err: fmt.Errorf("select: %w", project.ErrProjectNotFound), code: "PROJECT_NOT_FOUND"},
		{name: "backend 404", err: repository.ErrNotFound, code: "PROJECT_NOT_FOUND"},
		{name: "blank question", err: chat.ErrEmptyQuestion, code: "VALIDATION_FAILED"},
		{name: "signed out", err: app.ErrNotAuthenticated, code: "NOT_AUTHENTICATED"},
		{name: "backend 401", err: repository.ErrUnauthorized, code: "NOT_AUTHENTICATED"},
		{name: "not ready", err: app.ErrNotReady, code: "NOT_READY"},
		{name: "backend down", err: repository.ErrUnavailable, code: "NOT_READY"},
		{name: "in flight", err: upload.ErrUploadInFlight, code: "UPLOAD_IN_FLIGHT"},
		{name: "no document", err: app.ErrNoDocument, code: "NO_DOCUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := MapError(tt.err)
			require.NotNil(t, apiErr)
			require.Equal(t, tt.code, apiErr.Code)
		})
	}

	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("something else")))
}
