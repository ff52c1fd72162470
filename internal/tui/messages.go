package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/identity"
)

// startedMsg reports the end of a liveness probe and, when signed in, a reload.
type startedMsg struct{ err error }

type loggedInMsg struct{ err error }

type loggedOutMsg struct{}

// projectsChangedMsg follows a create, select, or delete.
type projectsChangedMsg struct{ err error }

type uploadedMsg struct {
	result *upload.Result
	err    error
}

type answeredMsg struct {
	reply chat.Message
	err   error
}

func startCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: ctrl.Start(ctx)}
	}
}

func loginCmd(ctx context.Context, ctrl Controller, token string) tea.Cmd {
	return func() tea.Msg {
		return loggedInMsg{err: ctrl.Login(ctx, identity.StaticToken(token))}
	}
}

func logoutCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Logout(ctx)
		return loggedOutMsg{}
	}
}

func createCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.CreateProject(ctx)
		return projectsChangedMsg{err: err}
	}
}

func selectCmd(ctx context.Context, ctrl Controller, id string) tea.Cmd {
	return func() tea.Msg {
		return projectsChangedMsg{err: ctrl.Select(ctx, id)}
	}
}

func deleteCmd(ctx context.Context, ctrl Controller, id string) tea.Cmd {
	return func() tea.Msg {
		return projectsChangedMsg{err: ctrl.DeleteProject(ctx, id)}
	}
}

func uploadCmd(ctx context.Context, ctrl Controller, path string) tea.Cmd {
	return func() tea.Msg {
		res, err := ctrl.UploadPath(ctx, path)
		return uploadedMsg{result: res, err: err}
	}
}

func askCmd(ctx context.Context, ctrl Controller, question string) tea.Cmd {
	return func() tea.Msg {
		reply, err := ctrl.Ask(ctx, question)
		return answeredMsg{reply: reply, err: err}
	}
}
