// Package tui is the terminal interface over the client controller.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ganot/pdftalks/internal/app"
	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"golang.org/x/oauth2"
)

// Controller is the client session the interface drives.
type Controller interface {
	Start(ctx context.Context) error
	Login(ctx context.Context, src oauth2.TokenSource) error
	Logout(ctx context.Context)
	Select(ctx context.Context, id string) error
	CreateProject(ctx context.Context) (project.Project, error)
	DeleteProject(ctx context.Context, id string) error
	UploadPath(ctx context.Context, path string) (*upload.Result, error)
	Ask(ctx context.Context, question string) (chat.Message, error)
	Projects() []project.Project
	Active() (project.Project, bool)
	Messages() []chat.Message
	Attempt(projectID string) (upload.Attempt, bool)
	UserID() (string, bool)
	View() app.View
}

var _ Controller = (*app.Controller)(nil)

// Options configures the interface.
type Options struct {
	// Token signs in from the landing view without a prompt.
	Token          string
	ShowTimestamps bool
}

type focusArea int

const (
	focusSidebar focusArea = iota
	focusInput
)

type inputMode int

const (
	inputNone inputMode = iota
	inputToken
	inputPath
	inputQuestion
)

// Model is the bubbletea model.
type Model struct {
	ctx  context.Context
	ctrl Controller
	keys keyMap

	help     help.Model
	spinner  spinner.Model
	projects list.Model
	chat     viewport.Model
	input    textinput.Model

	token     string
	view      app.View
	focus     focusArea
	mode      inputMode
	uploading bool
	showTimes bool
	busy      string
	err       string
	chatSize  int
	width     int
	height    int
}

// New creates the interface model. The context bounds every backend call.
func New(ctx context.Context, ctrl Controller, opts Options) Model {
	in := textinput.New()
	in.CharLimit = 0

	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := Model{
		ctx:       ctx,
		ctrl:      ctrl,
		keys:      newKeyMap(),
		help:      help.New(),
		spinner:   s,
		projects:  newProjectList(sidebarWidth, 20),
		chat:      viewport.New(60, 20),
		input:     in,
		token:     strings.TrimSpace(opts.Token),
		view:      app.ViewWaiting,
		showTimes: opts.ShowTimestamps,
		busy:      "Connecting",
		width:     100,
		height:    30,
		chatSize:  -1,
	}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, startCmd(m.ctx, m.ctrl))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderChat(true)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case startedMsg:
		m.settle(msg.err)
		return m, nil

	case loggedInMsg:
		m.settle(msg.err)
		return m, nil

	case loggedOutMsg:
		m.uploading = false
		m.settle(nil)
		return m, nil

	case projectsChangedMsg:
		m.settle(msg.err)
		return m, nil

	case uploadedMsg:
		m.uploading = false
		m.settle(msg.err)
		return m, nil

	case answeredMsg:
		m.busy = ""
		m.setError(msg.err)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch msg.String() {
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	if m.focus == focusInput {
		switch {
		case key.Matches(msg, m.keys.enter):
			return m.submit()
		case key.Matches(msg, m.keys.focus), key.Matches(msg, m.keys.back):
			if m.uploading {
				m.uploading = false
				m.prepareInput()
			}
			m.setFocus(focusSidebar)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		m.busy = "Reloading"
		m.err = ""
		return m, startCmd(m.ctx, m.ctrl)
	case key.Matches(msg, m.keys.focus):
		if m.mode != inputNone {
			m.setFocus(focusInput)
		}
		return m, nil
	}

	switch m.view {
	case app.ViewWaiting:
		return m, nil
	case app.ViewLanding:
		if key.Matches(msg, m.keys.enter) {
			return m.signIn(m.token)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.projects.SelectedItem().(projectItem); ok {
			m.busy = "Loading " + item.project.Title
			return m, selectCmd(m.ctx, m.ctrl, item.project.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.newProj):
		return m, createCmd(m.ctx, m.ctrl)
	case key.Matches(msg, m.keys.deleteSel):
		if item, ok := m.projects.SelectedItem().(projectItem); ok {
			return m, deleteCmd(m.ctx, m.ctrl, item.project.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.upload):
		if m.view == app.ViewAnalyzing {
			return m, nil
		}
		m.uploading = true
		m.prepareInput()
		m.setFocus(focusInput)
		return m, nil
	case key.Matches(msg, m.keys.times):
		m.showTimes = !m.showTimes
		m.renderChat(true)
		return m, nil
	case key.Matches(msg, m.keys.signOut):
		m.busy = "Signing out"
		return m, logoutCmd(m.ctx, m.ctrl)
	}

	var cmd tea.Cmd
	m.projects, cmd = m.projects.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case inputToken:
		if value == "" {
			value = m.token
		}
		return m.signIn(value)

	case inputPath:
		if value == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.err = ""
		m.busy = "Uploading"
		return m, uploadCmd(m.ctx, m.ctrl, value)

	case inputQuestion:
		if value == "" || m.busy != "" {
			return m, nil
		}
		m.input.SetValue("")
		m.err = ""
		m.busy = "Thinking"
		return m, askCmd(m.ctx, m.ctrl, value)
	}
	return m, nil
}

func (m Model) signIn(token string) (tea.Model, tea.Cmd) {
	if token == "" {
		m.err = "Paste an ID token to sign in"
		m.setFocus(focusInput)
		return m, nil
	}
	m.input.SetValue("")
	m.err = ""
	m.busy = "Signing in"
	return m, loginCmd(m.ctx, m.ctrl, token)
}

// settle applies the outcome of a controller operation.
func (m *Model) settle(err error) {
	m.busy = ""
	m.setError(err)
	m.refresh()
	m.selectActive()
	m.prepareInput()
}

func (m *Model) setError(err error) {
	if err == nil {
		m.err = ""
		return
	}
	var verr *upload.ValidationError
	switch {
	case errors.As(err, &verr):
		m.err = verr.Reason()
	case errors.Is(err, app.ErrNotReady):
		m.err = "Backend unreachable. Press r to retry."
	case errors.Is(err, app.ErrNoDocument):
		m.err = "Upload a PDF before asking questions."
	default:
		m.err = err.Error()
	}
}

func (m *Model) refresh() {
	m.view = m.ctrl.View()
	activeID := ""
	if active, ok := m.ctrl.Active(); ok {
		activeID = active.ID
	}
	m.projects.SetItems(projectItems(m.ctrl.Projects(), activeID))
	m.renderChat(false)
}

func (m *Model) selectActive() {
	for i, item := range m.projects.Items() {
		if p, ok := item.(projectItem); ok && p.active {
			m.projects.Select(i)
			return
		}
	}
}

// prepareInput points the input at what the current view asks for.
func (m *Model) prepareInput() {
	mode := inputNone
	switch {
	case m.view == app.ViewLanding && m.token == "":
		mode = inputToken
	case m.view == app.ViewUpload, m.uploading && m.view == app.ViewChat:
		mode = inputPath
	case m.view == app.ViewChat:
		mode = inputQuestion
	}

	if mode != m.mode {
		m.input.SetValue("")
		m.input.EchoMode = textinput.EchoNormal
		switch mode {
		case inputToken:
			m.input.Prompt = "Token> "
			m.input.Placeholder = "paste an ID token"
			m.input.EchoMode = textinput.EchoPassword
		case inputPath:
			m.input.Prompt = "PDF> "
			m.input.Placeholder = "path to a PDF file"
		case inputQuestion:
			m.input.Prompt = "Ask> "
			m.input.Placeholder = "ask a question about this document"
		}
		m.mode = mode
	}

	switch mode {
	case inputNone:
		m.setFocus(focusSidebar)
	case inputToken, inputPath, inputQuestion:
		m.setFocus(focusInput)
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
		return
	}
	m.input.Blur()
}

func (m *Model) resize() {
	mainWidth := max(m.width-sidebarWidth-3, 20)
	bodyHeight := max(m.height-6, 5)

	m.projects.SetSize(sidebarWidth, bodyHeight)
	m.chat.Width = mainWidth
	m.chat.Height = max(bodyHeight-3, 3)
	m.input.Width = max(mainWidth-8, 10)
	m.help.Width = m.width
}

// renderChat rebuilds the transcript when it grew, or always when forced.
func (m *Model) renderChat(force bool) {
	msgs := m.ctrl.Messages()
	if !force && len(msgs) == m.chatSize {
		return
	}
	m.chatSize = len(msgs)
	m.chat.SetContent(renderMessages(msgs, m.chat.Width, m.showTimes))
	m.chat.GotoBottom()
}
