package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ganot/pdftalks/internal/app"
	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/upload"
)

func (m Model) View() string {
	var body string
	switch m.view {
	case app.ViewWaiting:
		body = m.viewWaiting()
	case app.ViewLanding:
		body = m.viewLanding()
	default:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), mainStyle.Render(m.viewMain()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.viewHeader(), body, m.viewFooter())
}

func (m Model) viewHeader() string {
	header := titleStyle.Render("PDF Talks")
	if user, ok := m.ctrl.UserID(); ok && m.view != app.ViewWaiting && m.view != app.ViewLanding {
		header += statusStyle.Render("  " + user)
	}
	return header + "\n"
}

func (m Model) viewWaiting() string {
	return fmt.Sprintf("\n%s Waiting for the backend...\n\n%s\n",
		m.spinner.View(), statusStyle.Render("Press r to retry or q to quit."))
}

func (m Model) viewLanding() string {
	var b strings.Builder
	b.WriteString("\nChat with your PDF documents.\n\n")
	if m.mode == inputToken {
		b.WriteString("Sign in with an ID token from your identity provider.\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	} else {
		b.WriteString("Press enter to sign in.\n")
	}
	return b.String()
}

func (m Model) viewSidebar() string {
	style := sidebarStyle
	if m.focus == focusSidebar {
		style = focusedSidebarStyle
	}
	return style.Height(m.projects.Height()).Render(m.projects.View())
}

func (m Model) viewMain() string {
	active, ok := m.ctrl.Active()

	switch m.view {
	case app.ViewAnalyzing:
		name := "your document"
		if ok && active.FileName != "" {
			name = active.FileName
		}
		return fmt.Sprintf("\n%s Analyzing %s...\n", m.spinner.View(), name)

	case app.ViewUpload:
		var b strings.Builder
		b.WriteString("\nUpload a PDF to start chatting.\n\n")
		if ok {
			if attempt, found := m.ctrl.Attempt(active.ID); found && attempt.Phase == upload.PhaseFailed && attempt.Reason != "" {
				b.WriteString(errorStyle.Render(attempt.Reason))
				b.WriteString("\n\n")
			}
		}
		b.WriteString(m.input.View())
		return b.String()

	case app.ViewChat:
		var b strings.Builder
		if ok {
			b.WriteString(titleStyle.Render(active.Title))
			b.WriteString(statusStyle.Render("  " + active.FileName))
		}
		b.WriteString("\n")
		b.WriteString(m.chat.View())
		b.WriteString("\n")
		if m.busy == "Thinking" {
			b.WriteString(m.spinner.View() + " Thinking...")
		}
		b.WriteString("\n")
		b.WriteString(m.input.View())
		return b.String()
	}
	return ""
}

func (m Model) viewFooter() string {
	var lines []string
	switch {
	case m.err != "":
		lines = append(lines, errorStyle.Render(m.err))
	case m.busy != "" && m.busy != "Thinking" && m.view != app.ViewWaiting:
		lines = append(lines, m.spinner.View()+" "+statusStyle.Render(m.busy+"..."))
	default:
		lines = append(lines, "")
	}

	bindings := m.keys.sidebarHelp()
	if m.focus == focusInput {
		bindings = m.keys.inputHelp()
	}
	lines = append(lines, helpStyle.Render(m.help.ShortHelpView(bindings)))
	return strings.Join(lines, "\n")
}

// renderMessages lays out the transcript: user bubbles on the right, bot
// bubbles on the left.
func renderMessages(msgs []chat.Message, width int, showTimes bool) string {
	if len(msgs) == 0 {
		return statusStyle.Render("No messages yet. Ask something about this document.")
	}

	bubbleWidth := max(width*3/4, 10)
	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		style := botBubbleStyle
		align := lipgloss.Left
		if msg.Type == chat.RoleUser {
			style = userBubbleStyle
			align = lipgloss.Right
		}

		bubble := style.Render(wrap(msg.Content, bubbleWidth-2))
		if showTimes {
			if ts := msg.FormatTime(time.Kitchen); ts != "" {
				bubble = lipgloss.JoinVertical(align, timestampStyle.Render(ts), bubble)
			}
		}
		blocks = append(blocks, lipgloss.PlaceHorizontal(width, align, bubble))
	}
	return strings.Join(blocks, "\n\n")
}

func wrap(text string, width int) string {
	if lipgloss.Width(text) <= width {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
