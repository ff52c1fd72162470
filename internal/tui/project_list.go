package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/dustin/go-humanize"
	"github.com/ganot/pdftalks/internal/domain/project"
)

type projectItem struct {
	project project.Project
	active  bool
}

func (i projectItem) FilterValue() string {
	return i.project.Title
}

func (i projectItem) Title() string {
	return i.project.Title
}

func (i projectItem) Description() string {
	if !i.project.Bound() {
		return "no document"
	}
	return fmt.Sprintf("%s | %s", i.project.FileName, humanize.Time(i.project.UploadDate))
}

// projectDelegate marks the active project.
type projectDelegate struct {
	list.DefaultDelegate
}

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	marker := "  "
	if p.active {
		marker = activeMarkerStyle.Render("● ")
	}

	title := truncate(p.Title(), sidebarWidth-6)
	desc := truncate(p.Description(), sidebarWidth-6)
	if index == m.Index() {
		title = selectedItemStyle.Render(title)
		desc = selectedItemStyle.Faint(true).Render(desc)
	} else {
		title = itemStyle.Render(title)
		desc = itemStyle.Render(desc)
	}

	fmt.Fprintf(w, "%s%s\n  %s", marker, title, desc)
}

func newProjectList(width, height int) list.Model {
	l := list.New(nil, projectDelegate{DefaultDelegate: list.NewDefaultDelegate()}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return l
}

func projectItems(projects []project.Project, activeID string) []list.Item {
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{project: p, active: p.ID == activeID}
	}
	return items
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
