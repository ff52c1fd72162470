package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit      key.Binding
	newProj   key.Binding
	deleteSel key.Binding
	enter     key.Binding
	upload    key.Binding
	focus     key.Binding
	back      key.Binding
	reload    key.Binding
	times     key.Binding
	signOut   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		newProj: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new project"),
		),
		deleteSel: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select/send"),
		),
		upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload"),
		),
		focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		times: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "timestamps"),
		),
		signOut: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sign out"),
		),
	}
}

func (k keyMap) sidebarHelp() []key.Binding {
	return []key.Binding{k.enter, k.newProj, k.deleteSel, k.upload, k.focus, k.reload, k.times, k.signOut, k.quit}
}

func (k keyMap) inputHelp() []key.Binding {
	return []key.Binding{k.enter, k.focus, k.back}
}
