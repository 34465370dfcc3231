package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"whatsgram/internal/app/account"
	"whatsgram/internal/app/chat"
	"whatsgram/internal/app/gate"
	"whatsgram/internal/app/message"
	"whatsgram/internal/app/user"
	"whatsgram/internal/pkg/errs"
)

const sidebarWidth = 32

type focusArea int

const (
	areaSearch focusArea = iota
	areaSidebar
	areaComposer
	areaCount
)

type homeView struct {
	search   textinput.Model
	composer textinput.Model
	area     focusArea

	chats    []user.User
	chatsErr string
	loading  bool

	// results is non-nil while search results replace the chat list.
	results   []user.Record
	searching bool

	cursor  int
	sending bool

	width  int
	height int
}

func newHomeView() homeView {
	search := newInput("Search…", false)
	search.Width = sidebarWidth - 6

	composer := newInput("Send a message", false)
	composer.CharLimit = message.MaxTextLength

	h := homeView{search: search, composer: composer, width: 80, height: 24}
	h.focusArea(areaSearch)
	return h
}

func (h *homeView) resize(width, height int) {
	h.width, h.height = width, height
	h.composer.Width = max(10, width-sidebarWidth-10)
}

func (h *homeView) focusArea(a focusArea) {
	h.area = a
	h.search.Blur()
	h.composer.Blur()
	switch a {
	case areaSearch:
		h.search.Focus()
	case areaComposer:
		h.composer.Focus()
	}
}

func (h *homeView) reset() {
	h.search.Reset()
	h.composer.Reset()
	h.chats = nil
	h.chatsErr = ""
	h.results = nil
	h.cursor = 0
	h.sending = false
	h.searching = false
	h.focusArea(areaSearch)
}

// entry is one sidebar row: a chat or a search result.
type entry struct {
	user   user.User
	record *user.Record
}

func (h homeView) entries() []entry {
	if h.results != nil {
		out := make([]entry, 0, len(h.results))
		for i := range h.results {
			r := h.results[i]
			out = append(out, entry{user: r.Normalize(), record: &r})
		}
		return out
	}

	filtered := chat.FilterChats(h.chats, h.search.Value())
	out := make([]entry, 0, len(filtered))
	for _, u := range filtered {
		out = append(out, entry{user: u})
	}
	return out
}

type chatsLoadedMsg struct {
	users []user.User
	err   error
}

type searchDoneMsg struct {
	results []user.Record
}

type sendDoneMsg struct {
	err error
}

func (m *Model) loadChats() tea.Cmd {
	m.home.loading = true
	chats := m.chats
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		users, err := chats.CurrentChats(ctx)
		return chatsLoadedMsg{users: users, err: err}
	}
}

func (m Model) updateHome(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chatsLoadedMsg:
		m.home.loading = false
		if msg.err != nil {
			m.home.chatsErr = errs.UserMessage(msg.err)
			return m, m.pushToast(toastError, m.home.chatsErr)
		}
		m.home.chatsErr = ""
		m.home.chats = msg.users
		return m, nil

	case searchDoneMsg:
		m.home.searching = false
		m.home.results = msg.results
		m.home.cursor = 0
		if len(msg.results) > 0 {
			m.home.focusArea(areaSidebar)
		}
		return m, nil

	case sendDoneMsg:
		m.home.sending = false
		if msg.err != nil {
			return m, m.pushToast(toastError, errs.UserMessage(msg.err))
		}
		m.home.composer.Reset()
		return m, nil

	case tea.KeyMsg:
		return m.handleHomeKey(msg)
	}

	return m, m.updateFocusedInput(msg)
}

func (m Model) handleHomeKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyTab:
		m.home.focusArea((m.home.area + 1) % areaCount)
		return m, nil
	case tea.KeyShiftTab:
		m.home.focusArea((m.home.area + areaCount - 1) % areaCount)
		return m, nil
	case tea.KeyCtrlP:
		return m, m.navigate(gate.RouteProfile)
	case tea.KeyCtrlU:
		if m.chats.Selected() != nil {
			return m, m.navigate(gate.RouteSelectedProfile)
		}
		return m, nil
	case tea.KeyCtrlL:
		return m.logout()
	case tea.KeyCtrlR:
		return m, m.loadChats()
	case tea.KeyEsc:
		if m.home.results != nil {
			m.home.results = nil
			m.home.cursor = 0
			return m, nil
		}
		m.chats.ClearSelection()
		return m, nil
	}

	switch m.home.area {
	case areaSearch:
		if key.Type == tea.KeyEnter {
			return m.runSearch()
		}
		cmd := m.updateFocusedInput(key)
		m.home.cursor = 0
		return m, cmd

	case areaSidebar:
		entries := m.home.entries()
		switch key.String() {
		case "up", "k":
			if m.home.cursor > 0 {
				m.home.cursor--
			}
		case "down", "j":
			if m.home.cursor < len(entries)-1 {
				m.home.cursor++
			}
		case "enter":
			if m.home.cursor < len(entries) {
				e := entries[m.home.cursor]
				if e.record != nil {
					m.chats.SelectSearchResult(*e.record)
				} else {
					m.chats.Select(e.user)
				}
				m.home.focusArea(areaComposer)
			}
		}
		return m, nil

	case areaComposer:
		if key.Type == tea.KeyEnter {
			return m.send()
		}
	}

	return m, m.updateFocusedInput(key)
}

func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.home.area {
	case areaSearch:
		m.home.search, cmd = m.home.search.Update(msg)
	case areaComposer:
		m.home.composer, cmd = m.home.composer.Update(msg)
	}
	return cmd
}

func (m Model) runSearch() (tea.Model, tea.Cmd) {
	if m.home.searching {
		return m, nil
	}
	m.home.searching = true

	chats := m.chats
	text := m.home.search.Value()
	return m, func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return searchDoneMsg{results: chats.Search(ctx, text)}
	}
}

func (m Model) send() (tea.Model, tea.Cmd) {
	if m.home.sending {
		return m, nil
	}

	text := m.home.composer.Value()
	if strings.TrimSpace(text) == "" || m.chats.Selected() == nil {
		return m, nil
	}
	m.home.sending = true

	chats := m.chats
	return m, func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return sendDoneMsg{err: chats.Send(ctx, text)}
	}
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true

	accounts := m.accounts
	return m, runAccount(func() (account.Result, error) {
		ctx, cancel := withTimeout()
		defer cancel()
		return accounts.Logout(ctx)
	})
}

func (m Model) viewHome() string {
	height := max(8, m.height-len(m.toasts)-3)

	sidebarStyle, boxStyle := paneStyle, paneStyle
	if m.home.area == areaComposer {
		boxStyle = focusedPaneStyle
	} else {
		sidebarStyle = focusedPaneStyle
	}

	sidebar := sidebarStyle.Width(sidebarWidth).Height(height).Render(m.viewSidebar(height))
	boxWidth := max(20, m.width-sidebarWidth-4)
	box := boxStyle.Width(boxWidth).Height(height).Render(m.viewMessageBox(boxWidth, height))

	help := hintStyle.Render("tab focus · enter select/send · esc close · ctrl+p profile · ctrl+u contact · ctrl+r refresh · ctrl+l logout")

	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Top, sidebar, box), help)
}

func (m Model) viewSidebar(height int) string {
	status := ""
	if !m.chats.PresenceConnected() {
		status = hintStyle.Render("○ presence offline")
	}
	lines := []string{m.home.search.View(), status}

	switch {
	case m.home.searching:
		lines = append(lines, hintStyle.Render("Searching…"))
	case m.home.loading && m.home.chats == nil:
		lines = append(lines, hintStyle.Render("Loading…"))
	case m.home.chatsErr != "" && m.home.results == nil:
		lines = append(lines, errorToastStyle.Render(m.home.chatsErr))
	}

	entries := m.home.entries()
	if len(entries) == 0 && !m.home.searching && !m.home.loading && m.home.chatsErr == "" {
		lines = append(lines, hintStyle.Render("No users found"))
	}

	selected := m.chats.Selected()
	nameWidth := sidebarWidth - 5
	for i, e := range entries {
		dot := "  "
		if m.chats.IsOnline(e.user.ID) {
			dot = onlineDotStyle.Render("● ")
		}

		name := runewidth.Truncate(e.user.DisplayName(), nameWidth, "…")
		style := rowStyle
		if (m.home.area == areaSidebar && i == m.home.cursor) || (selected != nil && selected.ID == e.user.ID) {
			style = selectedRowStyle
		}
		lines = append(lines, style.Render(dot+name))
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewMessageBox(width, height int) string {
	selected := m.chats.Selected()
	if selected == nil {
		name := ""
		if sess := m.chats.Session(); sess != nil {
			name = sess.Fullname
		}
		welcome := lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render("Welcome 👋 "+name),
			labelStyle.Render("Select a chat to start messaging"),
		)
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, welcome)
	}

	status := labelStyle.Render("offline")
	if m.chats.IsOnline(selected.ID) {
		status = onlineDotStyle.Render("online")
	}
	header := titleStyle.UnsetMarginBottom().Render(selected.DisplayName()) + "  " + status

	me := ""
	if sess := m.chats.Session(); sess != nil {
		me = sess.ID
	}

	bubbleWidth := max(10, width*7/10)
	var rendered []string
	for _, msg := range m.chats.Messages() {
		rendered = append(rendered, renderBubble(msg, msg.SenderID == me, width, bubbleWidth))
	}
	if len(rendered) == 0 {
		rendered = append(rendered, hintStyle.Render("Send a message to start the conversation"))
	}

	thread := strings.Split(strings.Join(rendered, "\n"), "\n")
	threadHeight := max(1, height-4)
	if len(thread) > threadHeight {
		thread = thread[len(thread)-threadHeight:]
	}

	composer := m.home.composer.View()
	if m.home.sending {
		composer = hintStyle.Render("Sending…")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		lipgloss.NewStyle().Height(threadHeight).Render(strings.Join(thread, "\n")),
		composer,
	)
}

func renderBubble(msg message.Message, own bool, width, bubbleWidth int) string {
	text := msg.Text
	if stamp := clockTime(msg.CreatedAt); stamp != "" {
		text += "  " + labelStyle.Render(stamp)
	}

	w := min(bubbleWidth, lipgloss.Width(text)+2)

	if own {
		bubble := ownBubbleStyle.Width(w).Render(text)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}
	return otherBubbleStyle.Width(w).Render(text)
}

// clockTime formats an RFC 3339 timestamp as local HH:MM.
func clockTime(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ""
	}
	return t.Local().Format("15:04")
}
