/*
Package ui is the terminal front end of the messaging client, built on bubbletea.

The root Model routes between the login, register, home, profile and selected-profile
screens through the auth gate, and turns chat manager events into redraws.
*/
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"whatsgram/internal/app/account"
	"whatsgram/internal/app/chat"
	"whatsgram/internal/app/gate"
	"whatsgram/internal/app/message"
	"whatsgram/internal/app/session"
	"whatsgram/internal/app/user"
)

const requestTimeout = 30 * time.Second

// Accounts runs the login, registration and logout flows.
type Accounts interface {
	Login(ctx context.Context, form account.LoginForm) (account.Result, error)
	Register(ctx context.Context, form account.RegisterForm) (account.Result, error)
	Logout(ctx context.Context) (account.Result, error)
}

// Chats is the conversation state the home screen renders.
type Chats interface {
	Events() <-chan chat.Event
	Session() *session.Session
	Selected() *user.User
	Select(u user.User)
	SelectSearchResult(r user.Record)
	ClearSelection()
	Messages() []message.Message
	IsOnline(id string) bool
	PresenceConnected() bool
	CurrentChats(ctx context.Context) ([]user.User, error)
	Search(ctx context.Context, text string) []user.Record
	Send(ctx context.Context, text string) error
}

// Model is the root bubbletea model.
type Model struct {
	accounts Accounts
	chats    Chats

	route  gate.Route
	width  int
	height int

	login    loginForm
	register registerForm
	home     homeView

	// busy is set while an account request is in flight.
	busy bool

	toasts      []toast
	nextToastID int

	quitting bool
}

// New returns the root model starting at route, subject to the auth gate.
func New(accounts Accounts, chats Chats, route gate.Route) Model {
	m := Model{
		accounts: accounts,
		chats:    chats,
		width:    80,
		height:   24,
		login:    newLoginForm(),
		register: newRegisterForm(),
		home:     newHomeView(),
	}
	m.route = gate.Resolve(route, chats.Session())
	return m
}

// Route returns the screen currently shown.
func (m Model) Route() gate.Route {
	return m.route
}

type chatEventMsg chat.Event

type eventsClosedMsg struct{}

// listen waits for the next chat manager event.
func listen(events <-chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return chatEventMsg(ev)
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listen(m.chats.Events()), textinputBlink()}
	if m.route == gate.RouteHome {
		cmds = append(cmds, m.loadChats())
	}
	return tea.Batch(cmds...)
}

// navigate moves to route through the gate and returns the commands entering it needs.
func (m *Model) navigate(route gate.Route) tea.Cmd {
	previous := m.route
	m.route = gate.Resolve(route, m.chats.Session())

	switch m.route {
	case gate.RouteLogin:
		m.login.focus(0)
	case gate.RouteRegister:
		m.register.focus(0)
	case gate.RouteHome:
		if previous != gate.RouteHome {
			m.home.focusArea(areaSearch)
			return m.loadChats()
		}
	}
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.home.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

	case chatEventMsg:
		cmd := m.handleChatEvent(chat.Event(msg))
		return m, tea.Batch(cmd, listen(m.chats.Events()))

	case eventsClosedMsg:
		return m, nil

	case toastExpiredMsg:
		m.dropToast(msg.id)
		return m, nil

	case accountDoneMsg:
		return m, m.handleAccountDone(msg)
	}

	switch m.route {
	case gate.RouteLogin:
		return m.updateLogin(msg)
	case gate.RouteRegister:
		return m.updateRegister(msg)
	case gate.RouteHome:
		return m.updateHome(msg)
	case gate.RouteProfile, gate.RouteSelectedProfile:
		return m.updateProfile(msg)
	}

	return m, nil
}

func (m *Model) handleChatEvent(ev chat.Event) tea.Cmd {
	switch ev.Type {
	case chat.EventSession:
		// A cleared session leaves protected screens.
		if !ev.Session.Valid() {
			m.home.reset()
			return m.navigate(m.route)
		}
	case chat.EventSelection:
		if ev.Selected == nil && m.route == gate.RouteSelectedProfile {
			return m.navigate(gate.RouteHome)
		}
	}
	return nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.route {
	case gate.RouteLogin:
		body = m.viewLogin()
	case gate.RouteRegister:
		body = m.viewRegister()
	case gate.RouteHome:
		body = m.viewHome()
	case gate.RouteProfile:
		if sess := m.chats.Session(); sess.Valid() {
			body = m.viewProfile(sess.Profile(), true)
		}
	case gate.RouteSelectedProfile:
		if selected := m.chats.Selected(); selected != nil {
			body = m.viewProfile(*selected, false)
		}
	}

	if toasts := m.viewToasts(); toasts != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", toasts)
	}
	return body
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
