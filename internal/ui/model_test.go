package ui

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsgram/internal/app/account"
	"whatsgram/internal/app/chat"
	"whatsgram/internal/app/gate"
	"whatsgram/internal/app/message"
	"whatsgram/internal/app/session"
	"whatsgram/internal/app/user"
	"whatsgram/internal/pkg/errs"
)

type fakeAccounts struct {
	loginForm    account.LoginForm
	registerForm account.RegisterForm
	result       account.Result
	err          error
	onLogin      func()
}

func (f *fakeAccounts) Login(_ context.Context, form account.LoginForm) (account.Result, error) {
	f.loginForm = form
	if f.onLogin != nil {
		f.onLogin()
	}
	return f.result, f.err
}

func (f *fakeAccounts) Register(_ context.Context, form account.RegisterForm) (account.Result, error) {
	f.registerForm = form
	return f.result, f.err
}

func (f *fakeAccounts) Logout(context.Context) (account.Result, error) {
	return f.result, f.err
}

type fakeChats struct {
	mu       sync.Mutex
	events   chan chat.Event
	sess     *session.Session
	selected *user.User
	chats    []user.User
	chatsErr error
	results  []user.Record
	sent     []string
	sendErr  error
	online   map[string]bool
	offline  bool
}

func newFakeChats() *fakeChats {
	return &fakeChats{events: make(chan chat.Event, 8), online: map[string]bool{}}
}

func (f *fakeChats) Events() <-chan chat.Event { return f.events }

func (f *fakeChats) Session() *session.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess
}

func (f *fakeChats) setSession(s *session.Session) {
	f.mu.Lock()
	f.sess = s
	f.mu.Unlock()
}

func (f *fakeChats) Selected() *user.User { return f.selected }

func (f *fakeChats) Select(u user.User) { f.selected = &u }

func (f *fakeChats) SelectSearchResult(r user.Record) {
	u := r.Normalize()
	f.selected = &u
}

func (f *fakeChats) ClearSelection() { f.selected = nil }

func (f *fakeChats) Messages() []message.Message {
	return []message.Message{{ID: "m1", SenderID: "me", Text: "hello"}}
}

func (f *fakeChats) IsOnline(id string) bool { return f.online[id] }

func (f *fakeChats) PresenceConnected() bool { return !f.offline }

func (f *fakeChats) CurrentChats(context.Context) ([]user.User, error) {
	return f.chats, f.chatsErr
}

func (f *fakeChats) Search(context.Context, string) []user.Record { return f.results }

func (f *fakeChats) Send(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return f.sendErr
}

func TestMain(m *testing.M) {
	toastDuration = time.Millisecond
	os.Exit(m.Run())
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func typeText(m Model, text string) Model {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

// drain runs cmd and feeds the messages it yields back into the model, skipping ticks
// and the event listener.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}

	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
		return m
	case accountDoneMsg, chatsLoadedMsg, searchDoneMsg, sendDoneMsg:
		next, follow := m.Update(msg)
		return drain(t, next.(Model), follow)
	}
	return m
}

func TestSignedOutStartsOnRegister(t *testing.T) {
	m := New(&fakeAccounts{}, newFakeChats(), gate.RouteHome)
	assert.Equal(t, gate.RouteRegister, m.Route())

	next, _ := m.Update(key(tea.KeyCtrlO))
	assert.Equal(t, gate.RouteLogin, next.(Model).Route())
}

func TestLoginSuccessNavigatesHome(t *testing.T) {
	chats := newFakeChats()
	chats.chats = []user.User{{ID: "bob", Username: "bob"}}

	accounts := &fakeAccounts{
		result:  account.Result{Notice: "Login successful!", Next: gate.RouteHome},
		onLogin: func() { chats.setSession(&session.Session{ID: "me", Fullname: "Me"}) },
	}

	m := New(accounts, chats, gate.RouteLogin)
	m = typeText(m, "me@example.com")
	next, _ := m.Update(key(tea.KeyTab))
	m = typeText(next.(Model), "secret")

	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(Model)
	assert.True(t, m.busy)

	// a second enter while in flight is ignored
	_, again := m.Update(key(tea.KeyEnter))
	assert.Nil(t, again)

	m = drain(t, m, cmd)

	assert.Equal(t, account.LoginForm{Email: "me@example.com", Password: "secret"}, accounts.loginForm)
	assert.False(t, m.busy)
	assert.Equal(t, gate.RouteHome, m.Route())
	assert.Equal(t, chats.chats, m.home.chats)
	require.Len(t, m.toasts, 1)
	assert.Equal(t, "Login successful!", m.toasts[0].text)
}

func TestLoginRejectionShowsBackendMessage(t *testing.T) {
	accounts := &fakeAccounts{err: errs.Rejected("Invalid credentials")}
	m := New(accounts, newFakeChats(), gate.RouteLogin)

	next, cmd := m.Update(key(tea.KeyEnter))
	m = drain(t, next.(Model), cmd)

	assert.Equal(t, gate.RouteLogin, m.Route())
	require.Len(t, m.toasts, 1)
	assert.Equal(t, toastError, m.toasts[0].kind)
	assert.Equal(t, "Invalid credentials", m.toasts[0].text)
}

func TestRegisterCollectsGender(t *testing.T) {
	accounts := &fakeAccounts{result: account.Result{Notice: "Registration successful!", Next: gate.RouteLogin}}
	m := New(accounts, newFakeChats(), gate.RouteRegister)

	m = typeText(m, "Ana Lima")
	for i := 0; i < regGender; i++ {
		next, _ := m.Update(key(tea.KeyTab))
		m = next.(Model)
	}
	next, _ := m.Update(key(tea.KeyRight))
	m = next.(Model)

	next, cmd := m.Update(key(tea.KeyEnter))
	m = drain(t, next.(Model), cmd)

	assert.Equal(t, "Ana Lima", accounts.registerForm.Fullname)
	assert.Equal(t, account.Genders[0], accounts.registerForm.Gender)
	assert.Equal(t, gate.RouteLogin, m.Route())
}

func signedInModel(t *testing.T, chats *fakeChats) Model {
	t.Helper()
	chats.setSession(&session.Session{ID: "me", Fullname: "Me"})
	m := New(&fakeAccounts{}, chats, gate.RouteHome)
	require.Equal(t, gate.RouteHome, m.Route())
	return drain(t, m, m.loadChats())
}

func TestChatsFailureIsSurfaced(t *testing.T) {
	chats := newFakeChats()
	chats.chatsErr = errs.NewError(errs.ErrChatsUnavailable)

	m := signedInModel(t, chats)
	assert.Equal(t, "Failed to fetch chats.", m.home.chatsErr)
	assert.Contains(t, m.View(), "Failed to fetch chats.")
}

func TestSearchThenSelectResult(t *testing.T) {
	chats := newFakeChats()
	chats.results = []user.Record{{ID: "bob", Username: "bob", CreatedAt: "2024-01-01T00:00:00Z"}}

	m := signedInModel(t, chats)
	m = typeText(m, "bo")

	next, cmd := m.Update(key(tea.KeyEnter))
	m = drain(t, next.(Model), cmd)
	require.Len(t, m.home.results, 1)
	assert.Equal(t, areaSidebar, m.home.area)

	next, _ = m.Update(key(tea.KeyEnter))
	m = next.(Model)
	assert.Equal(t, &user.User{ID: "bob", Username: "bob"}, chats.selected)
	assert.Equal(t, areaComposer, m.home.area)

	m = typeText(m, "hi")
	next, cmd = m.Update(key(tea.KeyEnter))
	m = drain(t, next.(Model), cmd)
	assert.Equal(t, []string{"hi"}, chats.sent)
	assert.Empty(t, m.home.composer.Value(), "input cleared after a successful send")

	next, cmd = m.Update(key(tea.KeyEnter))
	assert.Nil(t, cmd, "blank composer sends nothing")
	_ = next
}

func TestSessionClearedLeavesProtectedScreen(t *testing.T) {
	chats := newFakeChats()
	m := signedInModel(t, chats)

	next, _ := m.Update(key(tea.KeyCtrlP))
	m = next.(Model)
	assert.Equal(t, gate.RouteProfile, m.Route())

	chats.setSession(nil)
	next, _ = m.Update(chatEventMsg(chat.Event{Type: chat.EventSession}))
	assert.Equal(t, gate.RouteRegister, next.(Model).Route())
}

func TestProfileMarkdown(t *testing.T) {
	md := profileMarkdown(user.User{Username: "ana", Fullname: "Ana Lima", Email: "ana@example.com"}, false, "")
	assert.Contains(t, md, "# Ana Lima")
	assert.Contains(t, md, "@ana")
	assert.NotContains(t, md, "Signed in until")
}

func TestEventsClosedStopsListening(t *testing.T) {
	chats := newFakeChats()
	close(chats.events)

	msg := listen(chats.Events())()
	assert.IsType(t, eventsClosedMsg{}, msg)

	m := New(&fakeAccounts{}, chats, gate.RouteLogin)
	_, cmd := m.Update(msg)
	assert.Nil(t, cmd)
}

func TestComposerClearsOnlyAfterSuccessfulSend(t *testing.T) {
	chats := newFakeChats()
	chats.selected = &user.User{ID: "bob", Username: "bob"}

	m := signedInModel(t, chats)
	m.home.focusArea(areaComposer)
	m = typeText(m, "hello bob")

	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.home.sending)
	assert.Contains(t, m.View(), "Sending…")

	m = drain(t, m, cmd)
	assert.Equal(t, []string{"hello bob"}, chats.sent)
	assert.False(t, m.home.sending)
	assert.Empty(t, m.home.composer.Value())
	assert.Empty(t, m.toasts)

	m = typeText(m, "are you there?")
	chats.sendErr = errs.Rejected("Receiver not found")

	next, cmd = m.Update(key(tea.KeyEnter))
	m = drain(t, next.(Model), cmd)

	assert.Equal(t, "are you there?", m.home.composer.Value(), "text kept for a retry")
	assert.False(t, m.home.sending)
	require.Len(t, m.toasts, 1)
	assert.Equal(t, toastError, m.toasts[0].kind)
	assert.Equal(t, "Receiver not found", m.toasts[0].text)
}

func TestSidebarShowsPresenceState(t *testing.T) {
	chats := newFakeChats()
	m := signedInModel(t, chats)
	assert.NotContains(t, m.View(), "presence offline")

	chats.offline = true
	assert.Contains(t, m.View(), "presence offline")
}
