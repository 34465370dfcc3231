/*
Package chat contains the conversation state of the terminal client.

The Manager ties together the conversation selection, the message poller and the presence
channel. It follows the session store: a signed-in session opens the presence channel, a
sign-out closes it and drops the selection. State changes are delivered to the UI as Events.
*/
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"whatsgram/internal/app/api"
	"whatsgram/internal/app/message"
	"whatsgram/internal/app/session"
	"whatsgram/internal/app/user"
	"whatsgram/internal/configs"
	"whatsgram/internal/pkg/errs"
	"whatsgram/internal/pkg/logx"
)

const eventBuffer = 64

// ChatAPI is the part of the backend the Manager talks to.
type ChatAPI interface {
	CurrentChats(ctx context.Context) ([]user.Record, error)
	Search(ctx context.Context, text string) ([]user.Record, error)
	Messages(ctx context.Context, conversationID string) ([]message.Message, error)
	Send(ctx context.Context, conversationID string, text string) error
}

// SessionSource provides the current session and its changes.
type SessionSource interface {
	Current() *session.Session
	Subscribe(fn func(*session.Session)) (unsubscribe func())
}

// Options configures a Manager.
type Options struct {
	API      ChatAPI
	Sessions SessionSource
	Dialer   PresenceDialer

	// PollInterval defaults to configs.DefaultPollInterval.
	PollInterval time.Duration

	// Backoff defaults to DefaultBackoff.
	Backoff func() retry.Backoff
}

// EventType identifies what changed.
type EventType int

const (
	// EventMessages carries a new message list for ConversationID.
	EventMessages EventType = iota + 1

	// EventOnline carries a new online-user list.
	EventOnline

	// EventSelection carries the new selection (nil when cleared).
	EventSelection

	// EventSession signals that the session changed.
	EventSession
)

// Event is one state change pushed to the UI.
type Event struct {
	Type           EventType
	ConversationID string
	Messages       []message.Message
	Online         []string
	Selected       *user.User
	Session        *session.Session
}

// Manager owns the selection, the poll loop and the presence channel.
type Manager struct {
	api      ChatAPI
	sessions SessionSource

	selection *Selection
	poller    *Poller
	presence  *Presence

	unsubscribe func()

	// emitMu guards closed and sends on events.
	emitMu sync.RWMutex
	closed bool
	events chan Event

	logger zerolog.Logger
}

// NewManager constructs a Manager and binds the presence channel to the current session.
func NewManager(opts Options) *Manager {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = configs.DefaultPollInterval
	}

	m := &Manager{
		api:       opts.API,
		sessions:  opts.Sessions,
		selection: &Selection{},
		events:    make(chan Event, eventBuffer),
		logger:    logx.Component("chat"),
	}

	m.poller = NewPoller(m.api.Messages, interval, func(id string, msgs []message.Message) {
		m.emit(Event{Type: EventMessages, ConversationID: id, Messages: msgs})
	})
	m.presence = NewPresence(opts.Dialer, opts.Backoff, func(ids []string) {
		m.emit(Event{Type: EventOnline, Online: ids})
	})

	m.unsubscribe = m.sessions.Subscribe(m.onSession)

	if sess := m.sessions.Current(); sess.Valid() {
		m.presence.Connect(sess.ID)
	}

	return m
}

func (m *Manager) onSession(sess *session.Session) {
	if sess.Valid() {
		m.logger.Debug().Str("user_id", sess.ID).Msg("Session present, opening presence channel")
		m.presence.Connect(sess.ID)
	} else {
		m.logger.Debug().Msg("Session cleared, closing presence channel")
		m.presence.Disconnect()
		m.ClearSelection()
	}

	m.emit(Event{Type: EventSession, Session: sess})
}

// Events returns the channel of state changes. It is closed by Close.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Session returns the current session.
func (m *Manager) Session() *session.Session {
	return m.sessions.Current()
}

// Selected returns the selected counterpart, or nil.
func (m *Manager) Selected() *user.User {
	return m.selection.Get()
}

// Select makes u the open conversation and starts polling its messages.
func (m *Manager) Select(u user.User) {
	m.selection.Set(&u)
	m.logger.Info().Str("conversation_id", u.ID).Msg("Conversation selected")

	m.emit(Event{Type: EventSelection, Selected: m.selection.Get()})
	m.poller.Start(u.ID)
}

// SelectSearchResult selects the conversation subset of a search result.
func (m *Manager) SelectSearchResult(r user.Record) {
	m.Select(r.Normalize())
}

// ClearSelection closes the open conversation and stops polling.
func (m *Manager) ClearSelection() {
	if m.selection.Get() == nil {
		m.poller.Stop()
		return
	}

	m.selection.Set(nil)
	m.poller.Stop()
	m.emit(Event{Type: EventSelection})
}

// Messages returns the latest message list of the open conversation.
func (m *Manager) Messages() []message.Message {
	return m.poller.Messages()
}

// Online returns the online user ids.
func (m *Manager) Online() []string {
	return m.presence.Online()
}

// IsOnline reports whether the user with id is online.
func (m *Manager) IsOnline(id string) bool {
	return m.presence.IsOnline(id)
}

// PresenceConnected reports whether the presence channel is open.
func (m *Manager) PresenceConnected() bool {
	return m.presence.Connected()
}

// CurrentChats loads the users listed in the sidebar.
func (m *Manager) CurrentChats(ctx context.Context) ([]user.User, error) {
	records, err := m.api.CurrentChats(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to fetch chats")
		return nil, errs.NewError(errs.ErrChatsUnavailable)
	}

	users := make([]user.User, 0, len(records))
	for _, r := range records {
		users = append(users, r.Normalize())
	}
	return users, nil
}

// Search runs one user search for text. Failures yield an empty list.
func (m *Manager) Search(ctx context.Context, text string) []user.Record {
	records, err := m.api.Search(ctx, text)
	if err != nil {
		if api.IsCanceled(err) {
			m.logger.Debug().Str("search", text).Msg("User search canceled")
		} else {
			m.logger.Error().Err(err).Str("search", text).Msg("Error searching users")
		}
		return []user.Record{}
	}
	if records == nil {
		return []user.Record{}
	}
	return records
}

// Send posts text to the open conversation. Blank text or no selection is a no-op.
// The message shows up with the next poll.
func (m *Manager) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	selected := m.selection.Get()
	if selected == nil {
		return nil
	}

	if message.TooLong(text) {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	if err := m.api.Send(ctx, selected.ID, text); err != nil {
		m.logger.Error().Err(err).Str("conversation_id", selected.ID).Msg("Error sending message")
		return err
	}

	return nil
}

// FilterChats returns the users whose username or full name contains term.
func FilterChats(users []user.User, term string) []user.User {
	out := make([]user.User, 0, len(users))
	for _, u := range users {
		if u.Matches(term) {
			out = append(out, u)
		}
	}
	return out
}

func (m *Manager) emit(ev Event) {
	m.emitMu.RLock()
	defer m.emitMu.RUnlock()

	if m.closed {
		return
	}

	select {
	case m.events <- ev:
	default:
		m.logger.Warn().Int("event_type", int(ev.Type)).Msg("Event queue full, dropping event")
	}
}

// Close stops the poll loop and the presence channel and closes the event channel.
func (m *Manager) Close() {
	m.unsubscribe()
	m.poller.Stop()
	m.presence.Disconnect()

	m.emitMu.Lock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	m.emitMu.Unlock()

	m.logger.Info().Msg("Chat manager closed")
}
