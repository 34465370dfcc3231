/*
Package db is the in-memory data store of the development backend.

It keeps users and the messages exchanged between pairs of users. The method set mirrors a
generated query layer so handlers read the same way they would against a real database.
*/
package db

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"whatsgram/internal/app/message"
	"whatsgram/internal/app/user"
	"whatsgram/internal/pkg/randx"
)

// UserRow is a stored account.
type UserRow struct {
	user.Record
	PasswordHash string
}

// CreateUserParams holds the columns of a new account.
type CreateUserParams struct {
	Email        string
	Username     string
	Fullname     string
	Gender       string
	PasswordHash string
}

// CreateMessageParams holds the columns of a new message.
type CreateMessageParams struct {
	SenderID   string
	ReceiverID string
	Text       string
}

type pairKey struct {
	a, b string
}

func keyFor(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// Queries is a concurrency-safe in-memory store.
type Queries struct {
	mu sync.RWMutex

	users      map[string]*UserRow
	byEmail    map[string]string
	byUsername map[string]string
	order      []string

	conversations map[pairKey][]message.Message
	lastActivity  map[pairKey]int64
	seq           int64

	now func() time.Time
}

// New returns an empty store.
func New() *Queries {
	return &Queries{
		users:         make(map[string]*UserRow),
		byEmail:       make(map[string]string),
		byUsername:    make(map[string]string),
		conversations: make(map[pairKey][]message.Message),
		lastActivity:  make(map[pairKey]int64),
		now:           time.Now,
	}
}

func (q *Queries) timestamp() string {
	return q.now().UTC().Format(time.RFC3339Nano)
}

// avatarURL returns the placeholder picture for a new account.
func avatarURL(gender, username string) string {
	kind := "boy"
	if strings.EqualFold(gender, "female") {
		kind = "girl"
	}
	return "https://avatar.iran.liara.run/public/" + kind + "?username=" + url.QueryEscape(username)
}

// CreateUser inserts an account. Email and username are unique, case-insensitively.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (UserRow, error) {
	if err := ctx.Err(); err != nil {
		return UserRow{}, err
	}

	email := strings.ToLower(strings.TrimSpace(arg.Email))
	username := strings.ToLower(strings.TrimSpace(arg.Username))

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.byEmail[email]; ok {
		return UserRow{}, ErrUniqueViolation
	}
	if _, ok := q.byUsername[username]; ok {
		return UserRow{}, ErrUniqueViolation
	}

	now := q.timestamp()
	row := &UserRow{
		Record: user.Record{
			ID:         randx.UserID(),
			Username:   strings.TrimSpace(arg.Username),
			Fullname:   strings.TrimSpace(arg.Fullname),
			Email:      strings.TrimSpace(arg.Email),
			ProfilePic: avatarURL(arg.Gender, arg.Username),
			Gender:     arg.Gender,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		PasswordHash: arg.PasswordHash,
	}

	q.users[row.ID] = row
	q.byEmail[email] = row.ID
	q.byUsername[username] = row.ID
	q.order = append(q.order, row.ID)

	return *row, nil
}

// GetUserByID returns the account with id.
func (q *Queries) GetUserByID(ctx context.Context, id string) (UserRow, error) {
	if err := ctx.Err(); err != nil {
		return UserRow{}, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	row, ok := q.users[id]
	if !ok {
		return UserRow{}, ErrNotFound
	}
	return *row, nil
}

// GetUserByEmail returns the account registered with email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	if err := ctx.Err(); err != nil {
		return UserRow{}, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	id, ok := q.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return UserRow{}, ErrNotFound
	}
	return *q.users[id], nil
}

// ListUsersExcept returns every account but excludeID, in registration order.
func (q *Queries) ListUsersExcept(ctx context.Context, excludeID string) ([]user.Record, error) {
	return q.SearchUsers(ctx, "", excludeID)
}

// SearchUsers returns the accounts other than excludeID whose username or full name contains
// term, ignoring case. An empty term matches everyone.
func (q *Queries) SearchUsers(ctx context.Context, term string, excludeID string) ([]user.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	out := []user.Record{}
	for _, id := range q.order {
		if id == excludeID {
			continue
		}
		row := q.users[id]
		if row.Record.Normalize().Matches(term) {
			out = append(out, row.Record)
		}
	}
	return out, nil
}

// ConversationPartners returns the accounts userID has exchanged messages with, most recent
// conversation first.
func (q *Queries) ConversationPartners(ctx context.Context, userID string) ([]user.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	type partner struct {
		id   string
		last int64
	}

	var partners []partner
	for key, last := range q.lastActivity {
		switch userID {
		case key.a:
			partners = append(partners, partner{id: key.b, last: last})
		case key.b:
			partners = append(partners, partner{id: key.a, last: last})
		}
	}

	sort.Slice(partners, func(i, j int) bool { return partners[i].last > partners[j].last })

	out := make([]user.Record, 0, len(partners))
	for _, p := range partners {
		if row, ok := q.users[p.id]; ok {
			out = append(out, row.Record)
		}
	}
	return out, nil
}

// CreateMessage appends a message to the conversation between sender and receiver.
func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (message.Message, error) {
	if err := ctx.Err(); err != nil {
		return message.Message{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.users[arg.ReceiverID]; !ok {
		return message.Message{}, ErrNotFound
	}

	msg := message.Message{
		ID:         randx.MessageID(),
		SenderID:   arg.SenderID,
		ReceiverID: arg.ReceiverID,
		Text:       arg.Text,
		CreatedAt:  q.timestamp(),
	}

	key := keyFor(arg.SenderID, arg.ReceiverID)
	q.conversations[key] = append(q.conversations[key], msg)
	q.seq++
	q.lastActivity[key] = q.seq

	return msg, nil
}

// ListMessages returns the conversation between two users in insertion order.
func (q *Queries) ListMessages(ctx context.Context, userID, otherID string) ([]message.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	msgs := q.conversations[keyFor(userID, otherID)]
	out := make([]message.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
