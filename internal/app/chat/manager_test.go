package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsgram/internal/app/message"
	"whatsgram/internal/app/session"
	"whatsgram/internal/app/storage"
	"whatsgram/internal/app/user"
	"whatsgram/internal/pkg/errs"
)

type fakeAPI struct {
	mu        sync.Mutex
	chats     []user.Record
	chatsErr  error
	results   []user.Record
	searchErr error
	searches  []string
	sends     []string
	sendErr   error
}

func (f *fakeAPI) CurrentChats(context.Context) ([]user.Record, error) {
	return f.chats, f.chatsErr
}

func (f *fakeAPI) Search(_ context.Context, text string) ([]user.Record, error) {
	f.mu.Lock()
	f.searches = append(f.searches, text)
	f.mu.Unlock()
	return f.results, f.searchErr
}

func (f *fakeAPI) Messages(_ context.Context, id string) ([]message.Message, error) {
	return []message.Message{{ID: "m1", SenderID: id, Text: "hello"}}, nil
}

func (f *fakeAPI) Send(_ context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, id+":"+text)
	return f.sendErr
}

func (f *fakeAPI) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sends...)
}

func newTestManager(t *testing.T, api *fakeAPI) (*Manager, *session.Store, *fakeDialer) {
	t.Helper()

	local, err := storage.NewLocalStorage(storage.ServiceConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	store := session.NewStore(local)
	dialer := &fakeDialer{}

	m := NewManager(Options{
		API:          api,
		Sessions:     store,
		Dialer:       dialer,
		PollInterval: time.Hour,
		Backoff:      fastBackoff,
	})
	t.Cleanup(m.Close)

	return m, store, dialer
}

func TestManagerFollowsSessionLifecycle(t *testing.T) {
	m, store, dialer := newTestManager(t, &fakeAPI{})

	assert.Equal(t, 0, dialer.dials(), "no session, no presence channel")

	require.NoError(t, store.Set(&session.Session{ID: "me", Username: "me"}))
	require.Eventually(t, func() bool { return dialer.dials() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "me", dialer.userIDs[0])

	dialer.conn(0).frames <- []string{"me", "bob"}
	require.Eventually(t, func() bool { return m.IsOnline("bob") }, time.Second, time.Millisecond)

	m.Select(user.User{ID: "bob", Username: "bob"})
	require.NotNil(t, m.Selected())

	require.NoError(t, store.Set(nil))

	assert.Equal(t, int32(1), dialer.conn(0).closes.Load(), "presence socket closed exactly once")
	assert.Empty(t, m.Online())
	assert.Nil(t, m.Selected())
	assert.Empty(t, m.Messages())
}

func TestManagerConnectsForRestoredSession(t *testing.T) {
	local, err := storage.NewLocalStorage(storage.ServiceConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	store := session.NewStore(local)
	require.NoError(t, store.Set(&session.Session{ID: "me"}))

	dialer := &fakeDialer{}
	m := NewManager(Options{API: &fakeAPI{}, Sessions: store, Dialer: dialer, Backoff: fastBackoff})
	t.Cleanup(m.Close)

	require.Eventually(t, func() bool { return dialer.dials() == 1 }, time.Second, time.Millisecond)
}

func TestSelectSearchResultKeepsConversationSubset(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeAPI{})

	m.SelectSearchResult(user.Record{
		ID:         "bob",
		Username:   "bob",
		Fullname:   "Bob Stone",
		Email:      "bob@example.com",
		ProfilePic: "https://avatar/bob",
		Gender:     "male",
		CreatedAt:  "2024-01-01T00:00:00Z",
		UpdatedAt:  "2024-01-02T00:00:00Z",
	})

	assert.Equal(t, &user.User{
		ID:         "bob",
		Username:   "bob",
		Fullname:   "Bob Stone",
		Email:      "bob@example.com",
		ProfilePic: "https://avatar/bob",
		Gender:     "male",
	}, m.Selected())

	require.Eventually(t, func() bool { return len(m.Messages()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "bob", m.Messages()[0].SenderID)
}

func TestSendIsNoopForBlankTextOrNoSelection(t *testing.T) {
	api := &fakeAPI{}
	m, _, _ := newTestManager(t, api)

	require.NoError(t, m.Send(context.Background(), "hello"))
	assert.Empty(t, api.sent(), "no selection")

	m.Select(user.User{ID: "bob"})

	require.NoError(t, m.Send(context.Background(), "   "))
	assert.Empty(t, api.sent(), "blank text")

	require.NoError(t, m.Send(context.Background(), "hi bob"))
	assert.Equal(t, []string{"bob:hi bob"}, api.sent())
}

func TestSendSurfacesFailures(t *testing.T) {
	api := &fakeAPI{sendErr: errs.Rejected("Receiver not found")}
	m, _, _ := newTestManager(t, api)
	m.Select(user.User{ID: "bob"})

	err := m.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, "Receiver not found", errs.UserMessage(err))

	long := make([]byte, message.MaxTextLength+1)
	for i := range long {
		long[i] = 'a'
	}
	err = m.Send(context.Background(), string(long))
	assert.True(t, errs.HasCode(err, errs.ErrMessageContentTooLong))
	assert.Len(t, api.sent(), 1)
}

func TestSendLimitCountsCharacters(t *testing.T) {
	api := &fakeAPI{}
	m, _, _ := newTestManager(t, api)
	m.Select(user.User{ID: "bob"})

	wide := strings.Repeat("é", message.MaxTextLength)
	require.NoError(t, m.Send(context.Background(), wide))
	assert.Len(t, api.sent(), 1)

	err := m.Send(context.Background(), wide+"é")
	assert.True(t, errs.HasCode(err, errs.ErrMessageContentTooLong))
	assert.Len(t, api.sent(), 1)
}

func TestSearchDegradesToEmptyList(t *testing.T) {
	api := &fakeAPI{searchErr: errors.New("timeout")}
	m, _, _ := newTestManager(t, api)

	results := m.Search(context.Background(), "")
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, []string{""}, api.searches, "empty term still issues the request")
}

func TestCurrentChatsFailureIsCoded(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeAPI{chatsErr: errors.New("boom")})

	_, err := m.CurrentChats(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch chats.", errs.UserMessage(err))
}

func TestFilterChats(t *testing.T) {
	users := []user.User{
		{ID: "1", Username: "alice", Fullname: "Alice Liddell"},
		{ID: "2", Username: "bob", Fullname: "Bob Stone"},
		{ID: "3", Username: "carol", Fullname: "Carol Bobbins"},
	}

	assert.Len(t, FilterChats(users, ""), 3)
	assert.Equal(t, []user.User{users[1], users[2]}, FilterChats(users, "BOB"))
	assert.Empty(t, FilterChats(users, "zed"))
}

func TestEventsClosedAfterClose(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeAPI{})
	m.Close()

	for range m.Events() {
	}

	m.Select(user.User{ID: "bob"})
	m.Close()
}
