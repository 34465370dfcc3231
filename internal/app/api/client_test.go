package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsgram/internal/app/db"
	"whatsgram/internal/app/hub"
	"whatsgram/internal/configs"
	"whatsgram/internal/handler"
	"whatsgram/internal/pkg/errs"
)

type staticToken struct {
	mu    sync.Mutex
	token string
}

func (s *staticToken) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *staticToken) set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func newBackend(t *testing.T) string {
	t.Helper()

	cfg := configs.Default()
	cfg.JWTSecret = "test-secret"

	h := hub.New()
	go h.Run()
	t.Cleanup(h.Stop)

	router, cleanup := handler.Router(&handler.AppDeps{Config: cfg, DB: db.New(), Hub: h})
	t.Cleanup(cleanup)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func newTestClient(t *testing.T, baseURL string, tokens TokenSource) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, Timeout: 5 * time.Second, RequestRate: 100}, tokens)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func register(t *testing.T, c *Client, username string) {
	t.Helper()
	require.NoError(t, c.Register(context.Background(), RegisterInput{
		Email:    username + "@example.com",
		Password: "secret123",
		Username: username,
		Fullname: username + " Example",
		Gender:   "male",
	}))
}

func TestClientAgainstDevBackend(t *testing.T) {
	ctx := context.Background()
	base := newBackend(t)

	tokens := &staticToken{}
	c := newTestClient(t, base, tokens)

	register(t, c, "ana")
	register(t, c, "bob")

	err := c.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "secret123", Username: "ana_two", Fullname: "A", Gender: "male"})
	require.Error(t, err)
	assert.Equal(t, "User already exists", errs.UserMessage(err))

	_, err = c.Login(ctx, LoginInput{Email: "ana@example.com", Password: "nope-nope"})
	assert.Equal(t, "Invalid credentials", errs.UserMessage(err))

	sess, err := c.Login(ctx, LoginInput{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ana", sess.Username)
	require.NotEmpty(t, sess.Token)
	tokens.set(sess.Token)

	chats, err := c.CurrentChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	bob := chats[0]
	assert.Equal(t, "bob", bob.Username)
	assert.NotEmpty(t, bob.CreatedAt)

	msgs, err := c.Messages(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	require.NoError(t, c.Send(ctx, bob.ID, "hello bob"))

	msgs, err = c.Messages(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello bob", msgs[0].Text)
	assert.Equal(t, sess.ID, msgs[0].SenderID)

	results, err := c.Search(ctx, "bo")
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = c.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, results, 1, "empty search still returns everyone but the caller")

	require.NoError(t, c.Logout(ctx))
}

func TestClientUsesCookieWithoutBearer(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, newBackend(t), nil)

	register(t, c, "ana")
	_, err := c.Login(ctx, LoginInput{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = c.CurrentChats(ctx)
	require.NoError(t, err, "jwt cookie authenticates")

	require.NoError(t, c.Logout(ctx))

	_, err = c.CurrentChats(ctx)
	require.Error(t, err)
}

func TestTransportFailureIsGeneric(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, nil)

	_, err := c.Login(context.Background(), LoginInput{Email: "a", Password: "b"})
	require.Error(t, err)
	assert.Equal(t, "An error occurred. Please try again.", errs.UserMessage(err))
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, newBackend(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CurrentChats(ctx)
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

func TestLoginWithoutIDIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username":"ghost"}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, nil)
	_, err := c.Login(context.Background(), LoginInput{Email: "a", Password: "b"})
	assert.True(t, errs.HasCode(err, errs.ErrRequestFailed))
}

func TestDecodeFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantNil bool
		code    int
		message string
	}{
		{name: "success object", status: 200, body: `{"_id":"1"}`, wantNil: true},
		{name: "success array", status: 200, body: `[{"_id":"1"}]`, wantNil: true},
		{name: "empty body", status: 200, body: ``, wantNil: true},
		{name: "success false on 200", status: 200, body: `{"success":false,"message":"Invalid credentials"}`, code: errs.ErrBackendRejected, message: "Invalid credentials"},
		{name: "error field", status: 400, body: `{"error":"User already exists"}`, code: errs.ErrBackendRejected, message: "User already exists"},
		{name: "success false without message", status: 400, body: `{"success":false}`, code: errs.ErrRequestFailed},
		{name: "bare 401", status: 401, body: `Unauthorized`, code: errs.ErrUnauthorized},
		{name: "bare 500", status: 500, body: `<html>`, code: errs.ErrRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeFailure(tt.status, []byte(tt.body))
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, got.Message)
			}
		})
	}
}
