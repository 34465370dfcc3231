package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsgram/internal/app/hub"
	"whatsgram/internal/app/presence"
)

type fakeConn struct {
	frames  chan []string
	dropped chan struct{}
	closed  chan struct{}
	once    sync.Once
	closes  atomic.Int32
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames:  make(chan []string, 8),
		dropped: make(chan struct{}),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadOnline() ([]string, error) {
	select {
	case ids := <-c.frames:
		return ids, nil
	case <-c.dropped:
		return nil, errors.New("connection reset")
	case <-c.closed:
		return nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) Close() error {
	c.closes.Add(1)
	c.once.Do(func() { close(c.closed) })
	return nil
}

type fakeDialer struct {
	mu      sync.Mutex
	conns   []*fakeConn
	userIDs []string
	failing atomic.Int32
}

func (d *fakeDialer) Dial(_ context.Context, userID string) (PresenceConn, error) {
	if d.failing.Load() > 0 {
		d.failing.Add(-1)
		return nil, errors.New("connection refused")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	d.userIDs = append(d.userIDs, userID)
	return conn, nil
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func fastBackoff() retry.Backoff {
	return retry.NewConstant(time.Millisecond)
}

func TestPresenceReplacesOnlineListWholesale(t *testing.T) {
	d := &fakeDialer{}
	p := NewPresence(d, fastBackoff, nil)
	t.Cleanup(p.Disconnect)

	p.Connect("u1")
	require.Eventually(t, func() bool { return d.dials() == 1 }, time.Second, time.Millisecond)

	d.conn(0).frames <- []string{"u1", "u2"}
	require.Eventually(t, func() bool { return len(p.Online()) == 2 }, time.Second, time.Millisecond)
	assert.True(t, p.IsOnline("u2"))
	assert.True(t, p.Connected())

	d.conn(0).frames <- []string{"u3"}
	require.Eventually(t, func() bool { return p.IsOnline("u3") }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"u3"}, p.Online())
	assert.False(t, p.IsOnline("u2"))
}

func TestPresenceDisconnectClosesOnceAndEmpties(t *testing.T) {
	d := &fakeDialer{}

	var mu sync.Mutex
	var last []string
	p := NewPresence(d, fastBackoff, func(ids []string) {
		mu.Lock()
		last = ids
		mu.Unlock()
	})

	p.Connect("u1")
	require.Eventually(t, func() bool { return d.dials() == 1 }, time.Second, time.Millisecond)
	d.conn(0).frames <- []string{"u1"}
	require.Eventually(t, func() bool { return p.IsOnline("u1") }, time.Second, time.Millisecond)

	p.Disconnect()

	assert.Equal(t, int32(1), d.conn(0).closes.Load())
	assert.Empty(t, p.Online())
	assert.False(t, p.Connected())

	mu.Lock()
	assert.Empty(t, last)
	mu.Unlock()

	p.Disconnect()
	assert.Equal(t, int32(1), d.conn(0).closes.Load())
}

func TestPresenceReconnectsAfterDrop(t *testing.T) {
	d := &fakeDialer{}
	d.failing.Store(2)

	p := NewPresence(d, fastBackoff, nil)
	t.Cleanup(p.Disconnect)

	p.Connect("u1")
	require.Eventually(t, func() bool { return d.dials() == 1 }, time.Second, time.Millisecond)

	close(d.conn(0).dropped)
	require.Eventually(t, func() bool { return d.dials() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), d.conn(0).closes.Load())
	assert.Equal(t, []string{"u1", "u1"}, d.userIDs)
}

func TestPresenceConnectReplacesPreviousChannel(t *testing.T) {
	d := &fakeDialer{}
	p := NewPresence(d, fastBackoff, nil)
	t.Cleanup(p.Disconnect)

	p.Connect("u1")
	require.Eventually(t, func() bool { return d.dials() == 1 }, time.Second, time.Millisecond)

	p.Connect("u2")
	require.Eventually(t, func() bool { return d.dials() == 2 }, time.Second, time.Millisecond)

	assert.Equal(t, int32(1), d.conn(0).closes.Load())
	assert.Equal(t, int32(0), d.conn(1).closes.Load())
	assert.Equal(t, "u2", d.userIDs[1])
}

func TestWebsocketDialerReadsOnlineFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotUser := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser <- r.URL.Query().Get(presence.QueryUserID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteJSON(presence.Frame{Event: "somethingElse", Data: []string{"x"}})
		_ = conn.WriteJSON(presence.OnlineUsers([]string{"u1", "u2"}))

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	dialer := WebsocketDialer{URL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := dialer.Dial(ctx, "u1")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "u1", <-gotUser)

	ids, err := conn.ReadOnline()
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)
}

func TestPresenceStopsWhenSessionReplaced(t *testing.T) {
	h := hub.New()
	go h.Run()
	t.Cleanup(h.Stop)

	var upgrades atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		upgrades.Add(1)
		c := hub.NewClient(h, conn, r.URL.Query().Get(presence.QueryUserID))
		go c.WritePump()
		if !h.Register(c) {
			conn.Close()
			return
		}
		c.ReadPump()
	}))
	t.Cleanup(srv.Close)

	dialer := WebsocketDialer{URL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"}

	first := NewPresence(dialer, fastBackoff, nil)
	t.Cleanup(first.Disconnect)
	first.Connect("u1")
	require.Eventually(t, func() bool { return first.IsOnline("u1") }, 5*time.Second, time.Millisecond)

	second := NewPresence(dialer, fastBackoff, nil)
	t.Cleanup(second.Disconnect)
	second.Connect("u1")
	require.Eventually(t, func() bool { return second.IsOnline("u1") }, 5*time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return !first.Connected() && len(first.Online()) == 0
	}, 5*time.Second, time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(2), upgrades.Load(), "the displaced channel must not redial")
	assert.True(t, second.Connected())
	assert.Equal(t, []string{"u1"}, h.Online())
}

func TestWebsocketDialerReportsSessionReplaced(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		msg := websocket.FormatCloseMessage(presence.CloseSessionReplaced, "replaced")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)

	dialer := WebsocketDialer{URL: "ws" + strings.TrimPrefix(srv.URL, "http")}
	conn, err := dialer.Dial(context.Background(), "u1")
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ReadOnline()
	assert.ErrorIs(t, err, ErrSessionReplaced)
}
