package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"whatsgram/internal/app/presence"
	"whatsgram/internal/pkg/logx"
)

const (
	// timeout duration for writing control frames to the presence socket.
	writeWait = 10 * time.Second

	// maximum time allowed between two server pings before the socket is considered dead.
	pongWait = 60 * time.Second

	// maximum allowed size (in bytes) of a presence frame.
	maxFrameSize = 64 * 1024
)

// ErrSessionReplaced is returned when the backend hands the channel over to a newer connection
// of the same user. The channel is not reopened.
var ErrSessionReplaced = errors.New("presence session replaced by another connection")

// PresenceConn is an open presence channel.
type PresenceConn interface {
	// ReadOnline blocks until the next online-users push.
	ReadOnline() ([]string, error)
	Close() error
}

// PresenceDialer opens presence channels for a user.
type PresenceDialer interface {
	Dial(ctx context.Context, userID string) (PresenceConn, error)
}

// WebsocketDialer dials the backend presence endpoint.
type WebsocketDialer struct {
	URL    string
	Dialer *websocket.Dialer
}

// Dial connects to URL?userId=userID.
func (d WebsocketDialer) Dial(ctx context.Context, userID string) (PresenceConn, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid presence url %q: %w", d.URL, err)
	}
	q := u.Query()
	q.Set(presence.QueryUserID, userID)
	u.RawQuery = q.Encode()

	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	conn.SetReadLimit(maxFrameSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetPingHandler(func(appData string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return err
		}
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

// ReadOnline skips frames that are not online-user lists.
func (c *wsConn) ReadOnline() ([]string, error) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, presence.CloseSessionReplaced) {
				return nil, ErrSessionReplaced
			}
			return nil, err
		}

		var frame presence.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Event != presence.EventOnlineUsers {
			continue
		}
		if frame.Data == nil {
			frame.Data = []string{}
		}
		return frame.Data, nil
	}
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// DefaultBackoff is the reconnect schedule of the presence channel.
func DefaultBackoff() retry.Backoff {
	b := retry.NewExponential(500 * time.Millisecond)
	b = retry.WithCappedDuration(30*time.Second, b)
	return retry.WithJitterPercent(10, b)
}

// Presence maintains the set of online user ids for one signed-in user.
type Presence struct {
	dialer   PresenceDialer
	backoff  func() retry.Backoff
	onUpdate func([]string)

	// lifeMu serializes Connect and Disconnect.
	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	userID string
	online []string

	connected atomic.Bool

	logger zerolog.Logger
}

// NewPresence returns a disconnected Presence. onUpdate receives every replacement of the
// online list, including the empty list after Disconnect.
func NewPresence(dialer PresenceDialer, backoff func() retry.Backoff, onUpdate func([]string)) *Presence {
	if backoff == nil {
		backoff = DefaultBackoff
	}
	return &Presence{
		dialer:   dialer,
		backoff:  backoff,
		onUpdate: onUpdate,
		online:   []string{},
		logger:   logx.Component("presence"),
	}
}

// Connect opens the channel for userID, closing any existing one first.
func (p *Presence) Connect(userID string) {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	p.disconnectLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	p.mu.Lock()
	p.userID = userID
	p.mu.Unlock()

	go p.run(ctx, userID, done)
}

// Disconnect closes the channel and empties the online list.
func (p *Presence) Disconnect() {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	p.disconnectLocked()
}

func (p *Presence) disconnectLocked() {
	if p.cancel == nil {
		return
	}

	p.cancel()
	<-p.done
	p.cancel, p.done = nil, nil

	p.mu.Lock()
	previous := p.userID
	p.userID = ""
	p.mu.Unlock()

	p.publish([]string{})
	p.logger.Info().Str("user_id", previous).Msg("Presence channel closed")
}

// Online returns a copy of the online user ids.
func (p *Presence) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.online))
	copy(out, p.online)
	return out
}

// IsOnline reports whether id is in the online list.
func (p *Presence) IsOnline(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, onlineID := range p.online {
		if onlineID == id {
			return true
		}
	}
	return false
}

// Connected reports whether a socket is currently open.
func (p *Presence) Connected() bool {
	return p.connected.Load()
}

func (p *Presence) publish(ids []string) {
	p.mu.Lock()
	p.online = ids
	p.mu.Unlock()

	if p.onUpdate != nil {
		out := make([]string, len(ids))
		copy(out, ids)
		p.onUpdate(out)
	}
}

func (p *Presence) run(ctx context.Context, userID string, done chan struct{}) {
	defer close(done)

	logger := p.logger.With().Str("user_id", userID).Logger()

	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		conn, err := p.dialer.Dial(ctx, userID)
		if err != nil {
			logger.Warn().Err(err).Msg("Presence dial failed")
			return retry.RetryableError(err)
		}

		logger.Info().Msg("Presence channel open")
		err = p.serve(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrSessionReplaced) {
			return err
		}

		logger.Warn().Err(err).Msg("Presence channel dropped, reconnecting")
		return retry.RetryableError(err)
	})
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, ErrSessionReplaced):
		logger.Warn().Msg("Presence session replaced")
		p.publish([]string{})
	default:
		logger.Error().Err(err).Msg("Presence channel gave up")
	}
}

// serve reads pushes until the connection fails or ctx is canceled. conn is closed exactly once.
func (p *Presence) serve(ctx context.Context, conn PresenceConn) error {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer func() {
		if stop() {
			conn.Close()
		}
	}()

	p.connected.Store(true)
	defer p.connected.Store(false)

	for {
		ids, err := conn.ReadOnline()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.publish(ids)
	}
}
