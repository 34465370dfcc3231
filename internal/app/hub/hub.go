/*
Package hub is the presence hub of the development backend.

Every signed-in client keeps one websocket open. The hub tracks which user ids are connected
and pushes the complete online list to every client whenever someone joins or leaves.
*/
package hub

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"whatsgram/internal/app/presence"
	"whatsgram/internal/pkg/logx"
)

// Hub struct is the central registry of connected presence clients.
type Hub struct {
	// connected clients, keyed by user id. One connection per user.
	clients map[string]*Client

	// a channel for clients announcing themselves.
	register chan *Client

	// a channel for clients going away.
	unregister chan *Client

	// closed to stop the Run loop.
	stopChan chan struct{}
	stopOnce sync.Once

	// closed once Run has returned.
	done chan struct{}

	// mu protects access to the clients map.
	mu sync.RWMutex

	logger zerolog.Logger
}

// New creates an idle Hub. Call Run to start it.
func New() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logx.Component("hub"),
	}
}

// Register hands c to the Run loop. It returns false when the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c if it is still the current connection of its user.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Online returns the connected user ids in ascending order.
func (h *Hub) Online() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.onlineLocked()
}

func (h *Hub) onlineLocked() []string {
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stop terminates the Run loop and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info().Msg("Received stop signal. Stopping hub.")
		close(h.stopChan)
	})
	<-h.done
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	defer func() {
		h.mu.Lock()
		for id, c := range h.clients {
			c.closeSend()
			delete(h.clients, id)
		}
		h.mu.Unlock()

		close(h.done)
		h.logger.Info().Msg("Hub Run loop finished.")
	}()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if existing, ok := h.clients[c.userID]; ok && existing != c {
				h.logger.Warn().Str("user_id", c.userID).Msg("User already connected. Replacing old connection.")
				existing.Kick("Session replaced by new connection.")
			}
			h.clients[c.userID] = c
			total := len(h.clients)
			h.mu.Unlock()

			h.logger.Info().Str("user_id", c.userID).Int("total_users", total).Msg("Client joined.")
			h.broadcastOnline()

		case c := <-h.unregister:
			h.mu.Lock()
			current, ok := h.clients[c.userID]
			if ok && current == c {
				delete(h.clients, c.userID)
			}
			total := len(h.clients)
			h.mu.Unlock()

			c.closeSend()

			if ok && current == c {
				h.logger.Info().Str("user_id", c.userID).Int("total_users", total).Msg("Client left.")
				h.broadcastOnline()
			}

		case <-h.stopChan:
			return
		}
	}
}

// broadcastOnline pushes the online list to every client.
func (h *Hub) broadcastOnline() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(presence.OnlineUsers(h.onlineLocked()))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal online users frame")
		return
	}

	for _, c := range h.clients {
		c.queue(data)
	}
}
