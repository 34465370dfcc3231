package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"whatsgram/internal/app/message"
	"whatsgram/internal/pkg/logx"
)

// Fetcher loads the message history of a conversation.
type Fetcher func(ctx context.Context, conversationID string) ([]message.Message, error)

// Poller re-fetches the history of one conversation on a fixed interval.
// At most one loop runs at a time; starting a new conversation cancels the previous loop and
// waits for it to exit first.
type Poller struct {
	fetch    Fetcher
	interval time.Duration
	onUpdate func(conversationID string, msgs []message.Message)

	// lifeMu serializes Start and Stop.
	lifeMu sync.Mutex

	// mu protects the fields below.
	mu       sync.Mutex
	gen      uint64
	current  string
	messages []message.Message
	cancel   context.CancelFunc
	done     chan struct{}

	logger zerolog.Logger
}

// NewPoller returns a Poller. onUpdate, when set, is called from the loop goroutine with every
// new message list, and once with an empty list after each Stop.
func NewPoller(fetch Fetcher, interval time.Duration, onUpdate func(string, []message.Message)) *Poller {
	return &Poller{
		fetch:    fetch,
		interval: interval,
		onUpdate: onUpdate,
		messages: []message.Message{},
		logger:   logx.Component("poller"),
	}
}

// Start fetches conversationID immediately and then every interval until the next Start or Stop.
func (p *Poller) Start(conversationID string) {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.current = conversationID
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	p.logger.Debug().Str("conversation_id", conversationID).Dur("interval", p.interval).Msg("Polling started")

	go p.run(ctx, gen, conversationID, done)
}

// Stop cancels the running loop, if any, and resets the message list to empty.
func (p *Poller) Stop() {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	p.stopLocked()
}

func (p *Poller) stopLocked() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	previous := p.current
	p.cancel, p.done = nil, nil
	p.gen++
	p.current = ""
	p.messages = []message.Message{}
	p.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	p.logger.Debug().Str("conversation_id", previous).Msg("Polling stopped")

	if p.onUpdate != nil {
		p.onUpdate(previous, []message.Message{})
	}
}

// Current returns the conversation being polled, or "".
func (p *Poller) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Messages returns a copy of the latest message list.
func (p *Poller) Messages() []message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]message.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

func (p *Poller) run(ctx context.Context, gen uint64, conversationID string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx, gen, conversationID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, gen, conversationID)
		}
	}
}

// tick fetches once. A failed fetch blanks the list until a later tick succeeds.
func (p *Poller) tick(ctx context.Context, gen uint64, conversationID string) {
	msgs, err := p.fetch(ctx, conversationID)
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		p.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Error fetching chats")
		msgs = nil
	}
	if msgs == nil {
		msgs = []message.Message{}
	}

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.messages = msgs
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(conversationID, msgs)
	}
}
