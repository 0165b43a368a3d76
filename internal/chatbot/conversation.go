package chatbot

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

var ErrEmptyInput = errors.New("chatbot: message is empty")

// Message is one transcript entry. Entries are never modified once appended.
type Message struct {
	Text    string
	IsUser  bool
	Options []string
}

// Transcript is an append-only, concurrency-safe message log.
type Transcript struct {
	mu   sync.RWMutex
	msgs []Message
}

func (t *Transcript) Append(msg Message) {
	msg.Options = slices.Clone(msg.Options)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, msg)
}

// Messages returns a copy of the log in append order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.msgs))
	for i, m := range t.msgs {
		m.Options = slices.Clone(m.Options)
		out[i] = m
	}
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}

// Delays are the pauses before the assistant answers.
type Delays struct {
	Reply  time.Duration
	Option time.Duration
}

var DefaultDelays = Delays{Reply: time.Second, Option: 800 * time.Millisecond}

// Conversation records one exchange per call into a transcript.
type Conversation struct {
	bot        *Dispatcher
	transcript *Transcript
	delays     Delays
}

func NewConversation(bot *Dispatcher, transcript *Transcript, delays Delays) *Conversation {
	return &Conversation{bot: bot, transcript: transcript, delays: delays}
}

// Send echoes typed text into the transcript, waits, then appends and
// returns the assistant's reply.
func (c *Conversation) Send(ctx context.Context, text string) (Reply, error) {
	if strings.TrimSpace(text) == "" {
		return Reply{}, ErrEmptyInput
	}
	c.transcript.Append(Message{Text: text, IsUser: true})
	pause(ctx, c.delays.Reply)
	reply := c.bot.Respond(text)
	c.transcript.Append(Message{Text: reply.Text, Options: reply.Options})
	return reply, nil
}

// Choose is Send for a clicked suggestion chip.
func (c *Conversation) Choose(ctx context.Context, option string) (Reply, error) {
	if strings.TrimSpace(option) == "" {
		return Reply{}, ErrEmptyInput
	}
	c.transcript.Append(Message{Text: option, IsUser: true})
	pause(ctx, c.delays.Option)
	reply := c.bot.Select(option)
	c.transcript.Append(Message{Text: reply.Text, Options: reply.Options})
	return reply, nil
}

// pause sleeps for d, returning early when ctx is done. The reply is
// recorded either way so every user entry gets exactly one answer.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
