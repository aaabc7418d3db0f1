package screen

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ApologyMessage replaces the reply when the assistant cannot be reached.
const ApologyMessage = "Hubo un problema al conectar con la IA. Intenta nuevamente."

type Sender string

const (
	FromUser Sender = "user"
	FromBot  Sender = "bot"
)

type Message struct {
	From Sender
	Text string
}

type Chat struct {
	api API
	log zerolog.Logger

	mu      sync.Mutex
	history []Message
}

func NewChat(api API, log zerolog.Logger) *Chat {
	return &Chat{api: api, log: log.With().Str("screen", "chat").Logger()}
}

func (c *Chat) Title() string { return "Soporte y dudas frecuentes" }

// Send appends the user's message and the assistant's answer. Blank input
// is ignored. The returned message is the bot bubble that was appended.
func (c *Chat) Send(ctx context.Context, text string) (Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, false
	}
	c.append(Message{From: FromUser, Text: text})

	reply, err := c.api.Chat(ctx, text)
	if err != nil {
		c.log.Warn().Err(err).Msg("chat request failed")
		reply = ApologyMessage
	}

	msg := Message{From: FromBot, Text: reply}
	c.append(msg)
	return msg, true
}

func (c *Chat) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.history...)
}

func (c *Chat) append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, m)
}
