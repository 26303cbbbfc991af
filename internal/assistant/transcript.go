package assistant

import (
	"sync"

	"github.com/google/uuid"
)

// Message is one line of the chat. Messages are never edited or removed.
type Message struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	IsUser    bool     `json:"isUser"`
	FollowUps []string `json:"followUps,omitempty"`
}

// Transcript is the append-only chat history, opened by the assistant's
// welcome message.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

func NewTranscript() *Transcript {
	t := &Transcript{}
	t.Append(WelcomeText, false, nil)
	return t
}

func (t *Transcript) Append(text string, isUser bool, followUps []string) Message {
	m := Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    isUser,
		FollowUps: append([]string(nil), followUps...),
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
	return m
}

// Messages returns a copy of the history, oldest first.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
