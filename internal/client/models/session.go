// Package models holds the client-side view of server resources.
package models

import "time"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Stats struct {
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	TotalTokens      int64   `json:"totalTokens"`
	EstimatedCost    float64 `json:"estimatedCost"`
}

type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Turn is one prior exchange member sent along with a chat message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History converts the stored messages into chat history turns.
func (s *Session) History() []Turn {
	out := make([]Turn, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, Turn{Role: m.Role, Content: m.Content})
	}
	return out
}

// ChatReply is the result of a single chat turn.
type ChatReply struct {
	Text             string  `json:"text"`
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	TotalTokens      int64   `json:"totalTokens"`
	Cost             float64 `json:"cost"`
}

type ArchiveLink struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
