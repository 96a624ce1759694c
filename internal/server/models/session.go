package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable entry of a session transcript.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// UsageStats are running totals over the lifetime of a session.
// TotalTokens always equals PromptTokens + CompletionTokens.
type UsageStats struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	EstimatedCost    float64
}

// Add returns s with one turn's usage accumulated into it.
func (s UsageStats) Add(promptTokens, completionTokens int64, cost float64) UsageStats {
	s.PromptTokens += promptTokens
	s.CompletionTokens += completionTokens
	s.TotalTokens += promptTokens + completionTokens
	s.EstimatedCost += cost
	return s
}

// Session is a conversation owned by exactly one account.
type Session struct {
	ID        string
	OwnerID   string
	Title     string
	Messages  []Message
	Stats     UsageStats
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy that shares no slices with s.
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	return &c
}
