package httpapi

import (
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/conversation"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type turnDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message   string    `json:"message"`
	History   []turnDTO `json:"history"`
	SessionID string    `json:"sessionId"`
}

type chatResponse struct {
	Text             string  `json:"text"`
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	TotalTokens      int64   `json:"totalTokens"`
	Cost             float64 `json:"cost"`
}

type createSessionRequest struct {
	Title string `json:"title"`
}

type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type statsDTO struct {
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	TotalTokens      int64   `json:"totalTokens"`
	EstimatedCost    float64 `json:"estimatedCost"`
}

type sessionDTO struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"ownerId"`
	Title     string       `json:"title"`
	Messages  []messageDTO `json:"messages"`
	Stats     statsDTO     `json:"stats"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type archiveResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toUserDTO(a *models.Account) userDTO {
	return userDTO{ID: a.ID, Email: a.Email, Name: a.DisplayName}
}

func toSessionDTO(s *models.Session) sessionDTO {
	msgs := make([]messageDTO, 0, len(s.Messages))
	for _, m := range s.Messages {
		msgs = append(msgs, messageDTO{ID: m.ID, Role: string(m.Role), Content: m.Content, Timestamp: m.Timestamp})
	}
	return sessionDTO{
		ID:       s.ID,
		OwnerID:  s.OwnerID,
		Title:    s.Title,
		Messages: msgs,
		Stats: statsDTO{
			PromptTokens:     s.Stats.PromptTokens,
			CompletionTokens: s.Stats.CompletionTokens,
			TotalTokens:      s.Stats.TotalTokens,
			EstimatedCost:    s.Stats.EstimatedCost,
		},
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toTurns(in []turnDTO) []conversation.Turn {
	out := make([]conversation.Turn, 0, len(in))
	for _, t := range in {
		out = append(out, conversation.Turn{Role: models.Role(t.Role), Content: t.Content})
	}
	return out
}
