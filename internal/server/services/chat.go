package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/conversation"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/pricing"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Completer produces the model reply to message given a normalized history.
type Completer interface {
	Generate(ctx context.Context, history []conversation.Turn, message string) (string, error)
}

// TokenCounter reports the provider's prompt token count for text.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int64, error)
}

type ChatRequest struct {
	OwnerID   string
	SessionID string
	Message   string
	History   []conversation.Turn
}

// ChatResult describes this turn only, never the session totals.
type ChatResult struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	Cost             float64
}

type ChatService struct {
	repomanager repomanager.RepositoryManager
	completer   Completer
	counter     TokenCounter
	normalizer  conversation.Normalizer
	pricing     *pricing.Calculator
	log         logging.Logger
	now         func() time.Time
}

// NewChatService wires the orchestrator. counter may be nil, then prompt
// tokens are estimated locally.
func NewChatService(m repomanager.RepositoryManager, completer Completer, counter TokenCounter,
	normalizer conversation.Normalizer, calc *pricing.Calculator, log logging.Logger) *ChatService {
	return &ChatService{
		repomanager: m,
		completer:   completer,
		counter:     counter,
		normalizer:  normalizer,
		pricing:     calc,
		log:         log.With("module", "chat"),
		now:         time.Now,
	}
}

// Chat runs one turn. When SessionID names a session owned by the caller,
// both messages and the usage are stored atomically. An unknown or foreign
// session id is ignored and the turn still succeeds.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", common.ErrorValidation)
	}

	history := s.normalizer.Normalize(req.History)

	text, err := s.completer.Generate(ctx, history, req.Message)
	if err != nil {
		return nil, fmt.Errorf("%w: completion: %w", common.ErrorInternal, err)
	}

	promptTokens, err := s.promptTokens(ctx, req.Message)
	if err != nil {
		return nil, fmt.Errorf("%w: count tokens: %w", common.ErrorInternal, err)
	}
	completionTokens := pricing.EstimateTokens(text)
	cost := s.pricing.Cost(promptTokens, completionTokens)

	result := &ChatResult{
		Text:             text,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Cost:             cost,
	}

	if req.SessionID != "" {
		if err := s.record(ctx, req, result); err != nil {
			return nil, fmt.Errorf("%w: record turn: %w", common.ErrorInternal, err)
		}
	}

	s.log.Info(ctx, "chat turn",
		"session_id", req.SessionID,
		"prompt_tokens", promptTokens,
		"completion_tokens", completionTokens,
		"cost", cost)

	return result, nil
}

func (s *ChatService) promptTokens(ctx context.Context, message string) (int64, error) {
	if s.counter == nil {
		return pricing.EstimateTokens(message), nil
	}
	return s.counter.CountTokens(ctx, message)
}

func (s *ChatService) record(ctx context.Context, req ChatRequest, res *ChatResult) error {
	return s.repomanager.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		sessions := repos.Sessions()

		if _, err := sessions.Get(ctx, req.SessionID, req.OwnerID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.log.Debug(ctx, "session not found, turn not recorded", "session_id", req.SessionID)
				return nil
			}
			return err
		}

		now := s.now().UTC()
		err := sessions.AppendMessages(ctx, req.SessionID,
			models.Message{ID: uuid.NewString(), Role: models.RoleUser, Content: req.Message, Timestamp: now},
			models.Message{ID: uuid.NewString(), Role: models.RoleAssistant, Content: res.Text, Timestamp: now},
		)
		if err != nil {
			return err
		}

		delta := models.UsageStats{}.Add(res.PromptTokens, res.CompletionTokens, res.Cost)
		return sessions.AddUsage(ctx, req.SessionID, delta, now)
	})
}
