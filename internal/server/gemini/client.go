// Package gemini adapts the Gemini API SDK to one-shot generation over a
// chat history and prompt token counting.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/conversation"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"google.golang.org/genai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"

	requestTimeout = 120 * time.Second
)

var (
	// ErrEmptyResponse is returned when the model produced no usable text,
	// for example when the candidate was blocked.
	ErrEmptyResponse = errors.New("gemini: empty response")
	ErrNoAPIKey      = errors.New("gemini: api key is not configured")
)

type Client struct {
	model  string
	models *genai.Models
}

// NewClient builds a client for model. With an empty apiKey the client is
// still returned, but every call fails with ErrNoAPIKey.
func NewClient(ctx context.Context, baseURL, model, apiKey string) (*Client, error) {
	c := &Client{model: model}
	if apiKey == "" {
		return c, nil
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: requestTimeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: init client: %w", err)
	}
	c.models = gc.Models

	return c, nil
}

// Generate sends history followed by message and returns the model reply.
// history is expected to alternate roles and end with a model turn.
func (c *Client) Generate(ctx context.Context, history []conversation.Turn, message string) (string, error) {
	if c.models == nil {
		return "", ErrNoAPIKey
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		contents = append(contents, genai.NewContentFromText(t.Content, sdkRole(t.Role)))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generateContent: %w", err)
	}
	return replyText(resp)
}

// CountTokens asks the API how many prompt tokens text takes as a single
// user turn.
func (c *Client) CountTokens(ctx context.Context, text string) (int64, error) {
	if c.models == nil {
		return 0, ErrNoAPIKey
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := c.models.CountTokens(ctx, c.model, contents, nil)
	if err != nil {
		return 0, fmt.Errorf("gemini: countTokens: %w", err)
	}
	return int64(resp.TotalTokens), nil
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", ErrEmptyResponse
	}

	switch reason := resp.Candidates[0].FinishReason; reason {
	case "", genai.FinishReasonStop, genai.FinishReasonMaxTokens:
	default:
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, reason)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func sdkRole(r models.Role) genai.Role {
	if r == models.RoleUser {
		return genai.RoleUser
	}
	return genai.RoleModel
}
