// Package export renders a session transcript as a downloadable document.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// Document is a rendered export.
type Document struct {
	Body        []byte
	ContentType string
	Extension   string
}

// ParseFormat accepts the format names above plus "md"; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", common.ErrorValidation, s)
}

func Render(s *models.Session, f Format) (*Document, error) {
	switch f {
	case FormatJSON:
		return renderJSON(s)
	case FormatMarkdown:
		return renderMarkdown(s), nil
	case FormatCSV:
		return renderCSV(s)
	}
	return nil, fmt.Errorf("%w: unsupported export format %q", common.ErrorValidation, f)
}

type jsonMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type jsonStats struct {
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	TotalTokens      int64   `json:"totalTokens"`
	EstimatedCost    float64 `json:"estimatedCost"`
}

type jsonDocument struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Stats     jsonStats     `json:"stats"`
	Messages  []jsonMessage `json:"messages"`
}

func renderJSON(s *models.Session) (*Document, error) {
	doc := jsonDocument{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Stats: jsonStats{
			PromptTokens:     s.Stats.PromptTokens,
			CompletionTokens: s.Stats.CompletionTokens,
			TotalTokens:      s.Stats.TotalTokens,
			EstimatedCost:    s.Stats.EstimatedCost,
		},
		Messages: make([]jsonMessage, 0, len(s.Messages)),
	}
	for _, m := range s.Messages {
		doc.Messages = append(doc.Messages, jsonMessage{Role: string(m.Role), Content: m.Content, Timestamp: m.Timestamp})
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return &Document{Body: b, ContentType: "application/json", Extension: "json"}, nil
}

func renderMarkdown(s *models.Session) *Document {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	fmt.Fprintf(&b, "- Created: %s\n", s.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Tokens: %d prompt, %d completion, %d total\n",
		s.Stats.PromptTokens, s.Stats.CompletionTokens, s.Stats.TotalTokens)
	fmt.Fprintf(&b, "- Estimated cost: $%.6f\n", s.Stats.EstimatedCost)

	for _, m := range s.Messages {
		speaker := "User"
		if m.Role == models.RoleAssistant {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "\n## %s (%s)\n\n%s\n", speaker, m.Timestamp.UTC().Format(time.RFC3339), m.Content)
	}

	return &Document{Body: []byte(b.String()), ContentType: "text/markdown; charset=utf-8", Extension: "md"}
}

func renderCSV(s *models.Session) (*Document, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"index", "role", "timestamp", "content"}); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	for i, m := range s.Messages {
		row := []string{strconv.Itoa(i + 1), string(m.Role), m.Timestamp.UTC().Format(time.RFC3339), m.Content}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	return &Document{Body: buf.Bytes(), ContentType: "text/csv; charset=utf-8", Extension: "csv"}, nil
}
