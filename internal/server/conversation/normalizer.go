// Package conversation reconciles client-supplied history with the
// constraints of the completion API: turns must alternate between the user
// and the model, and the history must not end with a user turn because the
// new message is sent right after it.
package conversation

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

// Turn is one history entry as received from a client. Any role other
// than "user" is treated as the assistant.
type Turn struct {
	Role    models.Role
	Content string
}

type Normalizer interface {
	Normalize(history []Turn) []Turn
}

const (
	PolicyDrop  = "drop"
	PolicyMerge = "merge"
)

// New returns the normalizer for a history policy name.
func New(policy string) (Normalizer, error) {
	switch policy {
	case "", PolicyDrop:
		return DropNormalizer{}, nil
	case PolicyMerge:
		return MergeNormalizer{}, nil
	default:
		return nil, fmt.Errorf("unknown history policy %q", policy)
	}
}

// DropNormalizer discards blank turns, keeps only the latest turn of every
// same-role run and removes a trailing user turn.
type DropNormalizer struct{}

func (DropNormalizer) Normalize(history []Turn) []Turn {
	out := make([]Turn, 0, len(history))

	for _, t := range history {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		t.Role = canonicalRole(t.Role)
		if n := len(out); n > 0 && out[n-1].Role == t.Role {
			out[n-1] = t
			continue
		}
		out = append(out, t)
	}

	return trimTrailingUser(out)
}

// MergeNormalizer joins a same-role run into one turn, separated by blank
// lines, instead of dropping its members.
type MergeNormalizer struct{}

func (MergeNormalizer) Normalize(history []Turn) []Turn {
	out := make([]Turn, 0, len(history))

	for _, t := range history {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		t.Role = canonicalRole(t.Role)
		if n := len(out); n > 0 && out[n-1].Role == t.Role {
			out[n-1].Content += "\n\n" + t.Content
			continue
		}
		out = append(out, t)
	}

	return trimTrailingUser(out)
}

func canonicalRole(r models.Role) models.Role {
	if r == models.RoleUser {
		return models.RoleUser
	}
	return models.RoleAssistant
}

func trimTrailingUser(turns []Turn) []Turn {
	if n := len(turns); n > 0 && turns[n-1].Role == models.RoleUser {
		return turns[:n-1]
	}
	return turns
}
