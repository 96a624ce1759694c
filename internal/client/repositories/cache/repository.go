// Package cache keeps a local SQLite copy of the user's sessions and a few
// key/value settings so the CLI can browse history while the server is down.
package cache

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
)

// Metadata keys.
const (
	KeyEmail = "email"
	KeyToken = "token"
)

type Repository interface {
	// SaveSession inserts or replaces the cached copy of s.
	SaveSession(ctx context.Context, s *models.Session) error
	// ListSessions returns cached sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]*models.Session, error)
	// GetSession returns common.ErrorNotFound for an uncached id.
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// ReplaceSessions drops every cached session and stores list instead.
	ReplaceSessions(ctx context.Context, list []*models.Session) error

	Value(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
	// Clear wipes sessions and metadata.
	Clear(ctx context.Context) error
}
