// Package client talks to the gophchat HTTP API and bootstraps the local
// SQLite cache used by the CLI.
//
// Transport failures and 5xx/503 answers map to ErrUnavailable, 401 maps to
// ErrUnauthorized, and the remaining statuses wrap the shared sentinels from
// internal/common so callers can match them with errors.Is.
package client

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
)

type Client interface {
	// SetToken sets the bearer token sent with authenticated calls.
	SetToken(token string)
	Register(ctx context.Context, email, password, name string) (string, *models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	Ping(ctx context.Context) error
	Chat(ctx context.Context, sessionID, message string, history []models.Turn) (*models.ChatReply, error)
	ListSessions(ctx context.Context) ([]*models.Session, error)
	CreateSession(ctx context.Context, title string) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// Export returns the rendered document and its suggested file name.
	Export(ctx context.Context, id, format string) ([]byte, string, error)
	Archive(ctx context.Context, id, format string) (*models.ArchiveLink, error)
}
