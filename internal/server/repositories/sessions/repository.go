// Package sessions stores conversation sessions, their transcripts and
// running usage totals. Every read and delete is scoped to the owner.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	// ListByOwner returns the owner's sessions, most recently updated first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Session, error)
	// Get returns common.ErrorNotFound when the session does not exist or
	// belongs to someone else.
	Get(ctx context.Context, id, ownerID string) (*models.Session, error)
	Delete(ctx context.Context, id, ownerID string) error
	AppendMessages(ctx context.Context, sessionID string, messages ...models.Message) error
	// AddUsage accumulates one turn into the session totals and bumps updated_at.
	AddUsage(ctx context.Context, sessionID string, delta models.UsageStats, at time.Time) error
}
