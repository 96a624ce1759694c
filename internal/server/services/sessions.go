package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/archive"
	"github.com/dmitrijs2005/gophchat/internal/server/export"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ArchiveStore persists export documents and returns download links.
type ArchiveStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// ArchiveLink locates an uploaded export.
type ArchiveLink struct {
	Key string
	URL string
}

type SessionService struct {
	repomanager repomanager.RepositoryManager
	archive     ArchiveStore
	log         logging.Logger
	now         func() time.Time
}

// NewSessionService builds the service. store may be nil, in which case
// Archive reports common.ErrorUnavailable.
func NewSessionService(m repomanager.RepositoryManager, store ArchiveStore, log logging.Logger) *SessionService {
	return &SessionService{
		repomanager: m,
		archive:     store,
		log:         log.With("module", "sessions"),
		now:         time.Now,
	}
}

func (s *SessionService) Create(ctx context.Context, ownerID, title string) (*models.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = common.DefaultSessionTitle
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repomanager.Sessions().Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %w", common.ErrorInternal, err)
	}
	return created, nil
}

func (s *SessionService) List(ctx context.Context, ownerID string) ([]*models.Session, error) {
	list, err := s.repomanager.Sessions().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %w", common.ErrorInternal, err)
	}
	return list, nil
}

func (s *SessionService) Get(ctx context.Context, ownerID, id string) (*models.Session, error) {
	session, err := s.repomanager.Sessions().Get(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: get session: %w", common.ErrorInternal, err)
	}
	return session, nil
}

func (s *SessionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repomanager.Sessions().Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: delete session: %w", common.ErrorInternal, err)
	}
	s.log.Info(ctx, "session deleted", "session_id", id)
	return nil
}

// Export renders an owned session in the requested format.
func (s *SessionService) Export(ctx context.Context, ownerID, id, format string) (*export.Document, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	session, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	doc, err := export.Render(session, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return doc, nil
}

// Archive uploads an export of an owned session and returns a presigned
// download link.
func (s *SessionService) Archive(ctx context.Context, ownerID, id, format string) (*ArchiveLink, error) {
	if s.archive == nil {
		return nil, common.ErrorUnavailable
	}

	doc, err := s.Export(ctx, ownerID, id, format)
	if err != nil {
		return nil, err
	}

	key := archive.Key(ownerID, id, doc.Extension)
	if err := s.archive.Put(ctx, key, doc.Body, doc.ContentType); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	url, err := s.archive.PresignGet(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "session archived", "session_id", id, "key", key)
	return &ArchiveLink{Key: key, URL: url}, nil
}
