package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/client/repositories/cache"
	"github.com/dmitrijs2005/gophchat/internal/common"
)

// SessionService manages chat sessions. List and Get fall back to the local
// cache when the server is unreachable and report that through the offline
// result.
type SessionService interface {
	List(ctx context.Context) (list []*models.Session, offline bool, err error)
	Get(ctx context.Context, id string) (s *models.Session, offline bool, err error)
	Create(ctx context.Context, title string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	// Send runs one chat turn. A non-empty sessionID supplies the history and
	// receives the exchange; the refreshed session is returned when it could
	// be fetched.
	Send(ctx context.Context, sessionID, message string) (*models.ChatReply, *models.Session, error)
	Export(ctx context.Context, id, format string) ([]byte, string, error)
	Archive(ctx context.Context, id, format string) (*models.ArchiveLink, error)
}

type sessionService struct {
	client client.Client
	cache  cache.Repository
}

func NewSessionService(c client.Client, r cache.Repository) SessionService {
	return &sessionService{client: c, cache: r}
}

func (s *sessionService) List(ctx context.Context) ([]*models.Session, bool, error) {
	list, err := s.client.ListSessions(ctx)
	if errors.Is(err, client.ErrUnavailable) {
		cached, cerr := s.cache.ListSessions(ctx)
		if cerr != nil {
			return nil, true, cerr
		}
		return cached, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.ReplaceSessions(ctx, list); err != nil {
		return nil, false, err
	}
	return list, false, nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*models.Session, bool, error) {
	session, err := s.client.GetSession(ctx, id)
	switch {
	case errors.Is(err, client.ErrUnavailable):
		cached, cerr := s.cache.GetSession(ctx, id)
		if cerr != nil {
			return nil, true, cerr
		}
		return cached, true, nil
	case errors.Is(err, common.ErrorNotFound):
		_ = s.cache.DeleteSession(ctx, id)
		return nil, false, err
	case err != nil:
		return nil, false, err
	}

	if err := s.cache.SaveSession(ctx, session); err != nil {
		return nil, false, err
	}
	return session, false, nil
}

func (s *sessionService) Create(ctx context.Context, title string) (*models.Session, error) {
	session, err := s.client.CreateSession(ctx, title)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteSession(ctx, id); err != nil {
		return err
	}
	return s.cache.DeleteSession(ctx, id)
}

func (s *sessionService) Send(ctx context.Context, sessionID, message string) (*models.ChatReply, *models.Session, error) {
	var history []models.Turn
	if sessionID != "" {
		session, offline, err := s.Get(ctx, sessionID)
		if err != nil {
			return nil, nil, err
		}
		if offline {
			return nil, nil, client.ErrUnavailable
		}
		history = session.History()
	}

	reply, err := s.client.Chat(ctx, sessionID, message, history)
	if err != nil {
		return nil, nil, err
	}
	if sessionID == "" {
		return reply, nil, nil
	}

	session, err := s.client.GetSession(ctx, sessionID)
	if err != nil {
		return reply, nil, nil
	}
	if err := s.cache.SaveSession(ctx, session); err != nil {
		return reply, nil, nil
	}
	return reply, session, nil
}

func (s *sessionService) Export(ctx context.Context, id, format string) ([]byte, string, error) {
	return s.client.Export(ctx, id, format)
}

func (s *sessionService) Archive(ctx context.Context, id, format string) (*models.ArchiveLink, error) {
	return s.client.Archive(ctx, id, format)
}
