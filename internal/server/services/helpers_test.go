package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/conversation"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/sessions"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

var errDB = errors.New("db down")

// brokenManager serves the in-memory store but lets a test swap in failing
// repositories, inside and outside units of work.
type brokenManager struct {
	*repomanager.MemoryRepositoryManager
	accounts accounts.Repository
	sessions sessions.Repository
}

func (m *brokenManager) Accounts() accounts.Repository {
	if m.accounts != nil {
		return m.accounts
	}
	return m.MemoryRepositoryManager.Accounts()
}

func (m *brokenManager) Sessions() sessions.Repository {
	if m.sessions != nil {
		return m.sessions
	}
	return m.MemoryRepositoryManager.Sessions()
}

func (m *brokenManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	return fn(ctx, m)
}

type failingAccounts struct{ err error }

func (f failingAccounts) Create(context.Context, *models.Account) (*models.Account, error) {
	return nil, f.err
}
func (f failingAccounts) GetByEmail(context.Context, string) (*models.Account, error) {
	return nil, f.err
}
func (f failingAccounts) GetByID(context.Context, string) (*models.Account, error) {
	return nil, f.err
}

// failingSessions delegates to a real repository and fails the methods
// named in failOn.
type failingSessions struct {
	sessions.Repository
	failOn map[string]bool
}

func (f failingSessions) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	if f.failOn["Create"] {
		return nil, errDB
	}
	return f.Repository.Create(ctx, s)
}

func (f failingSessions) ListByOwner(ctx context.Context, ownerID string) ([]*models.Session, error) {
	if f.failOn["ListByOwner"] {
		return nil, errDB
	}
	return f.Repository.ListByOwner(ctx, ownerID)
}

func (f failingSessions) Get(ctx context.Context, id, ownerID string) (*models.Session, error) {
	if f.failOn["Get"] {
		return nil, errDB
	}
	return f.Repository.Get(ctx, id, ownerID)
}

func (f failingSessions) AddUsage(ctx context.Context, id string, d models.UsageStats, at time.Time) error {
	if f.failOn["AddUsage"] {
		return errDB
	}
	return f.Repository.AddUsage(ctx, id, d, at)
}

type fakeCompleter struct {
	reply   string
	err     error
	history []conversation.Turn
	message string
	calls   int
}

func (f *fakeCompleter) Generate(_ context.Context, history []conversation.Turn, message string) (string, error) {
	f.calls++
	f.history = history
	f.message = message
	return f.reply, f.err
}

type fakeCounter struct {
	n   int64
	err error
}

func (f fakeCounter) CountTokens(context.Context, string) (int64, error) {
	return f.n, f.err
}

type fakeArchive struct {
	putKey  string
	putBody []byte
	putType string
	putErr  error
	signErr error
}

func (f *fakeArchive) Put(_ context.Context, key string, body []byte, contentType string) error {
	f.putKey, f.putBody, f.putType = key, body, contentType
	return f.putErr
}

func (f *fakeArchive) PresignGet(_ context.Context, key string) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://s3.local/" + key + "?sig=1", nil
}
