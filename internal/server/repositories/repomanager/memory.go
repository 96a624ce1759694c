package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/sessions"
)

// MemoryRepositoryManager keeps everything in process. Units of work are
// serialized and a failed one undoes only the session writes it made
// itself. Accounts are never written inside a unit of work.
type MemoryRepositoryManager struct {
	txMu     sync.Mutex
	accounts *accounts.MemoryRepository
	sessions *sessions.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		accounts: accounts.NewMemoryRepository(),
		sessions: sessions.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Open(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Close() error               { return nil }
func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Accounts() accounts.Repository { return m.accounts }
func (m *MemoryRepositoryManager) Sessions() sessions.Repository { return m.sessions }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &memoryTx{accounts: m.accounts, sessions: m.sessions.Tracked()}
	defer func() {
		if p := recover(); p != nil {
			tx.sessions.Rollback()
			panic(p)
		}
		if err != nil {
			tx.sessions.Rollback()
		}
	}()

	return fn(ctx, tx)
}

type memoryTx struct {
	accounts *accounts.MemoryRepository
	sessions *sessions.TrackedRepository
}

func (t *memoryTx) Accounts() accounts.Repository { return t.accounts }
func (t *memoryTx) Sessions() sessions.Repository { return t.sessions }
