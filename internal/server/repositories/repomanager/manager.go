// Package repomanager owns the storage lifecycle: it opens the backing
// store, vends repositories and runs units of work atomically.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/sessions"
)

// Repositories is the set of stores visible to a unit of work.
type Repositories interface {
	Accounts() accounts.Repository
	Sessions() sessions.Repository
}

type RepositoryManager interface {
	Repositories

	// Open connects to the backing store and prepares its schema.
	Open(ctx context.Context) error
	Close() error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// WithTx runs fn against repositories bound to a single transaction.
	// Nothing fn wrote is kept when it returns an error.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
