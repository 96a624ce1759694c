package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/server/migrations"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/sessions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories over a
// pgx connection pool and migrates the schema on Open.
type PostgresRepositoryManager struct {
	dsn string
	db  *sql.DB
}

// sqlOpen and gooseUpContext are seams for tests.
var sqlOpen = sql.Open

var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func NewPostgresRepositoryManager(dsn string) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{dsn: dsn}
}

func (m *PostgresRepositoryManager) Open(ctx context.Context) error {
	db, err := sqlOpen("pgx", m.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrations: %w", err)
	}

	m.db = db
	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	if m.db == nil {
		return errors.New("storage is not open")
	}
	return m.db.PingContext(ctx)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func (m *PostgresRepositoryManager) Accounts() accounts.Repository {
	return accounts.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Sessions() sessions.Repository {
	return sessions.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	if m.db == nil {
		return errors.New("storage is not open")
	}
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, txRepositories{tx: tx})
	})
}

type txRepositories struct {
	tx dbx.DBTX
}

func (r txRepositories) Accounts() accounts.Repository {
	return accounts.NewPostgresRepository(r.tx)
}

func (r txRepositories) Sessions() sessions.Repository {
	return sessions.NewPostgresRepository(r.tx)
}
