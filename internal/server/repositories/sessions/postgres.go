package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	query :=
		`INSERT INTO sessions (id, owner_id, title, prompt_tokens, completion_tokens, total_tokens, estimated_cost, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OwnerID, s.Title,
		s.Stats.PromptTokens, s.Stats.CompletionTokens, s.Stats.TotalTokens, s.Stats.EstimatedCost,
		s.CreatedAt, s.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Session, error) {
	query :=
		`SELECT id, owner_id, title, prompt_tokens, completion_tokens, total_tokens, estimated_cost, created_at, updated_at
		 FROM sessions
		 WHERE owner_id = $1
		 ORDER BY updated_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Session, 0)
	byID := make(map[string]*models.Session)

	for rows.Next() {
		s := &models.Session{Messages: []models.Message{}}
		if err := scanSession(rows, s); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(result) == 0 {
		return result, nil
	}

	query =
		`SELECT m.session_id, m.id, m.role, m.content, m.created_at
		 FROM messages m JOIN sessions s ON s.id = m.session_id
		 WHERE s.owner_id = $1
		 ORDER BY m.seq
		 `

	mrows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var sessionID string
		var m models.Message
		if err := mrows.Scan(&sessionID, &m.ID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if s, ok := byID[sessionID]; ok {
			s.Messages = append(s.Messages, m)
		}
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id, ownerID string) (*models.Session, error) {
	// ids are UUID columns; anything else cannot match a row
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`SELECT id, owner_id, title, prompt_tokens, completion_tokens, total_tokens, estimated_cost, created_at, updated_at
		 FROM sessions
		 WHERE id = $1 AND owner_id = $2
		 `

	s := &models.Session{}
	if err := scanSession(r.db.QueryRowContext(ctx, query, id, ownerID), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	messages, err := r.messages(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Messages = messages

	return s, nil
}

func (r *PostgresRepository) messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	query :=
		`SELECT id, role, content, created_at FROM messages
		 WHERE session_id = $1
		 ORDER BY seq
		 `

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	query := `DELETE FROM sessions WHERE id = $1 AND owner_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) AppendMessages(ctx context.Context, sessionID string, messages ...models.Message) error {
	query :=
		`INSERT INTO messages (id, session_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	for _, m := range messages {
		if _, err := r.db.ExecContext(ctx, query, m.ID, sessionID, string(m.Role), m.Content, m.Timestamp); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) AddUsage(ctx context.Context, sessionID string, delta models.UsageStats, at time.Time) error {
	query :=
		`UPDATE sessions SET
		   prompt_tokens = prompt_tokens + $2,
		   completion_tokens = completion_tokens + $3,
		   total_tokens = total_tokens + $4,
		   estimated_cost = estimated_cost + $5,
		   updated_at = $6
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		sessionID, delta.PromptTokens, delta.CompletionTokens, delta.TotalTokens, delta.EstimatedCost, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner, s *models.Session) error {
	return row.Scan(&s.ID, &s.OwnerID, &s.Title,
		&s.Stats.PromptTokens, &s.Stats.CompletionTokens, &s.Stats.TotalTokens, &s.Stats.EstimatedCost,
		&s.CreatedAt, &s.UpdatedAt)
}
