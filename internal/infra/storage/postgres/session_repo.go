package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/infra/storage"
)

// SessionRepo implements storage.SessionRepository using PostgreSQL.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new PostgreSQL session repository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

type sessionRow struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Title     string    `db:"title"`
	Inputs    []byte    `db:"inputs"`
	Outputs   []byte    `db:"outputs"`
}

func (row sessionRow) toDomain() (*domain.ContentSession, error) {
	s := &domain.ContentSession{
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
		Title:     row.Title,
	}
	if err := json.Unmarshal(row.Inputs, &s.Inputs); err != nil {
		return nil, fmt.Errorf("failed to decode session inputs: %w", err)
	}
	if err := json.Unmarshal(row.Outputs, &s.Outputs); err != nil {
		return nil, fmt.Errorf("failed to decode session outputs: %w", err)
	}
	return s, nil
}

const upsertSession = `
INSERT INTO content_sessions (id, created_at, title, inputs, outputs)
VALUES (:id, :created_at, :title, :inputs, :outputs)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    inputs = EXCLUDED.inputs,
    outputs = EXCLUDED.outputs`

// Save inserts or replaces a session.
func (r *SessionRepo) Save(ctx context.Context, session *domain.ContentSession) error {
	inputs, err := json.Marshal(session.Inputs)
	if err != nil {
		return fmt.Errorf("failed to encode session inputs: %w", err)
	}
	outputs, err := json.Marshal(session.Outputs)
	if err != nil {
		return fmt.Errorf("failed to encode session outputs: %w", err)
	}

	row := sessionRow{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		Title:     session.Title,
		Inputs:    inputs,
		Outputs:   outputs,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}

	if _, err := r.db.NamedExecContext(ctx, upsertSession, row); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.ContentSession, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, created_at, title, inputs, outputs FROM content_sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return row.toDomain()
}

// List returns the most recent sessions, newest first.
func (r *SessionRepo) List(ctx context.Context, limit int) ([]*domain.ContentSession, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, created_at, title, inputs, outputs FROM content_sessions
		 ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*domain.ContentSession, 0, len(rows))
	for _, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// Delete removes a session.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return storage.ErrSessionNotFound
	}
	return nil
}

// DeleteOlderThan removes sessions created before the cutoff.
func (r *SessionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return int(n), nil
}
