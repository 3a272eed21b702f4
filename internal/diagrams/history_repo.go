package diagrams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// HistoryRepo is the append-only snapshot store. Snapshots are never updated
// or individually deleted; restore reads one and the editor decides what to
// do with it.
type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append writes one snapshot. Failures are reported as ErrPersistence so the
// caller can warn without discarding the editor state.
func (r *HistoryRepo) Append(ctx context.Context, s *Snapshot) error {
	const q = `
		INSERT INTO diagram_snapshots (id, diagram_id, source, layout, theme, direction, user_prompt, ai_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, q,
		s.ID, s.DiagramID, s.Source, s.Layout, s.Theme, s.Direction, s.UserPrompt, s.AIResponse,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("append snapshot: %w: %w", ErrPersistence, err)
	}
	return nil
}

// List returns the newest snapshots for a diagram. A non-positive or
// oversized limit falls back to HistoryLimit.
func (r *HistoryRepo) List(ctx context.Context, diagramID string, limit int) ([]Snapshot, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	const q = `
		SELECT id, diagram_id, source, layout, theme, direction, user_prompt, ai_response, created_at
		FROM diagram_snapshots
		WHERE diagram_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, q, diagramID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(
			&s.ID, &s.DiagramID, &s.Source, &s.Layout, &s.Theme,
			&s.Direction, &s.UserPrompt, &s.AIResponse, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// Get loads one snapshot of a diagram for restore.
func (r *HistoryRepo) Get(ctx context.Context, diagramID, snapshotID string) (*Snapshot, error) {
	const q = `
		SELECT id, diagram_id, source, layout, theme, direction, user_prompt, ai_response, created_at
		FROM diagram_snapshots
		WHERE id = $1 AND diagram_id = $2`

	var s Snapshot
	err := r.db.QueryRowContext(ctx, q, snapshotID, diagramID).Scan(
		&s.ID, &s.DiagramID, &s.Source, &s.Layout, &s.Theme,
		&s.Direction, &s.UserPrompt, &s.AIResponse, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &s, nil
}
