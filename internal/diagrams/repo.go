package diagrams

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo stores diagram documents. All reads and writes are scoped to the
// owning user; a diagram id from another account behaves as not found.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, d *Diagram) error {
	const q = `
		INSERT INTO diagrams (id, project_id, owner_id, title, source, layout, theme, direction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, q,
		d.ID, d.ProjectID, d.OwnerID, d.Title, d.Source, d.Layout, d.Theme, d.Direction,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create diagram: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, ownerID int64, id string) (*Diagram, error) {
	const q = `
		SELECT id, project_id, owner_id, title, source, layout, theme, direction, created_at, updated_at
		FROM diagrams
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	var d Diagram
	err := r.db.QueryRow(ctx, q, id, ownerID).Scan(
		&d.ID, &d.ProjectID, &d.OwnerID, &d.Title, &d.Source,
		&d.Layout, &d.Theme, &d.Direction, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get diagram: %w", err)
	}
	return &d, nil
}

func (r *Repo) ListByProject(ctx context.Context, ownerID int64, projectID string) ([]Diagram, error) {
	const q = `
		SELECT id, project_id, owner_id, title, source, layout, theme, direction, created_at, updated_at
		FROM diagrams
		WHERE project_id = $1 AND owner_id = $2 AND deleted_at IS NULL
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, q, projectID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	defer rows.Close()

	var out []Diagram
	for rows.Next() {
		var d Diagram
		if err := rows.Scan(
			&d.ID, &d.ProjectID, &d.OwnerID, &d.Title, &d.Source,
			&d.Layout, &d.Theme, &d.Direction, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan diagram: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	return out, nil
}

// Update persists the document content and view settings of a save.
func (r *Repo) Update(ctx context.Context, d *Diagram) error {
	const q = `
		UPDATE diagrams
		SET title = $3, source = $4, layout = $5, theme = $6, direction = $7, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, q,
		d.ID, d.OwnerID, d.Title, d.Source, d.Layout, d.Theme, d.Direction,
	).Scan(&d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update diagram: %w", err)
	}
	return nil
}

func (r *Repo) SoftDelete(ctx context.Context, ownerID int64, id string) error {
	const q = `
		UPDATE diagrams SET deleted_at = now()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, q, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete diagram: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeDeleted permanently removes soft-deleted diagrams older than the
// retention window, along with their history. Run from the maintenance
// scheduler.
func (r *Repo) PurgeDeleted(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge diagrams: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM diagram_snapshots
		WHERE diagram_id IN (SELECT id FROM diagrams WHERE deleted_at < $1)`, cutoff); err != nil {
		return 0, fmt.Errorf("purge snapshots: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM diagrams WHERE deleted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge diagrams: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("purge diagrams: %w", err)
	}
	return tag.RowsAffected(), nil
}
