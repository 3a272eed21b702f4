package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("project not found")

type Project struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, ownerID int64, name string) (*Project, error) {
	const q = `
		INSERT INTO projects (id, owner_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	p := &Project{ID: NewPublicID(), OwnerID: ownerID, Name: name}
	if err := r.db.QueryRow(ctx, q, p.ID, p.OwnerID, p.Name).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (r *Repo) Get(ctx context.Context, ownerID int64, id string) (*Project, error) {
	const q = `
		SELECT id, owner_id, name, created_at, updated_at
		FROM projects
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	var p Project
	err := r.db.QueryRow(ctx, q, id, ownerID).Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context, ownerID int64) ([]Project, error) {
	const q = `
		SELECT id, owner_id, name, created_at, updated_at
		FROM projects
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

func (r *Repo) Rename(ctx context.Context, ownerID int64, id, name string) error {
	const q = `
		UPDATE projects SET name = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, q, id, ownerID, name)
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) SoftDelete(ctx context.Context, ownerID int64, id string) error {
	const q = `
		UPDATE projects SET deleted_at = now()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, q, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeDeleted permanently removes soft-deleted projects past the retention
// window. Diagrams purge separately through their own repository.
func (r *Repo) PurgeDeleted(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE deleted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge projects: %w", err)
	}
	return tag.RowsAffected(), nil
}
