package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// EnsureUser upserts the user row for a verified identity and returns its
// database id. Email is refreshed on every sign-in.
func (r *Repo) EnsureUser(ctx context.Context, firebaseUID, email string) (int64, error) {
	const q = `
		INSERT INTO users (firebase_uid, email)
		VALUES ($1, $2)
		ON CONFLICT (firebase_uid) DO UPDATE SET email = EXCLUDED.email
		RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, q, firebaseUID, email).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure user: %w", err)
	}
	return id, nil
}
