package infra

import (
	"context"
	"database/sql"
)

type AuthRepo struct {
	db *sql.DB
}

func NewAuthRepo(db *sql.DB) *AuthRepo {
	return &AuthRepo{db: db}
}

// GetPasswordHash returns the bcrypt hash of the admin password, or "" when
// no admin has been provisioned yet.
func (r *AuthRepo) GetPasswordHash(ctx context.Context) (string, error) {
	var hash string
	err := r.db.QueryRowContext(
		ctx,
		`SELECT password_hash FROM admin_auth LIMIT 1`,
	).Scan(&hash)

	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}
