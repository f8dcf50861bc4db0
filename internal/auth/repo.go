package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"rollbook/internal/store"
)

// Repository stores users and refresh tokens in Postgres.
type Repository struct {
	q store.Querier
}

var _ UserStore = (*Repository)(nil)

func NewRepository(q store.Querier) *Repository {
	return &Repository{q: q}
}

func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{Username: username, PasswordHash: passwordHash}
	err := sqlx.GetContext(ctx, r.q, &u.ID,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`, username, passwordHash)
	if store.IsUniqueViolation(err) {
		return User{}, ErrUsernameTaken
	}
	if err != nil {
		return User{}, errors.Wrap(err, "create user")
	}
	return u, nil
}

func (r *Repository) UserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT id, username, password_hash FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	return &u, nil
}

// SaveRefreshToken stores a refresh token id for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, id string, userID int64, expiresAt time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, id, userID, expiresAt)
	return errors.Wrap(err, "save refresh token")
}

// RevokeRefreshToken marks a live token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, id string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE id = $1 AND NOT revoked AND expires_at > NOW()
	`, id)
	if err != nil {
		return false, errors.Wrap(err, "revoke refresh token")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "revoke refresh token")
	}
	return n == 1, nil
}
