package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingCredentials = errors.New("username and password required")
)

// User is an account that may log in. Accounts carry no roles.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

// SetPassword hashes pwd into the user.
func (u *User) SetPassword(pwd string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), cost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether pwd matches the stored hash.
func (u User) CheckPassword(pwd string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd)) == nil
}

// UserStore persists accounts and refresh tokens.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (User, error)
	// UserByUsername returns nil when no account has that name.
	UserByUsername(ctx context.Context, username string) (*User, error)
	SaveRefreshToken(ctx context.Context, id string, userID int64, expiresAt time.Time) error
	// RevokeRefreshToken revokes an unexpired, unrevoked token and reports
	// whether it did.
	RevokeRefreshToken(ctx context.Context, id string) (bool, error)
}
