package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Service registers users and issues their tokens.
type Service struct {
	users  UserStore
	tokens TokenConfig
	cost   int
	now    func() time.Time
}

// NewService builds a service; cost <= 0 uses bcrypt.DefaultCost.
func NewService(users UserStore, tokens TokenConfig, cost int) *Service {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: users, tokens: tokens, cost: cost, now: time.Now}
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrMissingCredentials
	}
	u := User{Username: username}
	if err := u.SetPassword(password, s.cost); err != nil {
		return User{}, err
	}
	return s.users.CreateUser(ctx, u.Username, u.PasswordHash)
}

// Login checks credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (User, TokenPair, error) {
	u, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return User{}, TokenPair{}, err
	}
	if u == nil || !u.CheckPassword(password) {
		return User{}, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.issue(ctx, *u)
	return *u, pair, err
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued. A token can be used once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	revoked, err := s.users.RevokeRefreshToken(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if !revoked {
		return TokenPair{}, ErrInvalidToken
	}
	id, _ := claims.UserID()
	return s.issue(ctx, User{ID: id, Username: claims.Username})
}

// Logout revokes refreshToken when it is valid; anything else is ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil
	}
	_, err = s.users.RevokeRefreshToken(ctx, claims.ID)
	return err
}

func (s *Service) issue(ctx context.Context, u User) (TokenPair, error) {
	pair, err := s.tokens.Issue(u, s.now())
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SaveRefreshToken(ctx, pair.RefreshID, u.ID, pair.RefreshExp); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}
