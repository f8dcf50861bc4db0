package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	RefreshID    string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Claims represents JWT payload.
type Claims struct {
	Username string `json:"username"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenConfig signs and verifies tokens.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issue issues signed access and refresh tokens for u.
func (tc TokenConfig) Issue(u User, now time.Time) (TokenPair, error) {
	accessExp := now.Add(tc.AccessTTL)
	refreshExp := now.Add(tc.RefreshTTL)
	refreshID := uuid.NewString()

	accessToken, err := tc.sign(u, kindAccess, uuid.NewString(), now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := tc.sign(u, kindRefresh, refreshID, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		RefreshID:    refreshID,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (tc TokenConfig) sign(u User, kind, id string, now, exp time.Time) (string, error) {
	claims := Claims{
		Username: u.Username,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    tc.Issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.SigningKey))
	return signed, errors.Wrap(err, "sign token")
}

// ParseAccess validates an access token.
func (tc TokenConfig) ParseAccess(tokenStr string) (Claims, error) {
	return tc.parse(tokenStr, kindAccess)
}

// ParseRefresh validates a refresh token.
func (tc TokenConfig) ParseRefresh(tokenStr string) (Claims, error) {
	return tc.parse(tokenStr, kindRefresh)
}

func (tc TokenConfig) parse(tokenStr, kind string) (Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if tc.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(tc.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(tc.SigningKey), nil
	}, opts...)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Kind != kind {
		return Claims{}, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
