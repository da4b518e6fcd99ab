package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrInvalidToken covers malformed, tampered, unknown-kind and expired tokens alike.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed payload: who, which kind, until when.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType Kind   `json:"token_type"`
}

// Identity is what a verified token vouches for.
type Identity struct {
	UserID    string
	Email     string
	Kind      Kind
	ExpiresAt time.Time
}

// Manager issues and verifies HMAC-signed access and refresh tokens.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *Manager) IssueAccessToken(userID, email string) (string, error) {
	return m.issue(userID, email, KindAccess, m.accessTTL)
}

func (m *Manager) IssueRefreshToken(userID, email string) (string, error) {
	return m.issue(userID, email, KindRefresh, m.refreshTTL)
}

func (m *Manager) issue(userID, email string, kind Kind, ttl time.Duration) (string, error) {
	now := m.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		Email:     email,
		TokenType: kind,
	})

	s, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return s, nil
}

// Verify decodes raw and checks signature, shape and expiry. It never panics on garbage input.
func (m *Manager) Verify(raw string) (*Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || tok == nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != KindAccess && claims.TokenType != KindRefresh {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Kind:      claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyKind is Verify plus a check that the token is of the wanted kind.
func (m *Manager) VerifyKind(raw string, kind Kind) (*Identity, error) {
	id, err := m.Verify(raw)
	if err != nil {
		return nil, err
	}
	if id.Kind != kind {
		return nil, ErrInvalidToken
	}
	return id, nil
}
