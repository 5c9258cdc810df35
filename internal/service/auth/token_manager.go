package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cryptomart/internal/domain"
	"cryptomart/internal/session"
)

// Claims identify the caller behind a verified token.
type Claims struct {
	UserID    string
	Username  string
	Role      domain.Role
	SessionID string
}

func (c Claims) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

type tokenClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	secret   []byte
	ttl      time.Duration
	sessions session.Store
	now      func() time.Time
}

func newTokenManager(secret []byte, ttl time.Duration, sessions session.Store) *tokenManager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &tokenManager{secret: secret, ttl: ttl, sessions: sessions, now: time.Now}
}

// Issue signs a token for u and opens its session. A zero ttl uses the
// manager default.
func (m *tokenManager) Issue(ctx context.Context, u domain.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	now := m.now()
	sessionID := uuid.NewString()
	claims := tokenClaims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", err
	}
	err = m.sessions.Create(ctx, session.Session{
		ID:       sessionID,
		UserID:   u.ID,
		Username: u.Username,
		Role:     string(u.Role),
		IssuedAt: now,
	}, ttl)
	if err != nil {
		return "", err
	}
	return signed, nil
}

func (m *tokenManager) Verify(ctx context.Context, token string) (Claims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && tc.ID != "" {
			_ = m.sessions.Delete(ctx, tc.ID)
		}
		return Claims{}, ErrInvalidToken
	}
	if tc.ID == "" {
		return Claims{}, ErrInvalidToken
	}
	live, err := m.sessions.Exists(ctx, tc.ID)
	if err != nil {
		return Claims{}, err
	}
	if !live {
		return Claims{}, ErrInvalidToken
	}
	return Claims{
		UserID:    tc.UserID,
		Username:  tc.Username,
		Role:      domain.Role(tc.Role),
		SessionID: tc.ID,
	}, nil
}

func (m *tokenManager) Revoke(ctx context.Context, sessionID string) error {
	return m.sessions.Delete(ctx, sessionID)
}
