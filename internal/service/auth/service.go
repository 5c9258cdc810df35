package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cryptomart/internal/domain"
	userrepo "cryptomart/internal/repository/user"
	"cryptomart/internal/session"
)

var (
	// ErrInvalidCredentials is returned when username/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the bearer token could not be validated or
	// its session has ended.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	registerTTL = time.Hour

	// bcrypt only hashes the first 72 bytes and refuses longer input.
	maxPasswordBytes = 72
)

type Config struct {
	Secret   []byte
	TokenTTL time.Duration
}

// Service registers users and issues and verifies their tokens.
type Service struct {
	users      userrepo.Repository
	tokens     *tokenManager
	logger     *zap.Logger
	bcryptCost int
}

// New returns a Service issuing tokens signed with cfg.Secret. A zero
// cfg.TokenTTL means two hours.
func New(users userrepo.Repository, sessions session.Store, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:      users,
		tokens:     newTokenManager(cfg.Secret, cfg.TokenTTL, sessions),
		logger:     logger.Named("auth"),
		bcryptCost: bcrypt.DefaultCost,
	}
}

type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) validate() error {
	var problems []string
	username := strings.TrimSpace(c.Username)
	switch {
	case username == "":
		problems = append(problems, "Please provide username")
	case utf8.RuneCountInString(username) > domain.MaxUsernameLen:
		problems = append(problems, fmt.Sprintf("Username cannot be more than %d characters", domain.MaxUsernameLen))
	}
	email := strings.TrimSpace(c.Email)
	if _, err := mail.ParseAddress(email); err != nil || utf8.RuneCountInString(email) > domain.MaxEmailLen {
		problems = append(problems, "Please provide a valid email")
	}
	switch {
	case c.Password == "":
		problems = append(problems, "Please provide password")
	case len(c.Password) > maxPasswordBytes:
		problems = append(problems, fmt.Sprintf("Password cannot be more than %d bytes", maxPasswordBytes))
	}
	if len(problems) > 0 {
		return domain.NewValidationError(problems...)
	}
	return nil
}

// Register creates a regular user and signs them in.
func (s *Service) Register(ctx context.Context, in Credentials) (string, error) {
	u, err := s.create(ctx, in, domain.RoleUser)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(ctx, *u, registerTTL)
}

// CreateAdmin creates a user with the admin role. It does not sign them in.
func (s *Service) CreateAdmin(ctx context.Context, in Credentials) (*domain.User, error) {
	return s.create(ctx, in, domain.RoleAdmin)
}

func (s *Service) create(ctx context.Context, in Credentials, role domain.Role) (*domain.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, domain.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hashed),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(role)))
	return u, nil
}

// Login checks the password and returns a token and the user's role.
func (s *Service) Login(ctx context.Context, username, password string) (string, domain.Role, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", zap.String("user_id", u.ID))
		return "", "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(ctx, *u, 0)
	if err != nil {
		return "", "", err
	}
	return token, u.Role, nil
}

// Authenticate verifies a bearer token and its session.
func (s *Service) Authenticate(ctx context.Context, token string) (Claims, error) {
	return s.tokens.Verify(ctx, token)
}

// Logout ends the session so its token stops working.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.tokens.Revoke(ctx, sessionID)
}
