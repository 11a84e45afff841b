package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"smartdeals/internal/domain"
	"smartdeals/internal/repos"
	"smartdeals/internal/validate"
)

var ErrBadCreds = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

// Verifier turns a bearer credential into the principal's email.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// AuthService issues and verifies opaque session tokens for bcrypt users.
type AuthService struct {
	Users *repos.UserRepo
	TTL   time.Duration
	Cost  int
	Now   func() time.Time
}

func NewAuthService(users *repos.UserRepo, ttl time.Duration) *AuthService {
	return &AuthService{Users: users, TTL: ttl, Cost: bcrypt.DefaultCost, Now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrBadRequest)
	}
	name, ok = validate.Name(name)
	if !ok {
		return nil, fmt.Errorf("%w: name must be 1-64 characters", domain.ErrBadRequest)
	}
	if !validate.Password(password) {
		return nil, fmt.Errorf("%w: password must be 8-72 characters with upper, lower, digit and symbol", domain.ErrBadRequest)
	}
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return nil, err
	}
	u := domain.User{ID: uuid.NewString(), Email: email, Name: name, Hash: string(h), CreatedAt: domain.FormatTime(s.Now())}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.Users.ByEmail(ctx, email)
}

// Login checks the password and opens a session. It returns the bearer
// token and its expiry.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", time.Time{}, ErrBadCreds
	}
	now := s.Now()
	exp := now.Add(s.TTL)
	token := uuid.NewString()
	if err := s.Users.BindSession(ctx, token, u.ID, domain.FormatTime(now), domain.FormatTime(exp)); err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Users.UnbindSession(ctx, token)
}

func (s *AuthService) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing credential", domain.ErrUnauthorized)
	}
	u, err := s.Users.SessionUser(ctx, token, domain.FormatTime(s.Now()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid or expired credential", domain.ErrUnauthorized)
		}
		return "", err
	}
	return u.Email, nil
}

// PurgeExpired drops sessions that can no longer be verified.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.Users.PurgeExpiredSessions(ctx, domain.FormatTime(s.Now()))
}
