package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scanteate/pkg/password"
	"scanteate/pkg/session"
	"scanteate/pkg/user"
)

var (
	ErrInvalidEmail    = errors.New("unknown email")
	ErrInvalidPassword = errors.New("invalid password")
)

type Sessions interface {
	Create(ctx context.Context, userID int64) (*session.Issued, error)
	Invalidate(ctx context.Context, token string) error
	InvalidateAll(ctx context.Context, userID int64) error
}

type ServiceInterface interface {
	Register(ctx context.Context, r Registration) (*Grant, error)
	Login(ctx context.Context, email, plain string) (*Grant, error)
	Logout(ctx context.Context, token string) error
	SignOutEverywhere(ctx context.Context, userID int64) error
}

type Registration struct {
	Name       string
	Email      string
	Password   string
	PsicoEmail *string
	AutoReport *bool
	// Role is optional; DefaultRole applies when empty.
	Role user.Role
}

// Grant is what register and login hand back to the client.
type Grant struct {
	User    *user.User
	Session session.Session
	Token   string
}

type Service struct {
	Users       user.Repository
	Sessions    Sessions
	Hasher      password.Hasher
	DefaultRole user.Role
	Now         func() time.Time
}

func NewService(users user.Repository, sessions Sessions, hasher password.Hasher, defaultRole user.Role) *Service {
	return &Service{
		Users:       users,
		Sessions:    sessions,
		Hasher:      hasher,
		DefaultRole: defaultRole,
		Now:         time.Now,
	}
}

func (s *Service) Register(ctx context.Context, r Registration) (*Grant, error) {
	role := r.Role
	if role == "" {
		role = s.DefaultRole
	}
	if !role.Valid() {
		return nil, user.ErrBadRole
	}

	exist, err := s.Users.FindByEmail(ctx, r.Email)
	if exist != nil && err == nil {
		return nil, user.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	hashed, err := s.Hasher.Hash(r.Password)
	if err != nil {
		return nil, err
	}

	autoReport := true
	if r.AutoReport != nil {
		autoReport = *r.AutoReport
	}
	now := s.Now().UTC().Truncate(time.Second)
	u := &user.User{
		Name:       r.Name,
		Email:      r.Email,
		Password:   hashed,
		PsicoEmail: r.PsicoEmail,
		AutoReport: autoReport,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}

	return s.grant(ctx, u)
}

func (s *Service) Login(ctx context.Context, email, plain string) (*Grant, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrInvalidEmail
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.Hasher.Verify(plain, u.Password)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return nil, fmt.Errorf("stored password of user %d: %w", u.ID, err)
		}
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	return s.grant(ctx, u)
}

func (s *Service) grant(ctx context.Context, u *user.User) (*Grant, error) {
	issued, err := s.Sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Grant{User: u, Session: issued.Session, Token: issued.Token}, nil
}

// Logout drops the session behind token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.Sessions.Invalidate(ctx, token)
}

func (s *Service) SignOutEverywhere(ctx context.Context, userID int64) error {
	return s.Sessions.InvalidateAll(ctx, userID)
}
