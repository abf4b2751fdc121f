package user

import (
	"context"
	"fmt"
	"time"

	"scanteate/pkg/password"
)

type ServiceInterface interface {
	Get(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id int64, upd Update) error
	Delete(ctx context.Context, id int64) error
}

// SessionRevoker drops the sessions of a user once their record changes.
type SessionRevoker interface {
	// Forget evicts cached principals so the next request reads the new role.
	Forget(ctx context.Context, userID int64) error
	InvalidateAll(ctx context.Context, userID int64) error
}

type Service struct {
	Repo     Repository
	Hasher   password.Hasher
	Sessions SessionRevoker
	Now      func() time.Time
}

func NewService(repo Repository, hasher password.Hasher, sessions SessionRevoker) *Service {
	return &Service{Repo: repo, Hasher: hasher, Sessions: sessions, Now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.Repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id int64, upd Update) error {
	if upd.Role != nil && !upd.Role.Valid() {
		return ErrBadRole
	}
	if upd.Password != nil {
		hashed, err := s.Hasher.Hash(*upd.Password)
		if err != nil {
			return err
		}
		upd.Password = &hashed
	}

	if err := s.Repo.Update(ctx, id, upd, s.Now().UTC()); err != nil {
		return err
	}
	if err := s.Sessions.Forget(ctx, id); err != nil {
		return fmt.Errorf("forget sessions of user %d: %w", id, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Sessions.InvalidateAll(ctx, id); err != nil {
		return fmt.Errorf("invalidate sessions of user %d: %w", id, err)
	}
	return s.Repo.Delete(ctx, id)
}
