package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"scanteate/pkg/generator"
)

type Config struct {
	// TTL is the lifetime of new and renewed sessions. Default ThirtyDays.
	TTL time.Duration
	// RenewWithin is how close to expiry a used session gets extended.
	// Default FifteenDays.
	RenewWithin time.Duration
	// SecretTokens hands out the raw token and stores only its hash. When
	// false the stored hash itself is the bearer token.
	SecretTokens bool
	// Cache is optional; it only serves Short validations.
	Cache    Cache
	CacheTTL time.Duration
	Now      func() time.Time
}

type Service struct {
	repo   Repository
	cfg    Config
	logger *zap.Logger
}

func NewService(repo Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.TTL == 0 {
		cfg.TTL = ThirtyDays
	}
	if cfg.RenewWithin == 0 {
		cfg.RenewWithin = FifteenDays
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{repo: repo, cfg: cfg, logger: logger}
}

func (s *Service) now() time.Time {
	return s.cfg.Now().UTC()
}

// lookupID maps a presented bearer token to the stored session id.
func (s *Service) lookupID(token string) string {
	if s.cfg.SecretTokens {
		return generator.HashToken(token)
	}
	return token
}

func (s *Service) Create(ctx context.Context, userID int64) (*Issued, error) {
	raw, err := generator.NewToken()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        generator.HashToken(raw),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.cfg.TTL),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token := sess.ID
	if s.cfg.SecretTokens {
		token = raw
	}
	return &Issued{Session: *sess, Token: token}, nil
}

// Validate resolves token to its session and owner. Unknown and expired
// tokens give an Unauthenticated result and a nil error; expired sessions
// are deleted on the way. A session inside the renewal window is extended.
func (s *Service) Validate(ctx context.Context, token string, mode Mode) (Result, error) {
	if token == "" {
		return Result{}, nil
	}
	id := s.lookupID(token)

	rec, cached, err := s.lookup(ctx, id, mode)
	if errors.Is(err, ErrNotFound) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	if !now.Before(rec.Session.ExpiresAt) {
		if err := s.repo.Delete(ctx, id); err != nil {
			return Result{}, fmt.Errorf("delete expired session: %w", err)
		}
		if s.cfg.Cache != nil {
			if err := s.cfg.Cache.Delete(ctx, id); err != nil {
				s.logger.Warn("session cache delete", zap.Error(err))
			}
		}
		return Result{}, nil
	}

	if !now.Before(rec.Session.ExpiresAt.Add(-s.cfg.RenewWithin)) {
		expiresAt := now.Add(s.cfg.TTL)
		if err := s.repo.UpdateExpiry(ctx, id, expiresAt); err != nil {
			return Result{}, fmt.Errorf("renew session: %w", err)
		}
		rec.Session.ExpiresAt = expiresAt
		cached = false
	}

	if mode == Short && !cached {
		s.remember(ctx, rec, now)
	}

	res := Result{
		Status:    AuthenticatedShort,
		Session:   &rec.Session,
		Principal: rec.Principal,
	}
	if mode == Full {
		res.Status = AuthenticatedFull
		res.User = rec.User
	}
	return res, nil
}

func (s *Service) ValidateShort(ctx context.Context, token string) (Result, error) {
	return s.Validate(ctx, token, Short)
}

func (s *Service) ValidateFull(ctx context.Context, token string) (Result, error) {
	return s.Validate(ctx, token, Full)
}

func (s *Service) lookup(ctx context.Context, id string, mode Mode) (*Record, bool, error) {
	if mode == Short && s.cfg.Cache != nil {
		rec, err := s.cfg.Cache.Get(ctx, id)
		if err == nil {
			return rec, true, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("session cache get", zap.Error(err))
		}
	}

	rec, err := s.repo.Lookup(ctx, id, mode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("lookup session: %w", err)
	}
	return rec, false, nil
}

// remember caches rec, never past the session's own expiry.
func (s *Service) remember(ctx context.Context, rec *Record, now time.Time) {
	if s.cfg.Cache == nil {
		return
	}
	ttl := s.cfg.CacheTTL
	if left := rec.Session.ExpiresAt.Sub(now); left < ttl {
		ttl = left
	}
	short := &Record{Session: rec.Session, Principal: rec.Principal}
	if err := s.cfg.Cache.Set(ctx, short, ttl); err != nil {
		s.logger.Warn("session cache set", zap.Error(err))
	}
}

// Invalidate deletes the session of token. Unknown tokens are a no-op.
func (s *Service) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	id := s.lookupID(token)

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.Delete(ctx, id); err != nil {
			return fmt.Errorf("evict session: %w", err)
		}
	}
	return nil
}

// InvalidateAll signs a user out everywhere.
func (s *Service) InvalidateAll(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions of user %d: %w", userID, err)
	}
	return s.Forget(ctx, userID)
}

// Forget evicts the cached sessions of a user, leaving stored ones intact.
func (s *Service) Forget(ctx context.Context, userID int64) error {
	if s.cfg.Cache == nil {
		return nil
	}
	if err := s.cfg.Cache.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("evict sessions of user %d: %w", userID, err)
	}
	return nil
}

// IsAdmin reports whether token is a live session of an Admin. Every failure
// is false.
func (s *Service) IsAdmin(ctx context.Context, token string) bool {
	res, err := s.Validate(ctx, token, Short)
	if err != nil {
		s.logger.Error("is admin", zap.Error(err))
		return false
	}
	return res.IsAdmin()
}

// PurgeExpired deletes every session past its expiry and returns how many.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return n, nil
}
