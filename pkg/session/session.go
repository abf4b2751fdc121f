package session

import (
	"context"
	"errors"
	"time"

	"scanteate/pkg/user"
)

const (
	ThirtyDays  = 30 * 24 * time.Hour
	FifteenDays = 15 * 24 * time.Hour
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrCacheMiss = errors.New("session cache miss")
)

type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Principal is the identity a token resolves to.
type Principal struct {
	ID   int64     `json:"id"`
	Role user.Role `json:"type"`
}

// Mode selects how much of the owner a validation loads.
type Mode int

const (
	// Short loads only the owner's id and role.
	Short Mode = iota
	// Full loads the complete user record.
	Full
)

type Status int

const (
	Unauthenticated Status = iota
	AuthenticatedShort
	AuthenticatedFull
)

// Result of Validate. The zero value is Unauthenticated.
type Result struct {
	Status    Status
	Session   *Session
	Principal Principal
	User      *user.User // AuthenticatedFull only
}

func (r Result) Authenticated() bool {
	return r.Status != Unauthenticated
}

func (r Result) IsAdmin() bool {
	return r.Authenticated() && r.Principal.Role == user.RoleAdmin
}

// Issued is a freshly created session and the bearer token to hand out.
type Issued struct {
	Session Session
	Token   string
}

// Record is a session joined with its owner.
type Record struct {
	Session   Session    `json:"session"`
	Principal Principal  `json:"principal"`
	User      *user.User `json:"-"`
}

type Repository interface {
	Create(ctx context.Context, s *Session) error
	// Lookup returns ErrNotFound when no session has the id.
	Lookup(ctx context.Context, id string, mode Mode) (*Record, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Cache holds short-mode records keyed by session id.
type Cache interface {
	// Get returns ErrCacheMiss when id is not cached.
	Get(ctx context.Context, id string) (*Record, error)
	Set(ctx context.Context, rec *Record, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, userID int64) error
}
