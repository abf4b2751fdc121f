package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrBadRole    = errors.New("unknown role")
)

type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	PsicoEmail *string   `json:"psicoEmail"`
	AutoReport bool      `json:"autoReport"`
	Role       Role      `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Update is a partial change; nil fields are left untouched.
type Update struct {
	Name       *string
	Email      *string
	Password   *string
	PsicoEmail *string
	AutoReport *bool
	Role       *Role
}

func (u Update) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Password == nil &&
		u.PsicoEmail == nil && u.AutoReport == nil && u.Role == nil
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id int64, upd Update, at time.Time) error
	Delete(ctx context.Context, id int64) error
}
