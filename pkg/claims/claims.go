package claims

import (
	"context"

	"scanteate/pkg/session"
	"scanteate/pkg/user"
)

type contextKey string

const (
	TokenContextKey contextKey = "token"
)

// Claims is what the auth middleware resolved for the caller.
type Claims struct {
	Token     string
	Session   session.Session
	Principal session.Principal
	// User is only set on routes validated in full mode.
	User *user.User
}

func FromResult(token string, res session.Result) *Claims {
	c := &Claims{Token: token, Principal: res.Principal, User: res.User}
	if res.Session != nil {
		c.Session = *res.Session
	}
	return c
}

func NewContext(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, TokenContextKey, c)
}

func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(TokenContextKey).(*Claims)
	return c, ok && c != nil
}

func (c *Claims) IsAdmin() bool {
	return c.Principal.Role == user.RoleAdmin
}

// CanAccess reports whether the caller may act on data owned by ownerID.
func (c *Claims) CanAccess(ownerID int64) bool {
	return c.Principal.ID == ownerID || c.IsAdmin()
}
