package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"scanteate/pkg/claims"
	"scanteate/pkg/session"
)

const (
	DefaultHeader = "auth"

	msgUnauthorized = "No autorizado"
	msgInternal     = "internal error"
)

type Validator interface {
	Validate(ctx context.Context, token string, mode session.Mode) (session.Result, error)
}

type Auth struct {
	Sessions Validator
	Header   string
	Logger   *zap.Logger
}

func NewAuth(sessions Validator, header string, logger *zap.Logger) *Auth {
	if header == "" {
		header = DefaultHeader
	}
	return &Auth{Sessions: sessions, Header: header, Logger: logger}
}

// Token returns the token from the configured header, falling back to a
// bearer Authorization header.
func (a *Auth) Token(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get(a.Header)); tok != "" {
		return tok
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Require validates the token in the given mode and stores the claims in the
// request context.
func (a *Auth) Require(mode session.Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := a.Token(r)
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			res, err := a.Sessions.Validate(r.Context(), token, mode)
			if err != nil {
				a.Logger.Error("validate session", zap.String("path", r.URL.Path), zap.Error(err))
				writeMessage(w, http.StatusInternalServerError, msgInternal)
				return
			}
			if !res.Authenticated() {
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			ctx := claims.NewContext(r.Context(), claims.FromResult(token, res))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin lets only Admin principals through. Every failure, store
// errors included, is answered with 401.
func (a *Auth) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := a.Token(r)
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			res, err := a.Sessions.Validate(r.Context(), token, session.Short)
			if err != nil {
				a.Logger.Error("validate admin session", zap.String("path", r.URL.Path), zap.Error(err))
			}
			if err != nil || !res.IsAdmin() {
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			ctx := claims.NewContext(r.Context(), claims.FromResult(token, res))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
