package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gorilla/mux"

	"scanteate/pkg/claims"
	"scanteate/pkg/session"
	"scanteate/pkg/user"
)

func ptr[T any](v T) *T { return &v }

func caller(id int64, role user.Role) *claims.Claims {
	return &claims.Claims{
		Token:     "tok",
		Session:   session.Session{ID: "tok", UserID: id},
		Principal: session.Principal{ID: id, Role: role},
	}
}

// request builds a JSON request carrying c and the given mux path vars.
func request(method, target, body string, c *claims.Claims, vars map[string]string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if c != nil {
		req = req.WithContext(claims.NewContext(context.Background(), c))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}
