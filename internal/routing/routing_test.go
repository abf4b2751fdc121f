package routing_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"scanteate/internal/routing"
	"scanteate/internal/testdb"
	"scanteate/pkg/activity"
	"scanteate/pkg/actsession"
	"scanteate/pkg/auth"
	"scanteate/pkg/emotion"
	"scanteate/pkg/password"
	"scanteate/pkg/session"
	"scanteate/pkg/user"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	db := testdb.New(t)
	gdb := testdb.Gorm(t, db)
	logger := zap.NewNop()
	hasher := &password.Bcrypt{Cost: bcrypt.MinCost}

	users := user.NewMySQLRepo(db)
	sessions := session.NewService(session.NewMySQLRepo(db), session.Config{}, logger)

	h := routing.NewHandler(routing.Services{
		Sessions:    sessions,
		Auth:        auth.NewService(users, sessions, hasher, user.RoleAdmin),
		Users:       user.NewService(users, hasher, sessions),
		Activities:  activity.NewRepo(gdb),
		ActSessions: actsession.NewRepo(gdb),
		Emotions:    emotion.NewRepo(gdb),
	}, "auth", []string{"*"}, logger)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func (c client) do(method, path, token string, body any) (int, []byte) {
	c.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("auth", token)
	}

	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

type grant struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func (c client) register(name, email string, role user.Role) grant {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/users", "", map[string]any{
		"name": name, "email": email, "password": "pw-" + name, "type": role,
	})
	require.Equal(c.t, http.StatusCreated, status, string(body))
	var g grant
	require.NoError(c.t, json.Unmarshal(body, &g))
	return g
}

func TestAPI(t *testing.T) {
	c := client{t: t, srv: newServer(t)}

	ana := c.register("ana", "ana@example.com", user.RoleUser)
	admin := c.register("root", "root@example.com", user.RoleAdmin)
	anaPath := "/api/users/" + strconv.FormatInt(ana.User.ID, 10)
	adminPath := "/api/users/" + strconv.FormatInt(admin.User.ID, 10)

	status, body := c.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	status, body = c.do(http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"message":"No autorizado"}`, string(body))

	status, body = c.do(http.MethodGet, "/api/users/profile", ana.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"email":"ana@example.com"`)

	status, _ = c.do(http.MethodGet, "/api/users", ana.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "admin routes answer 401 to users")
	status, _ = c.do(http.MethodGet, "/api/users", admin.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodGet, adminPath, ana.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = c.do(http.MethodGet, anaPath, admin.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "ana@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, body = c.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "ana@example.com", "password": "pw-ana"})
	require.Equal(t, http.StatusOK, status)
	var second grant
	require.NoError(t, json.Unmarshal(body, &second))

	t.Run("records", func(t *testing.T) {
		status, _ := c.do(http.MethodPost, "/api/activities", ana.Token, map[string]any{"type": "run", "duration": 20})
		require.Equal(t, http.StatusCreated, status)

		status, body := c.do(http.MethodGet, "/api/activities", admin.Token, nil)
		require.Equal(t, http.StatusOK, status)
		var all []activity.Activity
		require.NoError(t, json.Unmarshal(body, &all))
		require.Len(t, all, 1)
		path := "/api/activities/" + strconv.FormatInt(all[0].ID, 10)

		status, _ = c.do(http.MethodGet, path, ana.Token, nil)
		assert.Equal(t, http.StatusOK, status)
		status, _ = c.do(http.MethodPut, path, ana.Token, map[string]any{"duration": 25})
		assert.Equal(t, http.StatusOK, status)
		status, _ = c.do(http.MethodDelete, path, ana.Token, nil)
		assert.Equal(t, http.StatusOK, status)
		status, _ = c.do(http.MethodGet, path, ana.Token, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("user emotions", func(t *testing.T) {
		status, _ := c.do(http.MethodPost, "/api/users/emotions", ana.Token, map[string]any{"name": "calm", "color": "#0f0"})
		require.Equal(t, http.StatusCreated, status)

		status, body := c.do(http.MethodGet, "/api/users/emotions/"+strconv.FormatInt(ana.User.ID, 10), ana.Token, nil)
		require.Equal(t, http.StatusOK, status)
		var mine []emotion.Emotion
		require.NoError(t, json.Unmarshal(body, &mine))
		require.Len(t, mine, 1)

		status, _ = c.do(http.MethodDelete, "/api/users/emotions/"+strconv.FormatInt(mine[0].ID, 10), ana.Token, nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("logout and sign out everywhere", func(t *testing.T) {
		status, _ := c.do(http.MethodPost, "/api/users/logout", ana.Token, nil)
		require.Equal(t, http.StatusOK, status)
		status, _ = c.do(http.MethodGet, "/api/users/profile", ana.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		status, _ = c.do(http.MethodGet, "/api/users/profile", second.Token, nil)
		assert.Equal(t, http.StatusOK, status, "other sessions survive logout")

		status, _ = c.do(http.MethodPost, "/api/users/unauth/"+strconv.FormatInt(ana.User.ID, 10), admin.Token, nil)
		require.Equal(t, http.StatusOK, status)
		status, _ = c.do(http.MethodGet, "/api/users/profile", second.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		status, _ = c.do(http.MethodGet, "/api/users/profile", admin.Token, nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("delete user", func(t *testing.T) {
		status, _ := c.do(http.MethodDelete, adminPath, admin.Token, nil)
		require.Equal(t, http.StatusOK, status)
		status, _ = c.do(http.MethodGet, "/api/users/profile", admin.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestFallbackAndCORS(t *testing.T) {
	srv := newServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/nowhere")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/users", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
