package auth_test

import (
	"context"
	"errors"
	"testing"

	"scanteate/internal/testdb"
	"scanteate/pkg/auth"
	"scanteate/pkg/password"
	"scanteate/pkg/session"
	"scanteate/pkg/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc      *auth.Service
	sessions *session.Service
	users    *user.MySQLRepo
}

func newFixture(t *testing.T, defaultRole user.Role) fixture {
	db := testdb.New(t)
	users := user.NewMySQLRepo(db)
	sessions := session.NewService(session.NewMySQLRepo(db), session.Config{}, zap.NewNop())
	hasher := &password.Bcrypt{Cost: bcrypt.MinCost}
	return fixture{
		svc:      auth.NewService(users, sessions, hasher, defaultRole),
		sessions: sessions,
		users:    users,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user.RoleAdmin)

	g, err := f.svc.Register(ctx, auth.Registration{Name: "Ana", Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)

	assert.NotZero(t, g.User.ID)
	assert.Equal(t, user.RoleAdmin, g.User.Role, "configured default role")
	assert.True(t, g.User.AutoReport)
	assert.NotEqual(t, "pw", g.User.Password)
	assert.Equal(t, g.Session.ID, g.Token)

	res, err := f.sessions.ValidateFull(ctx, g.Token)
	require.NoError(t, err)
	require.True(t, res.Authenticated())
	assert.Equal(t, g.User.ID, res.User.ID)

	_, err = f.svc.Register(ctx, auth.Registration{Name: "Ana", Email: "ana@example.com", Password: "other"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestRegisterRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user.RoleUser)

	g, err := f.svc.Register(ctx, auth.Registration{Name: "Ana", Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, g.User.Role)

	off := false
	g, err = f.svc.Register(ctx, auth.Registration{Name: "Bo", Email: "bo@example.com", Password: "pw", Role: user.RoleAdmin, AutoReport: &off})
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, g.User.Role)
	assert.False(t, g.User.AutoReport)

	_, err = f.svc.Register(ctx, auth.Registration{Name: "Cy", Email: "cy@example.com", Password: "pw", Role: "Root"})
	assert.ErrorIs(t, err, user.ErrBadRole)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user.RoleUser)

	reg, err := f.svc.Register(ctx, auth.Registration{Name: "Ana", Email: "ana@example.com", Password: "correct"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		err      error
	}{
		{name: "success", email: "ana@example.com", password: "correct"},
		{name: "unknown email", email: "nobody@example.com", password: "correct", err: auth.ErrInvalidEmail},
		{name: "wrong password", email: "ana@example.com", password: "wrong", err: auth.ErrInvalidPassword},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g, err := f.svc.Login(ctx, test.email, test.password)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				assert.Nil(t, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, reg.User.ID, g.User.ID)
			assert.NotEqual(t, reg.Token, g.Token, "each login opens a new session")
		})
	}
}

func TestLogoutAndSignOutEverywhere(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user.RoleUser)

	reg, err := f.svc.Register(ctx, auth.Registration{Name: "Ana", Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, reg.Token))
	res, err := f.sessions.ValidateShort(ctx, reg.Token)
	require.NoError(t, err)
	assert.False(t, res.Authenticated())

	res, err = f.sessions.ValidateShort(ctx, second.Token)
	require.NoError(t, err)
	assert.True(t, res.Authenticated(), "logout only ends the presented session")

	require.NoError(t, f.svc.Logout(ctx, "never-issued"))

	require.NoError(t, f.svc.SignOutEverywhere(ctx, reg.User.ID))
	res, err = f.sessions.ValidateShort(ctx, second.Token)
	require.NoError(t, err)
	assert.False(t, res.Authenticated())
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Create(ctx context.Context, userID int64) (*session.Issued, error) {
	args := m.Called(userID)
	if v := args.Get(0); v != nil {
		return v.(*session.Issued), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessions) Invalidate(ctx context.Context, token string) error {
	return m.Called(token).Error(0)
}

func (m *mockSessions) InvalidateAll(ctx context.Context, userID int64) error {
	return m.Called(userID).Error(0)
}

func TestLoginSessionFailure(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	users := user.NewMySQLRepo(db)
	hasher := &password.Bcrypt{Cost: bcrypt.MinCost}
	sessions := new(mockSessions)
	svc := auth.NewService(users, sessions, hasher, user.RoleUser)

	digest, err := hasher.Hash("pw")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, &user.User{Name: "Ana", Email: "ana@example.com", Password: digest, Role: user.RoleUser}))

	boom := errors.New("db down")
	sessions.On("Create", mock.Anything).Return(nil, boom)

	g, err := svc.Login(ctx, "ana@example.com", "pw")
	assert.Nil(t, g)
	assert.ErrorIs(t, err, boom)
	sessions.AssertExpectations(t)
}
