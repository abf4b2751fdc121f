package session_test

import (
	"context"
	"sync"
	"time"

	"scanteate/pkg/session"
	"scanteate/pkg/user"
)

// fakeRepo is an in-memory session.Repository. Set the *Err fields to make
// the matching call fail.
type fakeRepo struct {
	mu       sync.Mutex
	sessions map[string]session.Session
	users    map[int64]user.User

	lookups int

	CreateErr error
	LookupErr error
	UpdateErr error
	DeleteErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions: map[string]session.Session{},
		users:    map[int64]user.User{},
	}
}

func (f *fakeRepo) addUser(id int64, role user.Role) user.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := user.User{ID: id, Name: "user", Email: "user@example.com", Role: role}
	f.users[id] = u
	return u
}

func (f *fakeRepo) put(s session.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
}

func (f *fakeRepo) get(id string) (session.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	return s, ok
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeRepo) Create(ctx context.Context, s *session.Session) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.put(*s)
	return nil
}

func (f *fakeRepo) Lookup(ctx context.Context, id string, mode session.Mode) (*session.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.LookupErr != nil {
		return nil, f.LookupErr
	}

	s, ok := f.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	u, ok := f.users[s.UserID]
	if !ok {
		return nil, session.ErrNotFound
	}

	rec := &session.Record{Session: s, Principal: session.Principal{ID: u.ID, Role: u.Role}}
	if mode == session.Full {
		rec.User = &u
	}
	return rec, nil
}

func (f *fakeRepo) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if s, ok := f.sessions[id]; ok {
		s.ExpiresAt = expiresAt
		f.sessions[id] = s
	}
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeRepo) DeleteByUser(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return 0, f.DeleteErr
	}
	var n int64
	for id, s := range f.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
