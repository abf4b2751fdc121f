package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"scanteate/pkg/session"
)

var _ session.Cache = (*Memory)(nil)

// Stats are counters for diagnostics.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Deletes   int64 `json:"deletes"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

type memoryEntry struct {
	rec     session.Record
	expires time.Time
}

// Memory is a process-local session cache. It is only coherent with a
// single API instance; use Redis when running several.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	byUser  map[int64]map[string]struct{}
	maxSize int
	now     func() time.Time

	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
}

func NewMemory(maxSize int) *Memory {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		byUser:  make(map[int64]map[string]struct{}),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, id string) (*session.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		atomic.AddInt64(&m.misses, 1)
		return nil, session.ErrCacheMiss
	}
	if !m.now().Before(e.expires) {
		m.remove(id)
		atomic.AddInt64(&m.misses, 1)
		return nil, session.ErrCacheMiss
	}

	atomic.AddInt64(&m.hits, 1)
	rec := e.rec
	return &rec, nil
}

func (m *Memory) Set(ctx context.Context, rec *session.Record, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := rec.Session.ID
	if _, ok := m.entries[id]; !ok && len(m.entries) >= m.maxSize {
		m.evictOne()
	}

	m.entries[id] = memoryEntry{
		rec:     session.Record{Session: rec.Session, Principal: rec.Principal},
		expires: m.now().Add(ttl),
	}
	ids, ok := m.byUser[rec.Principal.ID]
	if !ok {
		ids = make(map[string]struct{})
		m.byUser[rec.Principal.ID] = ids
	}
	ids[id] = struct{}{}

	atomic.AddInt64(&m.sets, 1)
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.remove(id) {
		atomic.AddInt64(&m.deletes, 1)
	}
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.byUser[userID] {
		if m.remove(id) {
			atomic.AddInt64(&m.deletes, 1)
		}
	}
	delete(m.byUser, userID)
	return nil
}

func (m *Memory) Stats() Stats {
	m.mu.Lock()
	size := len(m.entries)
	m.mu.Unlock()

	return Stats{
		Hits:      atomic.LoadInt64(&m.hits),
		Misses:    atomic.LoadInt64(&m.misses),
		Sets:      atomic.LoadInt64(&m.sets),
		Deletes:   atomic.LoadInt64(&m.deletes),
		Evictions: atomic.LoadInt64(&m.evictions),
		Size:      size,
	}
}

// remove expects m.mu held.
func (m *Memory) remove(id string) bool {
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	delete(m.entries, id)
	if ids, ok := m.byUser[e.rec.Principal.ID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(m.byUser, e.rec.Principal.ID)
		}
	}
	return true
}

// evictOne drops the entry closest to expiry. Expects m.mu held.
func (m *Memory) evictOne() {
	var (
		victim string
		first  time.Time
	)
	for id, e := range m.entries {
		if victim == "" || e.expires.Before(first) {
			victim, first = id, e.expires
		}
	}
	if victim != "" && m.remove(victim) {
		atomic.AddInt64(&m.evictions, 1)
	}
}
