package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
)

type memDiaryStore struct {
	mu      sync.Mutex
	nextID  int
	entries map[string]map[string]diary.Entry
}

func newMemDiaryStore() *memDiaryStore {
	return &memDiaryStore{entries: make(map[string]map[string]diary.Entry)}
}

func (m *memDiaryStore) user(userID string) map[string]diary.Entry {
	if m.entries[userID] == nil {
		m.entries[userID] = make(map[string]diary.Entry)
	}
	return m.entries[userID]
}

func (m *memDiaryStore) list(userID string, trashed bool) []diary.Entry {
	var out []diary.Entry
	for _, e := range m.user(userID) {
		if e.IsTrashed() == trashed {
			out = append(out, e)
		}
	}
	return out
}

func (m *memDiaryStore) ListActive(_ context.Context, userID string) ([]diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.list(userID, false)
	diary.SortNewestFirst(out)
	return out, nil
}

func (m *memDiaryStore) ListTrash(_ context.Context, userID string) ([]diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.list(userID, true)
	diary.SortRecentlyTrashedFirst(out)
	return out, nil
}

func (m *memDiaryStore) Get(_ context.Context, userID, id string) (diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.user(userID)[id]
	if !ok {
		return diary.Entry{}, diary.ErrNotFound
	}
	return e, nil
}

func (m *memDiaryStore) Create(_ context.Context, userID string, e diary.Entry) (diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = fmt.Sprintf("d%d", m.nextID)
	m.user(userID)[e.ID] = e
	return e, nil
}

func (m *memDiaryStore) Update(_ context.Context, userID, id string, e diary.Entry) (diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.user(userID)[id]
	if !ok || cur.IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	m.user(userID)[id] = e
	return e, nil
}

func (m *memDiaryStore) SoftDelete(_ context.Context, userID, id string, at time.Time) (diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.user(userID)[id]
	if !ok || e.IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	e.TrashedAt = &at
	m.user(userID)[id] = e
	return e, nil
}

func (m *memDiaryStore) Restore(_ context.Context, userID, id string, at time.Time) (diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.user(userID)[id]
	if !ok || !e.IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	e.TrashedAt = nil
	e.UpdatedAt = at
	m.user(userID)[id] = e
	return e, nil
}

func (m *memDiaryStore) Purge(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.user(userID)[id]
	if !ok || !e.IsTrashed() {
		return diary.ErrNotFound
	}
	delete(m.user(userID), id)
	return nil
}

func (m *memDiaryStore) EmptyTrash(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.user(userID) {
		if e.IsTrashed() {
			delete(m.user(userID), id)
			n++
		}
	}
	return n, nil
}

type memCache struct {
	data        map[string][]diary.Entry
	invalidated int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]diary.Entry)} }

func (c *memCache) Get(_ context.Context, userID, view string) ([]diary.Entry, bool) {
	e, ok := c.data[CacheKey(userID, view)]
	return e, ok
}

func (c *memCache) Set(_ context.Context, userID, view string, entries []diary.Entry) {
	c.data[CacheKey(userID, view)] = entries
}

func (c *memCache) Invalidate(_ context.Context, userID string) {
	delete(c.data, CacheKey(userID, ViewActive))
	delete(c.data, CacheKey(userID, ViewTrash))
	c.invalidated++
}

type recordingPublisher struct {
	events []DiaryEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt DiaryEvent) error {
	p.events = append(p.events, evt)
	return nil
}

type fakeImageStore struct {
	uploads     int
	contentType string
}

func (f *fakeImageStore) Upload(_ context.Context, _ []byte, contentType string) (string, error) {
	f.uploads++
	f.contentType = contentType
	return "https://img.example.com/1.png", nil
}

type memUserStore struct {
	byID map[string]models.User
}

func newMemUserStore() *memUserStore { return &memUserStore{byID: make(map[string]models.User)} }

func (m *memUserStore) Create(_ context.Context, u models.User) (models.User, error) {
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memUserStore) GetByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (m *memUserStore) Update(_ context.Context, u models.User) (models.User, error) {
	if _, ok := m.byID[u.ID]; !ok {
		return models.User{}, ErrUserNotFound
	}
	m.byID[u.ID] = u
	return u, nil
}

type memRevoker struct {
	revoked map[string]time.Duration
}

func newMemRevoker() *memRevoker { return &memRevoker{revoked: make(map[string]time.Duration)} }

func (r *memRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	r.revoked[id] = ttl
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := r.revoked[id]
	return ok, nil
}
