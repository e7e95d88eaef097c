package handlers_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
	"github.com/AnshRaj112/ediary-backend/internal/services"
)

type memDiaries struct {
	mu   sync.Mutex
	next int
	rows map[string]map[string]diary.Entry
}

func newMemDiaries() *memDiaries { return &memDiaries{rows: map[string]map[string]diary.Entry{}} }

func (m *memDiaries) of(uid string) map[string]diary.Entry {
	if m.rows[uid] == nil {
		m.rows[uid] = map[string]diary.Entry{}
	}
	return m.rows[uid]
}

func (m *memDiaries) filter(uid string, trashed bool) []diary.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []diary.Entry
	for _, e := range m.of(uid) {
		if e.IsTrashed() == trashed {
			out = append(out, e)
		}
	}
	return out
}

func (m *memDiaries) ListActive(_ context.Context, uid string) ([]diary.Entry, error) {
	out := m.filter(uid, false)
	diary.SortNewestFirst(out)
	return out, nil
}

func (m *memDiaries) ListTrash(_ context.Context, uid string) ([]diary.Entry, error) {
	out := m.filter(uid, true)
	diary.SortRecentlyTrashedFirst(out)
	return out, nil
}

func (m *memDiaries) Get(_ context.Context, uid, id string) (diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.of(uid)[id]
	if !ok {
		return diary.Entry{}, diary.ErrNotFound
	}
	return e, nil
}

func (m *memDiaries) Create(_ context.Context, uid string, e diary.Entry) (diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	e.ID = "d" + strconv.Itoa(m.next)
	m.of(uid)[e.ID] = e
	return e, nil
}

// mutate applies fn to the entry when its trashed state equals wantTrashed.
func (m *memDiaries) mutate(uid, id string, wantTrashed bool, fn func(*diary.Entry)) (diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.of(uid)[id]
	if !ok || e.IsTrashed() != wantTrashed {
		return diary.Entry{}, diary.ErrNotFound
	}
	fn(&e)
	m.of(uid)[id] = e
	return e, nil
}

func (m *memDiaries) Update(_ context.Context, uid, id string, next diary.Entry) (diary.Entry, error) {
	return m.mutate(uid, id, false, func(e *diary.Entry) { *e = next })
}

func (m *memDiaries) SoftDelete(_ context.Context, uid, id string, at time.Time) (diary.Entry, error) {
	return m.mutate(uid, id, false, func(e *diary.Entry) { e.TrashedAt = &at })
}

func (m *memDiaries) Restore(_ context.Context, uid, id string, at time.Time) (diary.Entry, error) {
	return m.mutate(uid, id, true, func(e *diary.Entry) { e.TrashedAt = nil; e.UpdatedAt = at })
}

func (m *memDiaries) Purge(ctx context.Context, uid, id string) error {
	if _, err := m.mutate(uid, id, true, func(*diary.Entry) {}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.of(uid), id)
	return nil
}

func (m *memDiaries) EmptyTrash(_ context.Context, uid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.of(uid) {
		if e.IsTrashed() {
			delete(m.of(uid), id)
			n++
		}
	}
	return n, nil
}

type memUsers struct {
	mu   sync.Mutex
	rows map[string]models.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[string]models.User{}} }

func (m *memUsers) find(match func(models.User) bool) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, services.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByUsername(_ context.Context, name string) (models.User, error) {
	return m.find(func(u models.User) bool { return strings.EqualFold(u.Username, name) })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *memUsers) Update(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[u.ID]; !ok {
		return models.User{}, services.ErrUserNotFound
	}
	m.rows[u.ID] = u
	return u, nil
}

type memRevoker struct {
	mu  sync.Mutex
	ids map[string]bool
}

func (r *memRevoker) Revoke(_ context.Context, id string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = true
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ids[id], nil
}

type stubImages struct{}

func (stubImages) Upload(context.Context, []byte, string) (string, error) {
	return "https://img.example.com/uploaded.png", nil
}
