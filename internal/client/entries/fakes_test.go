package entries_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/ediary-backend/internal/client/storage"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

var fixedNow = time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)

func openKV(t *testing.T) *storage.SQLite {
	t.Helper()
	kv, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "ediary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

// stepClock advances one minute per call.
type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("local-%d", n)
	}
}

// fakeRemote is an in-memory diary server. When err is set every call fails with it.
type fakeRemote struct {
	token   bool
	err     error
	calls   []string
	entries []diary.Entry
	nextID  int
}

func (f *fakeRemote) HasToken() bool { return f.token }

func (f *fakeRemote) call(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeRemote) find(id string) int {
	for i, e := range f.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeRemote) ListDiaries(_ context.Context, query string) ([]diary.Entry, error) {
	if err := f.call("list"); err != nil {
		return nil, err
	}
	var out []diary.Entry
	for _, e := range f.entries {
		if !e.IsTrashed() && e.Matches(query) {
			out = append(out, e)
		}
	}
	diary.SortNewestFirst(out)
	return out, nil
}

func (f *fakeRemote) ListTrash(context.Context) ([]diary.Entry, error) {
	if err := f.call("trash-list"); err != nil {
		return nil, err
	}
	var out []diary.Entry
	for _, e := range f.entries {
		if e.IsTrashed() {
			out = append(out, e)
		}
	}
	diary.SortRecentlyTrashedFirst(out)
	return out, nil
}

func (f *fakeRemote) CreateDiary(_ context.Context, d diary.Draft) (diary.Entry, error) {
	if err := f.call("create"); err != nil {
		return diary.Entry{}, err
	}
	f.nextID++
	e, err := diary.NewEntry(d, fixedNow, func() string { return fmt.Sprintf("srv-%d", f.nextID) })
	if err != nil {
		return diary.Entry{}, err
	}
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeRemote) UpdateDiary(_ context.Context, id string, p diary.Patch) (diary.Entry, error) {
	if err := f.call("update"); err != nil {
		return diary.Entry{}, err
	}
	i := f.find(id)
	if i < 0 || f.entries[i].IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	e, err := p.Apply(f.entries[i], fixedNow)
	if err != nil {
		return diary.Entry{}, err
	}
	f.entries[i] = e
	return e, nil
}

func (f *fakeRemote) TrashDiary(_ context.Context, id string) (diary.Entry, error) {
	if err := f.call("trash"); err != nil {
		return diary.Entry{}, err
	}
	i := f.find(id)
	if i < 0 || f.entries[i].IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	at := fixedNow
	f.entries[i].TrashedAt = &at
	return f.entries[i], nil
}

func (f *fakeRemote) RestoreDiary(_ context.Context, id string) (diary.Entry, error) {
	if err := f.call("restore"); err != nil {
		return diary.Entry{}, err
	}
	i := f.find(id)
	if i < 0 || !f.entries[i].IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	f.entries[i].TrashedAt = nil
	return f.entries[i], nil
}

func (f *fakeRemote) PurgeDiary(_ context.Context, id string) error {
	if err := f.call("purge"); err != nil {
		return err
	}
	i := f.find(id)
	if i < 0 || !f.entries[i].IsTrashed() {
		return diary.ErrNotFound
	}
	f.entries = append(f.entries[:i], f.entries[i+1:]...)
	return nil
}

func (f *fakeRemote) EmptyTrash(context.Context) (int64, error) {
	if err := f.call("empty"); err != nil {
		return 0, err
	}
	var kept []diary.Entry
	for _, e := range f.entries {
		if !e.IsTrashed() {
			kept = append(kept, e)
		}
	}
	n := int64(len(f.entries) - len(kept))
	f.entries = kept
	return n, nil
}
