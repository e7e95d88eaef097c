package entries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/ediary-backend/internal/client/entries"
	"github.com/AnshRaj112/ediary-backend/internal/client/session"
	"github.com/AnshRaj112/ediary-backend/internal/client/storage"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
)

func ids(list []diary.Entry) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func newLocalRepo(t *testing.T, kv storage.KV, identity string) (*entries.Repository, *stepClock) {
	t.Helper()
	clock := &stepClock{t: fixedNow}
	r := entries.New(kv, entries.ModeLocal, entries.WithClock(clock.Now), entries.WithIDGenerator(sequentialIDs()))
	require.NoError(t, r.Load(context.Background(), identity))
	return r, clock
}

func TestParseMode(t *testing.T) {
	m, err := entries.ParseMode(" Remote ")
	require.NoError(t, err)
	assert.Equal(t, entries.ModeRemote, m)

	m, err = entries.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, entries.ModeHybrid, m)

	_, err = entries.ParseMode("cloud")
	assert.Error(t, err)
}

func TestLoadSeedsAdminOnly(t *testing.T) {
	kv := openKV(t)

	admin, _ := newLocalRepo(t, kv, "admin")
	assert.Equal(t, []string{"entry-1", "entry-2", "entry-3", "entry-4", "entry-5"}, ids(admin.Active()))
	assert.Empty(t, admin.Trash())

	jane, _ := newLocalRepo(t, kv, "jane@example.com")
	assert.Empty(t, jane.Active())

	// The seed is written once; later loads read storage.
	_, err := admin.SoftDelete(context.Background(), "entry-1")
	require.NoError(t, err)
	again, _ := newLocalRepo(t, kv, "admin")
	assert.Len(t, again.Active(), 4)
	assert.Equal(t, []string{"entry-1"}, ids(again.Trash()))
}

func TestOperationsBeforeLoad(t *testing.T) {
	r := entries.New(openKV(t), entries.ModeLocal)
	_, err := r.Add(context.Background(), diary.Draft{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, entries.ErrNotLoaded)
	assert.Error(t, r.Load(context.Background(), ""))
}

func TestAddInsertsAtHead(t *testing.T) {
	ctx := context.Background()
	r, _ := newLocalRepo(t, openKV(t), "admin")

	e, err := r.Add(ctx, diary.Draft{Title: "  Hello world ", Content: "foo bar baz"})
	require.NoError(t, err)
	assert.Equal(t, "local-1", e.ID)
	assert.Equal(t, diary.MoodCalm, e.Mood)
	assert.Equal(t, "Hello world", e.Title)
	assert.Equal(t, fixedNow.Add(time.Minute), e.CreatedAt)
	assert.Equal(t, "local-1", r.Active()[0].ID)
	assert.Len(t, r.Active(), 6)

	withID, err := r.Add(ctx, diary.Draft{ID: "mine", Mood: "happy", Title: "t", Content: "c", CreatedAt: fixedNow.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "mine", withID.ID)
	assert.Equal(t, fixedNow.Add(-time.Hour), withID.CreatedAt)
	assert.Equal(t, "mine", r.Active()[0].ID)
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	r, _ := newLocalRepo(t, openKV(t), "jane@example.com")

	for _, d := range []diary.Draft{
		{Title: "  ", Content: "c"},
		{Title: "t", Content: ""},
		{Mood: "furious", Title: "t", Content: "c"},
	} {
		_, err := r.Add(ctx, d)
		assert.True(t, diary.IsValidation(err), "%+v", d)
	}
	assert.Empty(t, r.Active())
}

func TestSoftDeleteRecoverRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, _ := newLocalRepo(t, openKV(t), "admin")

	original, err := r.Get("entry-3")
	require.NoError(t, err)

	trashed, err := r.SoftDelete(ctx, "entry-3")
	require.NoError(t, err)
	require.NotNil(t, trashed.TrashedAt)
	assert.Equal(t, diary.StatusTrashed, trashed.Status())
	assert.NotContains(t, ids(r.Active()), "entry-3")
	assert.Equal(t, []string{"entry-3"}, ids(r.Trash()))

	_, err = r.SoftDelete(ctx, "entry-3")
	assert.ErrorIs(t, err, diary.ErrNotFound)

	restored, err := r.Recover(ctx, "entry-3")
	require.NoError(t, err)
	assert.Equal(t, original, restored)
	assert.Equal(t, []string{"entry-1", "entry-2", "entry-3", "entry-4", "entry-5"}, ids(r.Active()))
	assert.Empty(t, r.Trash())

	_, err = r.Recover(ctx, "entry-3")
	assert.ErrorIs(t, err, diary.ErrNotFound)
}

func TestRecoverOrdersByCreationTime(t *testing.T) {
	ctx := context.Background()
	r, _ := newLocalRepo(t, openKV(t), "admin")

	_, err := r.SoftDelete(ctx, "entry-1")
	require.NoError(t, err)
	_, err = r.SoftDelete(ctx, "entry-5")
	require.NoError(t, err)
	_, err = r.Add(ctx, diary.Draft{Title: "new", Content: "today"})
	require.NoError(t, err)

	_, err = r.Recover(ctx, "entry-5")
	require.NoError(t, err)
	_, err = r.Recover(ctx, "entry-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"local-1", "entry-1", "entry-2", "entry-3", "entry-4", "entry-5"}, ids(r.Active()))
}

func TestTrashMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	r, _ := newLocalRepo(t, openKV(t), "admin")

	for _, id := range []string{"entry-4", "entry-1", "entry-2"} {
		_, err := r.SoftDelete(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"entry-2", "entry-1", "entry-4"}, ids(r.Trash()))
}

func TestPermanentlyDelete(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	r, _ := newLocalRepo(t, kv, "admin")

	assert.ErrorIs(t, r.PermanentlyDelete(ctx, "entry-2"), diary.ErrNotFound, "active entries cannot be purged")

	_, err := r.SoftDelete(ctx, "entry-2")
	require.NoError(t, err)
	require.NoError(t, r.PermanentlyDelete(ctx, "entry-2"))

	_, err = r.Recover(ctx, "entry-2")
	assert.ErrorIs(t, err, diary.ErrNotFound)
	_, err = r.Get("entry-2")
	assert.ErrorIs(t, err, diary.ErrNotFound)

	again, _ := newLocalRepo(t, kv, "admin")
	assert.NotContains(t, ids(again.Active()), "entry-2")
	assert.Empty(t, again.Trash())
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	r, clock := newLocalRepo(t, openKV(t), "admin")

	title := " Lost and found "
	mood := "happy"
	e, err := r.Update(ctx, "entry-1", diary.Patch{Title: &title, Mood: &mood})
	require.NoError(t, err)
	assert.Equal(t, "Lost and found", e.Title)
	assert.Equal(t, diary.MoodHappy, e.Mood)
	assert.Equal(t, clock.t, e.UpdatedAt)
	assert.Equal(t, "entry-1", r.Active()[0].ID)

	blank := ""
	_, err = r.Update(ctx, "entry-1", diary.Patch{Content: &blank})
	assert.True(t, diary.IsValidation(err))

	_, err = r.Update(ctx, "missing", diary.Patch{Title: &title})
	assert.ErrorIs(t, err, diary.ErrNotFound)

	_, err = r.SoftDelete(ctx, "entry-2")
	require.NoError(t, err)
	_, err = r.Update(ctx, "entry-2", diary.Patch{Title: &title})
	assert.ErrorIs(t, err, diary.ErrNotFound)
}

func TestEmptyTrash(t *testing.T) {
	ctx := context.Background()
	r, _ := newLocalRepo(t, openKV(t), "admin")

	n, err := r.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, id := range []string{"entry-1", "entry-2"} {
		_, err := r.SoftDelete(ctx, id)
		require.NoError(t, err)
	}
	n, err = r.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, r.Trash())
	assert.Len(t, r.Active(), 3)
}

func TestSearch(t *testing.T) {
	r, _ := newLocalRepo(t, openKV(t), "admin")
	assert.Equal(t, []string{"entry-2"}, ids(r.Search("TRIP")))
	assert.Equal(t, []string{"entry-4"}, ids(r.Search("told her")))
	assert.Len(t, r.Search(""), 5)
}

func TestHybridWithoutSessionUsesLocal(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	r := entries.New(openKV(t), entries.ModeHybrid, entries.WithRemote(remote))
	require.NoError(t, r.Load(ctx, "admin"))

	_, err := r.SoftDelete(ctx, "entry-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"entry-1"}, ids(r.Trash()))
	assert.Empty(t, remote.calls)
}

func TestRemoteWithoutSessionRequiresAuth(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	r := entries.New(openKV(t), entries.ModeRemote, entries.WithRemote(remote))

	assert.ErrorIs(t, r.Load(ctx, "jane@example.com"), diary.ErrAuthRequired)
	_, err := r.SoftDelete(ctx, "entry-1")
	assert.ErrorIs(t, err, diary.ErrAuthRequired)

	// Signing out after a load blocks further mutations too.
	remote.token = true
	_, err = remote.CreateDiary(ctx, diary.Draft{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.NoError(t, r.Load(ctx, "jane@example.com"))
	remote.token = false
	_, err = r.SoftDelete(ctx, "srv-1")
	assert.ErrorIs(t, err, diary.ErrAuthRequired)
}

func TestRemoteModeUsesServerOnly(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	remote := &fakeRemote{token: true}
	r := entries.New(kv, entries.ModeRemote, entries.WithRemote(remote))
	require.NoError(t, r.Load(ctx, "jane@example.com"))

	e, err := r.Add(ctx, diary.Draft{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", e.ID)
	_, err = r.SoftDelete(ctx, "srv-1")
	require.NoError(t, err)
	n, err := r.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, remote.entries)

	_, ok, err := kv.Get(ctx, storage.EntriesKey("jane@example.com"))
	require.NoError(t, err)
	assert.False(t, ok, "remote mode keeps nothing locally")

	remote.err = diary.ErrNetwork
	_, err = r.Add(ctx, diary.Draft{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, diary.ErrNetwork)
	assert.Empty(t, r.Active())
}

func TestHybridMirrorsServer(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	remote := &fakeRemote{token: true}
	_, err := remote.CreateDiary(ctx, diary.Draft{Title: "from server", Content: "c"})
	require.NoError(t, err)

	r := entries.New(kv, entries.ModeHybrid, entries.WithRemote(remote))
	require.NoError(t, r.Load(ctx, "jane@example.com"))
	assert.Equal(t, []string{"srv-1"}, ids(r.Active()))

	_, err = r.SoftDelete(ctx, "srv-1")
	require.NoError(t, err)
	assert.True(t, remote.entries[0].IsTrashed())

	local, _ := newLocalRepo(t, kv, "jane@example.com")
	assert.Empty(t, local.Active())
	assert.Equal(t, []string{"srv-1"}, ids(local.Trash()))
}

func TestHybridFallsBackWhenOffline(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	remote := &fakeRemote{token: true, err: diary.ErrNetwork}
	r := entries.New(kv, entries.ModeHybrid, entries.WithRemote(remote), entries.WithIDGenerator(sequentialIDs()))

	require.NoError(t, r.Load(ctx, "admin"))
	assert.Len(t, r.Active(), 5)

	e, err := r.Add(ctx, diary.Draft{Title: "offline", Content: "still works"})
	require.NoError(t, err)
	assert.Equal(t, "local-1", e.ID)

	assert.Equal(t, []string{"local-1"}, r.Pending())

	remote.err = diary.ErrAuthRequired
	_, err = r.SoftDelete(ctx, "entry-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"list", "create", "trash"}, remote.calls)
}

func TestHybridKeepsOfflineEntriesAfterReconnect(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	remote := &fakeRemote{token: true}
	_, err := remote.CreateDiary(ctx, diary.Draft{Title: "server", Content: "c"})
	require.NoError(t, err)
	clock := &stepClock{t: fixedNow}
	r := entries.New(kv, entries.ModeHybrid, entries.WithRemote(remote),
		entries.WithClock(clock.Now), entries.WithIDGenerator(sequentialIDs()))
	require.NoError(t, r.Load(ctx, "jane@example.com"))

	remote.err = diary.ErrNetwork
	_, err = r.Add(ctx, diary.Draft{Title: "written offline", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"local-1", "srv-1"}, ids(r.Active()))

	remote.err = nil
	require.NoError(t, r.Load(ctx, "jane@example.com"))
	assert.Equal(t, []string{"local-1", "srv-1"}, ids(r.Active()))
	assert.Equal(t, []string{"local-1"}, r.Pending())

	remote.err = diary.ErrNetwork
	require.NoError(t, r.Load(ctx, "jane@example.com"))
	assert.Equal(t, []string{"local-1", "srv-1"}, ids(r.Active()))

	// Entries the server dropped go away; local-only ones stay.
	remote.err = nil
	remote.entries = nil
	require.NoError(t, r.Load(ctx, "jane@example.com"))
	assert.Equal(t, []string{"local-1"}, ids(r.Active()))

	// Local-only entries never hit the server.
	_, err = r.SoftDelete(ctx, "local-1")
	require.NoError(t, err)
	assert.NotContains(t, remote.calls, "trash")
	require.NoError(t, r.PermanentlyDelete(ctx, "local-1"))
	assert.NotContains(t, remote.calls, "purge")
	assert.Empty(t, r.Pending())

	require.NoError(t, r.Load(ctx, "jane@example.com"))
	assert.Empty(t, r.Active())
	assert.Empty(t, r.Trash())
}

func TestHybridSurfacesNotFoundAndValidation(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{token: true}
	r := entries.New(openKV(t), entries.ModeHybrid, entries.WithRemote(remote))
	require.NoError(t, r.Load(ctx, "jane@example.com"))

	_, err := r.Add(ctx, diary.Draft{Title: "t", Content: "c"})
	require.NoError(t, err)

	remote.err = diary.ErrNotFound
	title := "x"
	_, err = r.Update(ctx, "srv-1", diary.Patch{Title: &title})
	assert.ErrorIs(t, err, diary.ErrNotFound)

	remote.err = &diary.ValidationError{Field: "mood", Message: "bad"}
	_, err = r.Update(ctx, "srv-1", diary.Patch{Title: &title})
	assert.True(t, diary.IsValidation(err))

	remote.err = errors.New("status 500")
	_, err = r.SoftDelete(ctx, "srv-1")
	assert.EqualError(t, err, "status 500")
	assert.Len(t, r.Active(), 1)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	r, _ := newLocalRepo(t, kv, "jane@example.com")
	_, err := r.Add(ctx, diary.Draft{Title: "mine", Content: "keep me"})
	require.NoError(t, err)

	require.NoError(t, r.Migrate(ctx, "jane@example.com", "janet@example.com"))
	assert.Equal(t, "janet@example.com", r.Identity())

	_, ok, err := kv.Get(ctx, storage.EntriesKey("jane@example.com"))
	require.NoError(t, err)
	assert.False(t, ok)

	moved, _ := newLocalRepo(t, kv, "janet@example.com")
	assert.Equal(t, []string{"local-1"}, ids(moved.Active()))

	// An occupied destination keeps its entries and gains the missing ones.
	old := []diary.Entry{
		{ID: "local-1", Mood: diary.MoodSad, Title: "dup", Content: "dup", CreatedAt: fixedNow},
		{ID: "old-1", Mood: diary.MoodCalm, Title: "old", Content: "old", CreatedAt: fixedNow},
	}
	require.NoError(t, storage.SetJSON(ctx, kv, storage.EntriesKey("old@example.com"), old))
	require.NoError(t, r.Migrate(ctx, "old@example.com", "janet@example.com"))
	_, ok, err = kv.Get(ctx, storage.EntriesKey("old@example.com"))
	require.NoError(t, err)
	assert.False(t, ok)
	moved, _ = newLocalRepo(t, kv, "janet@example.com")
	assert.Equal(t, []string{"local-1", "old-1"}, ids(moved.Active()))
	assert.Equal(t, "mine", moved.Active()[0].Title)
}

func TestProfileEmailChangeKeepsEntries(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	repo := entries.New(kv, entries.ModeLocal)
	store := session.NewLocal(kv, session.WithMigrator(repo))
	require.NoError(t, store.Hydrate(ctx))

	_, err := store.Signup(ctx, session.SignupInput{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, repo.Load(ctx, store.Identity()))
	_, err = repo.Add(ctx, diary.Draft{Title: "Hello world", Content: "foo bar baz"})
	require.NoError(t, err)
	_, err = repo.Add(ctx, diary.Draft{Title: "bin", Content: "me"})
	require.NoError(t, err)
	_, err = repo.SoftDelete(ctx, repo.Active()[0].ID)
	require.NoError(t, err)

	email := "janet@example.com"
	_, err = store.UpdateProfile(ctx, models.ProfileUpdate{Email: &email})
	require.NoError(t, err)

	reloaded := entries.New(kv, entries.ModeLocal)
	require.NoError(t, reloaded.Load(ctx, store.Identity()))
	require.Len(t, reloaded.Active(), 1)
	assert.Equal(t, "Hello world", reloaded.Active()[0].Title)
	require.Len(t, reloaded.Trash(), 1)
	assert.Equal(t, "bin", reloaded.Trash()[0].Title)
}

func TestAliasAccountEntriesMergeIntoCanonical(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	users := map[string]map[string]models.User{
		"jane@example.com": {"user": {ID: "u1", Email: "jane@example.com"}},
		"Jane@Example.com": {"user": {ID: "u2", Email: "Jane@Example.com"}},
	}
	require.NoError(t, storage.SetJSON(ctx, kv, storage.KeyUsers, users))
	require.NoError(t, storage.SetJSON(ctx, kv, storage.EntriesKey("jane@example.com"), []diary.Entry{
		{ID: "a", Mood: diary.MoodCalm, Title: "canonical", Content: "c", CreatedAt: fixedNow},
	}))
	require.NoError(t, storage.SetJSON(ctx, kv, storage.EntriesKey("Jane@Example.com"), []diary.Entry{
		{ID: "b", Mood: diary.MoodCalm, Title: "alias", Content: "c", CreatedAt: fixedNow.Add(-time.Hour)},
	}))

	repo := entries.New(kv, entries.ModeLocal)
	store := session.NewLocal(kv, session.WithMigrator(repo))
	require.NoError(t, store.Hydrate(ctx))

	_, ok, err := kv.Get(ctx, storage.EntriesKey("Jane@Example.com"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Load(ctx, "jane@example.com"))
	assert.Equal(t, []string{"a", "b"}, ids(repo.Active()))
}
