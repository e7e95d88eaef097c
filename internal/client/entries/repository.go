// Package entries holds the signed-in user's diary entries on the client. A Repository
// loads them from the server or local storage, and the lifecycle methods move them
// between the active and trashed views.
package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/client/storage"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

// Mode selects where entries live.
type Mode string

const (
	// ModeLocal never talks to the server.
	ModeLocal Mode = "local"
	// ModeHybrid prefers the server and falls back to local storage when it is unreachable
	// or the session is missing.
	ModeHybrid Mode = "hybrid"
	// ModeRemote uses the server only and surfaces every failure.
	ModeRemote Mode = "remote"
)

// ParseMode accepts the mode names case-insensitively. Empty means hybrid.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeHybrid, nil
	case ModeLocal, ModeHybrid, ModeRemote:
		return m, nil
	default:
		return "", fmt.Errorf("entries: unknown mode %q", s)
	}
}

// ErrNotLoaded is returned by operations that run before Load.
var ErrNotLoaded = errors.New("entries: no identity loaded")

// Remote is the diary part of the REST client.
type Remote interface {
	HasToken() bool
	ListDiaries(ctx context.Context, query string) ([]diary.Entry, error)
	ListTrash(ctx context.Context) ([]diary.Entry, error)
	CreateDiary(ctx context.Context, d diary.Draft) (diary.Entry, error)
	UpdateDiary(ctx context.Context, id string, p diary.Patch) (diary.Entry, error)
	TrashDiary(ctx context.Context, id string) (diary.Entry, error)
	RestoreDiary(ctx context.Context, id string) (diary.Entry, error)
	PurgeDiary(ctx context.Context, id string) error
	EmptyTrash(ctx context.Context) (int64, error)
}

// Repository owns the entries of one identity. Every entry carries its own state; the
// active and trash views are derived from a single slice.
type Repository struct {
	mu       sync.Mutex
	mode     Mode
	kv       storage.KV
	remote   Remote
	now      func() time.Time
	newID    func() string
	identity string
	loaded   bool
	entries  []diary.Entry
	// pending holds ids of entries written while the server was out of reach.
	pending map[string]struct{}
}

// Option configures a Repository.
type Option func(*Repository)

// WithRemote enables server sync for the hybrid and remote modes.
func WithRemote(remote Remote) Option {
	return func(r *Repository) { r.remote = remote }
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

func New(kv storage.KV, mode Mode, opts ...Option) *Repository {
	r := &Repository{
		mode:  mode,
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Mode() Mode { return r.mode }

// Identity is the identity passed to the last successful Load.
func (r *Repository) Identity() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.identity
}

// Load replaces the in-memory entries with those of identity. The server is tried first
// when a session exists; the demo set seeds the admin identity on first local use. In
// hybrid mode entries that never reached the server are kept next to the server's lists.
func (r *Repository) Load(ctx context.Context, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if identity == "" {
		return errors.New("entries: identity is required")
	}
	r.identity, r.entries, r.loaded, r.pending = identity, nil, false, map[string]struct{}{}

	var fetched []diary.Entry
	remote, err := r.sync("load", func(c Remote) error {
		var err error
		fetched, err = fetchAll(ctx, c)
		return err
	})
	if err != nil {
		return err
	}

	if remote {
		if r.mode == ModeHybrid {
			fetched = r.keepPending(ctx, identity, fetched)
			if err := r.write(ctx, identity, fetched); err != nil {
				log.Warn().Err(err).Str("identity", identity).Msg("Failed to mirror entries locally")
			}
		}
	} else {
		fetched, err = r.readLocal(ctx, identity)
		if err != nil {
			return err
		}
	}

	r.entries = fetched
	r.loaded = true
	return nil
}

func fetchAll(ctx context.Context, c Remote) ([]diary.Entry, error) {
	active, err := c.ListDiaries(ctx, "")
	if err != nil {
		return nil, err
	}
	trash, err := c.ListTrash(ctx)
	if err != nil {
		return nil, err
	}
	return append(active, trash...), nil
}

// keepPending adds the locally stored entries of identity that are pending and unknown to
// the server to fetched.
func (r *Repository) keepPending(ctx context.Context, identity string, fetched []diary.Entry) []diary.Entry {
	local, pending, found, err := r.readStored(ctx, identity)
	if err != nil {
		log.Warn().Err(err).Str("identity", identity).Msg("Failed to read local entries, pending entries not merged")
		return fetched
	}
	if !found || len(pending) == 0 {
		return fetched
	}
	onServer := make(map[string]struct{}, len(fetched))
	for _, e := range fetched {
		onServer[e.ID] = struct{}{}
	}
	for _, e := range local {
		if _, ok := pending[e.ID]; !ok {
			continue
		}
		if _, ok := onServer[e.ID]; ok {
			continue
		}
		log.Info().Str("identity", identity).Str("id", e.ID).Msg("Keeping entry that exists only locally")
		r.pending[e.ID] = struct{}{}
		if e.IsTrashed() {
			fetched = append(fetched, e)
		} else {
			fetched = insertByCreated(fetched, e)
		}
	}
	return fetched
}

// Pending returns the ids of entries that exist only in local storage.
func (r *Repository) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.pending))
	for _, e := range r.entries {
		if _, ok := r.pending[e.ID]; ok {
			out = append(out, e.ID)
		}
	}
	return out
}

// Reset forgets the loaded identity, e.g. on sign out.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identity, r.entries, r.loaded, r.pending = "", nil, false, nil
}

// Active returns active entries, head first.
func (r *Repository) Active() []diary.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return activeOf(r.entries)
}

// Trash returns trashed entries, most recently trashed first.
func (r *Repository) Trash() []diary.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return trashOf(r.entries)
}

// Get returns the entry with id in either view.
func (r *Repository) Get(id string) (diary.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		return r.entries[i], nil
	}
	return diary.Entry{}, diary.ErrNotFound
}

// Search filters the active view by a case-insensitive substring of title and content.
func (r *Repository) Search(query string) []diary.Entry {
	return diary.Search(r.Active(), query)
}

// Migrate moves the stored entries of from to to and removes the source keys. When to
// already holds data the source entries are merged in; entries present under both keep
// the destination's copy.
func (r *Repository) Migrate(ctx context.Context, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if from == "" || to == "" || from == to {
		return nil
	}
	moves := []struct {
		src, dst string
		merge    func(dst, src string) (string, int, error)
	}{
		{storage.EntriesKey(from), storage.EntriesKey(to), mergeEntries},
		{storage.TrashKey(from), storage.TrashKey(to), mergeEntries},
		{storage.PendingKey(from), storage.PendingKey(to), mergeIDs},
	}
	for _, m := range moves {
		values, err := r.kv.MultiGet(ctx, m.src, m.dst)
		if err != nil {
			return fmt.Errorf("entries: migrate: %w", err)
		}
		value, ok := values[m.src]
		if !ok {
			continue
		}
		if existing, exists := values[m.dst]; exists {
			merged, added, err := m.merge(existing, value)
			if err != nil {
				return fmt.Errorf("entries: migrate %s: %w", m.src, err)
			}
			log.Warn().Str("from", m.src).Str("to", m.dst).Int("added", added).Msg("Migration target already has data, merged")
			value = merged
		}
		if err := r.kv.Set(ctx, m.dst, value); err != nil {
			return fmt.Errorf("entries: migrate: %w", err)
		}
		if err := r.kv.Remove(ctx, m.src); err != nil {
			return fmt.Errorf("entries: migrate: %w", err)
		}
	}
	if r.identity == from {
		r.identity = to
	}
	log.Debug().Str("from", from).Str("to", to).Msg("Migrated entry storage")
	return nil
}

func mergeEntries(dst, src string) (string, int, error) {
	return mergeJSON(dst, src, func(e diary.Entry) string { return e.ID })
}

func mergeIDs(dst, src string) (string, int, error) {
	return mergeJSON(dst, src, func(id string) string { return id })
}

// mergeJSON appends the elements of the JSON array src whose key is absent from dst.
func mergeJSON[T any](dst, src string, key func(T) string) (string, int, error) {
	var into, from []T
	if err := json.Unmarshal([]byte(dst), &into); err != nil {
		return "", 0, err
	}
	if err := json.Unmarshal([]byte(src), &from); err != nil {
		return "", 0, err
	}
	seen := make(map[string]struct{}, len(into))
	for _, v := range into {
		seen[key(v)] = struct{}{}
	}
	added := 0
	for _, v := range from {
		if _, ok := seen[key(v)]; ok {
			continue
		}
		seen[key(v)] = struct{}{}
		into = append(into, v)
		added++
	}
	if into == nil {
		into = []T{}
	}
	out, err := json.Marshal(into)
	if err != nil {
		return "", 0, err
	}
	return string(out), added, nil
}

// isPending reports whether id was written locally and never reached the server.
func (r *Repository) isPending(id string) bool {
	_, ok := r.pending[id]
	return ok
}

// syncEntry is sync for an operation on an existing entry. Entries the server has never
// seen are handled locally.
func (r *Repository) syncEntry(op, id string, call func(Remote) error) (bool, error) {
	if r.mode != ModeRemote && r.isPending(id) {
		return false, nil
	}
	return r.sync(op, call)
}

// sync runs call against the server when the mode and session allow it. It reports
// whether the server handled the operation; false with a nil error means the caller
// proceeds locally.
func (r *Repository) sync(op string, call func(Remote) error) (bool, error) {
	if r.mode == ModeLocal {
		return false, nil
	}
	if r.remote == nil || !r.remote.HasToken() {
		if r.mode == ModeRemote {
			return false, diary.ErrAuthRequired
		}
		return false, nil
	}
	err := call(r.remote)
	if err == nil {
		return true, nil
	}
	if r.mode == ModeHybrid && (errors.Is(err, diary.ErrNetwork) || errors.Is(err, diary.ErrAuthRequired)) {
		log.Warn().Err(err).Str("op", op).Msg("Server unavailable, using local storage")
		return false, nil
	}
	return false, err
}

// guard checks the preconditions shared by the lifecycle operations.
func (r *Repository) guard() error {
	if r.mode == ModeRemote && (r.remote == nil || !r.remote.HasToken()) {
		return diary.ErrAuthRequired
	}
	if !r.loaded {
		return ErrNotLoaded
	}
	return nil
}

// commit persists next and installs it. A local write failure is fatal unless the server
// already holds the change.
func (r *Repository) commit(ctx context.Context, next []diary.Entry, remote bool) error {
	if r.mode != ModeRemote {
		if err := r.write(ctx, r.identity, next); err != nil {
			if !remote {
				return err
			}
			log.Warn().Err(err).Str("identity", r.identity).Msg("Failed to mirror entries locally")
		}
	}
	r.entries = next
	return nil
}

func (r *Repository) readLocal(ctx context.Context, identity string) ([]diary.Entry, error) {
	stored, pending, found, err := r.readStored(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !found {
		var seeded []diary.Entry
		if identity == seedIdentity {
			seeded = SeedEntries()
		}
		if err := r.write(ctx, identity, seeded); err != nil {
			return nil, err
		}
		return seeded, nil
	}
	r.pending = pending
	return stored, nil
}

// readStored decodes the stored entries and pending ids of identity. found is false when
// neither entry list has been written yet.
func (r *Repository) readStored(ctx context.Context, identity string) ([]diary.Entry, map[string]struct{}, bool, error) {
	entriesKey, trashKey, pendingKey := storage.EntriesKey(identity), storage.TrashKey(identity), storage.PendingKey(identity)
	values, err := r.kv.MultiGet(ctx, entriesKey, trashKey, pendingKey)
	if err != nil {
		return nil, nil, false, fmt.Errorf("entries: read: %w", err)
	}
	rawActive, hasActive := values[entriesKey]
	rawTrash, hasTrash := values[trashKey]
	if !hasActive && !hasTrash {
		return nil, nil, false, nil
	}

	var active, trash []diary.Entry
	if hasActive {
		if err := json.Unmarshal([]byte(rawActive), &active); err != nil {
			return nil, nil, false, fmt.Errorf("entries: decode %s: %w", entriesKey, err)
		}
	}
	if hasTrash {
		if err := json.Unmarshal([]byte(rawTrash), &trash); err != nil {
			return nil, nil, false, fmt.Errorf("entries: decode %s: %w", trashKey, err)
		}
	}
	pending := map[string]struct{}{}
	if raw, ok := values[pendingKey]; ok {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, nil, false, fmt.Errorf("entries: decode %s: %w", pendingKey, err)
		}
		for _, id := range ids {
			pending[id] = struct{}{}
		}
	}

	out := make([]diary.Entry, 0, len(active)+len(trash))
	for _, e := range active {
		e.TrashedAt = nil
		out = append(out, e)
	}
	for _, e := range trash {
		if e.TrashedAt == nil {
			at := r.now().UTC()
			e.TrashedAt = &at
		}
		out = append(out, e)
	}
	return out, pending, true, nil
}

// write stores both views of entries and their pending ids under identity in one
// transaction.
func (r *Repository) write(ctx context.Context, identity string, entries []diary.Entry) error {
	active, err := json.Marshal(activeOf(entries))
	if err != nil {
		return fmt.Errorf("entries: encode: %w", err)
	}
	trash, err := json.Marshal(trashOf(entries))
	if err != nil {
		return fmt.Errorf("entries: encode: %w", err)
	}
	pendingIDs := make([]string, 0, len(r.pending))
	for _, e := range entries {
		if r.isPending(e.ID) {
			pendingIDs = append(pendingIDs, e.ID)
		}
	}
	pending, err := json.Marshal(pendingIDs)
	if err != nil {
		return fmt.Errorf("entries: encode: %w", err)
	}
	err = r.kv.MultiSet(ctx, map[string]string{
		storage.EntriesKey(identity): string(active),
		storage.TrashKey(identity):   string(trash),
		storage.PendingKey(identity): string(pending),
	})
	if err != nil {
		return fmt.Errorf("entries: write: %w", err)
	}
	return nil
}

func (r *Repository) indexOf(id string) int {
	for i, e := range r.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func activeOf(entries []diary.Entry) []diary.Entry {
	out := make([]diary.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsTrashed() {
			out = append(out, e)
		}
	}
	return out
}

func trashOf(entries []diary.Entry) []diary.Entry {
	out := make([]diary.Entry, 0)
	for _, e := range entries {
		if e.IsTrashed() {
			out = append(out, e)
		}
	}
	diary.SortRecentlyTrashedFirst(out)
	return out
}
