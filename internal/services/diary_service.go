package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/calendar"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

// DiaryService implements the diary lifecycle on top of a DiaryStore, keeping the
// listing cache and the event feed in step with every mutation.
type DiaryService struct {
	store  DiaryStore
	cache  ListCache
	events EventPublisher
	images ImageStore
	now    func() time.Time
}

type DiaryOption func(*DiaryService)

func WithListCache(c ListCache) DiaryOption      { return func(s *DiaryService) { s.cache = c } }
func WithEvents(p EventPublisher) DiaryOption    { return func(s *DiaryService) { s.events = p } }
func WithImageStore(i ImageStore) DiaryOption    { return func(s *DiaryService) { s.images = i } }
func WithClock(now func() time.Time) DiaryOption { return func(s *DiaryService) { s.now = now } }

func NewDiaryService(store DiaryStore, opts ...DiaryOption) *DiaryService {
	s := &DiaryService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns active entries, newest first, optionally filtered by query.
func (s *DiaryService) List(ctx context.Context, userID, query string) ([]diary.Entry, error) {
	entries, err := s.listing(ctx, userID, ViewActive, s.store.ListActive)
	if err != nil {
		return nil, err
	}
	if query != "" {
		entries = diary.Search(entries, query)
	}
	return entries, nil
}

// Trash returns trashed entries, most recently trashed first.
func (s *DiaryService) Trash(ctx context.Context, userID string) ([]diary.Entry, error) {
	return s.listing(ctx, userID, ViewTrash, s.store.ListTrash)
}

func (s *DiaryService) listing(ctx context.Context, userID, view string, load func(context.Context, string) ([]diary.Entry, error)) ([]diary.Entry, error) {
	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx, userID, view); ok {
			return entries, nil
		}
	}
	entries, err := load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, view, entries)
	}
	return entries, nil
}

func (s *DiaryService) Get(ctx context.Context, userID, id string) (diary.Entry, error) {
	return s.store.Get(ctx, userID, id)
}

// Create validates the draft and stores a new active entry. Client-supplied IDs and
// timestamps are ignored.
func (s *DiaryService) Create(ctx context.Context, userID string, d diary.Draft) (diary.Entry, error) {
	d.ID = ""
	d.CreatedAt = time.Time{}
	e, err := diary.NewEntry(d, s.now().UTC(), func() string { return "" })
	if err != nil {
		return diary.Entry{}, err
	}
	if e.ImageURI, err = s.resolveImage(ctx, e.ImageURI); err != nil {
		return diary.Entry{}, err
	}

	created, err := s.store.Create(ctx, userID, e)
	if err != nil {
		return diary.Entry{}, err
	}
	s.changed(ctx, userID, EventCreated, created)
	return created, nil
}

// Update patches an active entry.
func (s *DiaryService) Update(ctx context.Context, userID, id string, p diary.Patch) (diary.Entry, error) {
	current, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return diary.Entry{}, err
	}
	if current.IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	next, err := p.Apply(current, s.now().UTC())
	if err != nil {
		return diary.Entry{}, err
	}
	if p.ImageURI != nil {
		if next.ImageURI, err = s.resolveImage(ctx, next.ImageURI); err != nil {
			return diary.Entry{}, err
		}
	}

	updated, err := s.store.Update(ctx, userID, id, next)
	if err != nil {
		return diary.Entry{}, err
	}
	s.changed(ctx, userID, EventUpdated, updated)
	return updated, nil
}

// SoftDelete moves an active entry to the trash.
func (s *DiaryService) SoftDelete(ctx context.Context, userID, id string) (diary.Entry, error) {
	e, err := s.store.SoftDelete(ctx, userID, id, s.now().UTC())
	if err != nil {
		return diary.Entry{}, err
	}
	s.changed(ctx, userID, EventTrashed, e)
	return e, nil
}

// Restore moves a trashed entry back to the active list.
func (s *DiaryService) Restore(ctx context.Context, userID, id string) (diary.Entry, error) {
	e, err := s.store.Restore(ctx, userID, id, s.now().UTC())
	if err != nil {
		return diary.Entry{}, err
	}
	s.changed(ctx, userID, EventRestored, e)
	return e, nil
}

// Purge permanently deletes a trashed entry.
func (s *DiaryService) Purge(ctx context.Context, userID, id string) error {
	if err := s.store.Purge(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, EventPurged, diary.Entry{ID: id})
	return nil
}

// EmptyTrash permanently deletes every trashed entry.
func (s *DiaryService) EmptyTrash(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.EmptyTrash(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.changed(ctx, userID, EventTrashEmptied, diary.Entry{})
	return n, nil
}

// Stats summarizes active entries in loc.
func (s *DiaryService) Stats(ctx context.Context, userID string, loc *time.Location) (calendar.Stats, error) {
	entries, err := s.List(ctx, userID, "")
	if err != nil {
		return calendar.Stats{}, err
	}
	return calendar.Summarize(entries, s.now().In(loc)), nil
}

// Month lays out the month grid for month, marking days with active entries.
func (s *DiaryService) Month(ctx context.Context, userID string, month time.Time) ([]calendar.Cell, error) {
	entries, err := s.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	loc := month.Location()
	return calendar.MonthGrid(month, time.Time{}, s.now().In(loc), calendar.GroupByDay(entries, loc)), nil
}

func (s *DiaryService) resolveImage(ctx context.Context, uri string) (string, error) {
	if s.images == nil || !IsDataURI(uri) {
		return uri, nil
	}
	data, contentType, err := DecodeDataURI(uri)
	if err != nil {
		return "", &diary.ValidationError{Field: "imageUri", Message: err.Error()}
	}
	url, err := s.images.Upload(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

// changed drops cached listings and announces the mutation. Neither step fails the request.
func (s *DiaryService) changed(ctx context.Context, userID, eventType string, e diary.Entry) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	if s.events == nil {
		return
	}
	evt := DiaryEvent{Type: eventType, UserID: userID, EntryID: e.ID, Timestamp: s.now().UTC()}
	if e.ID != "" && eventType != EventPurged {
		evt.Entry = &e
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("type", eventType).Msg("failed to publish diary event")
	}
}
