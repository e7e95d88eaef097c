package entries

import (
	"context"
	"slices"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

// Add validates d and inserts the new entry at the head of the active view.
func (r *Repository) Add(ctx context.Context, d diary.Draft) (diary.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return diary.Entry{}, err
	}
	if _, _, err := d.Normalize(); err != nil {
		return diary.Entry{}, err
	}

	var created diary.Entry
	remote, err := r.sync("add", func(c Remote) error {
		var err error
		created, err = c.CreateDiary(ctx, d)
		return err
	})
	if err != nil {
		return diary.Entry{}, err
	}
	if !remote {
		created, err = diary.NewEntry(d, r.now().UTC(), r.newID)
		if err != nil {
			return diary.Entry{}, err
		}
		if r.mode != ModeRemote {
			r.pending[created.ID] = struct{}{}
		}
	}

	next := append([]diary.Entry{created}, r.entries...)
	if err := r.commit(ctx, next, remote); err != nil {
		return diary.Entry{}, err
	}
	return created, nil
}

// Update merges p into the active entry id. Trashed entries are not editable.
func (r *Repository) Update(ctx context.Context, id string, p diary.Patch) (diary.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return diary.Entry{}, err
	}
	i := r.indexOf(id)
	if i < 0 || r.entries[i].IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	if p.Empty() {
		return r.entries[i], nil
	}
	updated, err := p.Apply(r.entries[i], r.now().UTC())
	if err != nil {
		return diary.Entry{}, err
	}

	remote, err := r.syncEntry("update", id, func(c Remote) error {
		res, err := c.UpdateDiary(ctx, id, p)
		if err == nil {
			updated = res
		}
		return err
	})
	if err != nil {
		return diary.Entry{}, err
	}

	next := slices.Clone(r.entries)
	next[i] = updated
	if err := r.commit(ctx, next, remote); err != nil {
		return diary.Entry{}, err
	}
	return updated, nil
}

// SoftDelete moves the active entry id to the trash.
func (r *Repository) SoftDelete(ctx context.Context, id string) (diary.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return diary.Entry{}, err
	}
	i := r.indexOf(id)
	if i < 0 || r.entries[i].IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	at := r.now().UTC()
	trashed := r.entries[i]
	trashed.TrashedAt = &at

	remote, err := r.syncEntry("trash", id, func(c Remote) error {
		res, err := c.TrashDiary(ctx, id)
		if err == nil {
			if res.TrashedAt == nil {
				res.TrashedAt = &at
			}
			trashed = res
		}
		return err
	})
	if err != nil {
		return diary.Entry{}, err
	}

	next := slices.Clone(r.entries)
	next[i] = trashed
	if err := r.commit(ctx, next, remote); err != nil {
		return diary.Entry{}, err
	}
	return trashed, nil
}

// Recover returns the trashed entry id to the active view, placed by creation time.
func (r *Repository) Recover(ctx context.Context, id string) (diary.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return diary.Entry{}, err
	}
	i := r.indexOf(id)
	if i < 0 || !r.entries[i].IsTrashed() {
		return diary.Entry{}, diary.ErrNotFound
	}
	restored := r.entries[i]
	restored.TrashedAt = nil

	remote, err := r.syncEntry("restore", id, func(c Remote) error {
		res, err := c.RestoreDiary(ctx, id)
		if err == nil {
			res.TrashedAt = nil
			restored = res
		}
		return err
	})
	if err != nil {
		return diary.Entry{}, err
	}

	next := slices.Delete(slices.Clone(r.entries), i, i+1)
	next = insertByCreated(next, restored)
	if err := r.commit(ctx, next, remote); err != nil {
		return diary.Entry{}, err
	}
	return restored, nil
}

// insertByCreated places e before the first active entry created earlier than it.
func insertByCreated(entries []diary.Entry, e diary.Entry) []diary.Entry {
	at := len(entries)
	for j, other := range entries {
		if !other.IsTrashed() && other.CreatedAt.Before(e.CreatedAt) {
			at = j
			break
		}
	}
	return slices.Insert(entries, at, e)
}

// PermanentlyDelete removes the trashed entry id for good.
func (r *Repository) PermanentlyDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return err
	}
	i := r.indexOf(id)
	if i < 0 || !r.entries[i].IsTrashed() {
		return diary.ErrNotFound
	}

	remote, err := r.syncEntry("purge", id, func(c Remote) error {
		return c.PurgeDiary(ctx, id)
	})
	if err != nil {
		return err
	}

	next := slices.Delete(slices.Clone(r.entries), i, i+1)
	return r.commit(ctx, next, remote)
}

// EmptyTrash permanently deletes every trashed entry, on the server too when a session
// exists. It returns the number of entries removed.
func (r *Repository) EmptyTrash(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return 0, err
	}
	next := activeOf(r.entries)
	removed := len(r.entries) - len(next)

	remote, err := r.sync("empty trash", func(c Remote) error {
		n, err := c.EmptyTrash(ctx)
		if err == nil {
			removed = int(n)
		}
		return err
	})
	if err != nil {
		return 0, err
	}

	if err := r.commit(ctx, next, remote); err != nil {
		return 0, err
	}
	return removed, nil
}
