package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/ediary-backend/internal/database"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
)

// DiaryStore persists diary entries per user.
type DiaryStore interface {
	// ListActive returns the user's active entries, newest first.
	ListActive(ctx context.Context, userID string) ([]diary.Entry, error)
	// ListTrash returns the user's trashed entries, most recently trashed first.
	ListTrash(ctx context.Context, userID string) ([]diary.Entry, error)
	// Get returns one entry regardless of state, or diary.ErrNotFound.
	Get(ctx context.Context, userID, id string) (diary.Entry, error)
	// Create stores e and returns it with its assigned ID.
	Create(ctx context.Context, userID string, e diary.Entry) (diary.Entry, error)
	// Update overwrites the editable fields of an active entry.
	Update(ctx context.Context, userID, id string, e diary.Entry) (diary.Entry, error)
	// SoftDelete moves an active entry to the trash.
	SoftDelete(ctx context.Context, userID, id string, at time.Time) (diary.Entry, error)
	// Restore moves a trashed entry back to the active list.
	Restore(ctx context.Context, userID, id string, at time.Time) (diary.Entry, error)
	// Purge removes a trashed entry for good.
	Purge(ctx context.Context, userID, id string) error
	// EmptyTrash removes every trashed entry and reports how many went.
	EmptyTrash(ctx context.Context, userID string) (int64, error)
}

// MongoDiaryStore keeps entries in the diaries collection.
type MongoDiaryStore struct {
	coll *mongo.Collection
}

func NewMongoDiaryStore(db *mongo.Database) *MongoDiaryStore {
	return &MongoDiaryStore{coll: db.Collection(database.DiariesCollection)}
}

func activeFilter(userID string) bson.M {
	return bson.M{"user_id": userID, "deleted_at": nil}
}

func trashFilter(userID string) bson.M {
	return bson.M{"user_id": userID, "deleted_at": bson.M{"$ne": nil}}
}

// byID narrows base to a single document. Malformed IDs never match anything.
func byID(base bson.M, id string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	f := bson.M{"_id": oid}
	for k, v := range base {
		f[k] = v
	}
	return f, true
}

func (s *MongoDiaryStore) find(ctx context.Context, filter bson.M, sortKey string) ([]diary.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: sortKey, Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find diaries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.Diary
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode diaries: %w", err)
	}
	out := make([]diary.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Entry())
	}
	return out, nil
}

func (s *MongoDiaryStore) ListActive(ctx context.Context, userID string) ([]diary.Entry, error) {
	return s.find(ctx, activeFilter(userID), "created_at")
}

func (s *MongoDiaryStore) ListTrash(ctx context.Context, userID string) ([]diary.Entry, error) {
	return s.find(ctx, trashFilter(userID), "deleted_at")
}

func (s *MongoDiaryStore) Get(ctx context.Context, userID, id string) (diary.Entry, error) {
	filter, ok := byID(bson.M{"user_id": userID}, id)
	if !ok {
		return diary.Entry{}, diary.ErrNotFound
	}
	var doc models.Diary
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return diary.Entry{}, mapMongoErr(err)
	}
	return doc.Entry(), nil
}

func (s *MongoDiaryStore) Create(ctx context.Context, userID string, e diary.Entry) (diary.Entry, error) {
	doc := models.DiaryFromEntry(userID, e)
	doc.ID = primitive.NewObjectID()
	doc.DeletedAt = nil
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return diary.Entry{}, fmt.Errorf("insert diary: %w", err)
	}
	return doc.Entry(), nil
}

func (s *MongoDiaryStore) Update(ctx context.Context, userID, id string, e diary.Entry) (diary.Entry, error) {
	filter, ok := byID(activeFilter(userID), id)
	if !ok {
		return diary.Entry{}, diary.ErrNotFound
	}
	set := bson.M{
		"mood":       string(e.Mood),
		"title":      e.Title,
		"content":    e.Content,
		"image_uri":  e.ImageURI,
		"updated_at": e.UpdatedAt,
	}
	return s.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

func (s *MongoDiaryStore) SoftDelete(ctx context.Context, userID, id string, at time.Time) (diary.Entry, error) {
	filter, ok := byID(activeFilter(userID), id)
	if !ok {
		return diary.Entry{}, diary.ErrNotFound
	}
	return s.findOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"deleted_at": at, "updated_at": at}})
}

func (s *MongoDiaryStore) Restore(ctx context.Context, userID, id string, at time.Time) (diary.Entry, error) {
	filter, ok := byID(trashFilter(userID), id)
	if !ok {
		return diary.Entry{}, diary.ErrNotFound
	}
	return s.findOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"deleted_at": nil, "updated_at": at}})
}

func (s *MongoDiaryStore) Purge(ctx context.Context, userID, id string) error {
	filter, ok := byID(trashFilter(userID), id)
	if !ok {
		return diary.ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete diary: %w", err)
	}
	if res.DeletedCount == 0 {
		return diary.ErrNotFound
	}
	return nil
}

func (s *MongoDiaryStore) EmptyTrash(ctx context.Context, userID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, trashFilter(userID))
	if err != nil {
		return 0, fmt.Errorf("empty trash: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoDiaryStore) findOneAndUpdate(ctx context.Context, filter, update bson.M) (diary.Entry, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc models.Diary
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return diary.Entry{}, mapMongoErr(err)
	}
	return doc.Entry(), nil
}

func mapMongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return diary.ErrNotFound
	}
	return fmt.Errorf("mongo: %w", err)
}
