package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

// Diary is a diary entry document in MongoDB. DeletedAt is set while the entry sits in the trash.
type Diary struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Mood      string             `bson:"mood"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	ImageURI  string             `bson:"image_uri,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
	DeletedAt *time.Time         `bson:"deleted_at"`
}

// Entry converts the document to the shared entry model.
func (d Diary) Entry() diary.Entry {
	e := diary.Entry{
		ID:        d.ID.Hex(),
		Mood:      diary.Mood(d.Mood),
		Title:     d.Title,
		Content:   d.Content,
		ImageURI:  d.ImageURI,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.DeletedAt != nil {
		t := *d.DeletedAt
		e.TrashedAt = &t
	}
	return e
}

// DiaryFromEntry builds a document owned by userID. The entry ID is ignored; Mongo assigns one.
func DiaryFromEntry(userID string, e diary.Entry) Diary {
	return Diary{
		UserID:    userID,
		Mood:      string(e.Mood),
		Title:     e.Title,
		Content:   e.Content,
		ImageURI:  e.ImageURI,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		DeletedAt: e.TrashedAt,
	}
}
