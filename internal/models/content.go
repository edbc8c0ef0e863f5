package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a community feed entry.
type Post struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title      string             `bson:"title,omitempty" json:"title,omitempty"`
	Content    string             `bson:"content" json:"content"`
	ImageURL   string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	UploadedBy string             `bson:"uploadedBy" json:"uploadedBy"`
	Role       string             `bson:"role" json:"role"`
	Flagged    bool               `bson:"flagged" json:"flagged"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy  string             `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

// Fact is a curated geology fact, geologist-managed.
type Fact struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	AddedBy   string             `bson:"addedBy" json:"addedBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Announcement is admin-published.
type Announcement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	CreatedBy string             `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Report is a user-filed moderation report against a post.
type Report struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID     string             `bson:"postId" json:"postId"`
	Reason     string             `bson:"reason" json:"reason"`
	ReportedBy string             `bson:"reportedBy" json:"reportedBy"`
	ReportedAt time.Time          `bson:"reportedAt" json:"reportedAt"`
	Status     string             `bson:"status" json:"status"`
	UpdatedAt  *time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Comment is an expert comment a geologist attaches to a post.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    string             `bson:"postId" json:"postId"`
	Text      string             `bson:"text" json:"text"`
	Author    string             `bson:"author" json:"author"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
