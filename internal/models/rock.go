package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rock is a collection entry owned by a single player. Verification fields
// are driven by geologist moderation only.
type Rock struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Type           RockCategory       `bson:"type,omitempty" json:"type,omitempty"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL       string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Lat            *float64           `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng            *float64           `bson:"lng,omitempty" json:"lng,omitempty"`
	Confidence     *float64           `bson:"confidence,omitempty" json:"confidence,omitempty"`
	UploadedBy     string             `bson:"uploadedBy" json:"uploadedBy"`
	Verified       bool               `bson:"verified" json:"verified"`
	VerifiedBy     string             `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	VerifiedAt     *time.Time         `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	RejectedReason string             `bson:"rejectedReason,omitempty" json:"rejectedReason,omitempty"`
	RejectedAt     *time.Time         `bson:"rejectedAt,omitempty" json:"rejectedAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
