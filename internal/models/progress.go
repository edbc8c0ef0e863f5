package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DailyStats is the per-user, per-calendar-day counter bucket. Date is a
// YYYY-MM-DD key in the single global reporting timezone. Buckets are created
// lazily by $inc upserts and kept as history.
type DailyStats struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"-"`
	UserID      string                 `bson:"userId" json:"userId"`
	Date        string                 `bson:"date" json:"date"`
	Scans       int64                  `bson:"scans" json:"count"`
	ByType      map[RockCategory]int64 `bson:"byType" json:"byType"`
	Saves       int64                  `bson:"saves" json:"saves"`
	Posts       int64                  `bson:"posts" json:"posts"`
	FactsViewed int64                  `bson:"factsViewed" json:"factsViewed"`
}

// TypeCount returns the per-category scan count, zero when absent.
func (d *DailyStats) TypeCount(c RockCategory) int64 {
	if d == nil || d.ByType == nil {
		return 0
	}
	return d.ByType[c]
}

// Achievement is a static catalog entry, admin-managed.
type Achievement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Action    ActionType         `bson:"actionType" json:"actionType"`
	Threshold int64              `bson:"threshold" json:"threshold"`
	Badge     string             `bson:"badge,omitempty" json:"badge,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// AchievementUnlock records that a user permanently earned a badge.
// At most one record per (user, achievement); never revoked.
type AchievementUnlock struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID        string             `bson:"userId" json:"userId"`
	AchievementID string             `bson:"achievementId" json:"achievementId"`
	UnlockedAt    time.Time          `bson:"unlockedAt" json:"unlockedAt"`
}

// Quest is a daily quest catalog entry. PredicateKey selects one of the fixed
// completion predicates; blank keys fall back to title normalization for
// legacy catalog rows.
type Quest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	PredicateKey string             `bson:"predicateKey,omitempty" json:"predicateKey,omitempty"`
	Date         string             `bson:"date" json:"date"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// QuestCompletion marks a quest satisfied for a user on a given day.
// Upsert-only; a quest is never marked incomplete after completing.
type QuestCompletion struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID      string             `bson:"userId" json:"userId"`
	Date        string             `bson:"date" json:"date"`
	QuestID     string             `bson:"questId" json:"questId"`
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"`
}

// ScanEvent is an immutable log entry of one classification result.
type ScanEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"userId" json:"userId"`
	RawLabel   string             `bson:"rawLabel" json:"rawLabel"`
	Category   RockCategory       `bson:"category" json:"category"`
	Confidence float64            `bson:"confidence" json:"confidence"`
	ImageURL   string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Accepted   bool               `bson:"accepted" json:"accepted"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
