package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rockquest/rockquest-backend/internal/database"
	"github.com/rockquest/rockquest-backend/internal/models"
)

// AchievementCatalog reads the static achievement definitions.
type AchievementCatalog interface {
	ByAction(ctx context.Context, action models.ActionType) ([]models.Achievement, error)
}

// UnlockStore persists achievement unlocks. Create must tolerate concurrent
// duplicate triggers: a second insert for the same (user, achievement) pair
// reports created=false instead of an error.
type UnlockStore interface {
	Create(ctx context.Context, unlock models.AchievementUnlock) (created bool, err error)
	ByUser(ctx context.Context, userID string) ([]models.AchievementUnlock, error)
}

// AchievementEvaluator awards achievements whose thresholds a user's running
// total has crossed.
type AchievementEvaluator struct {
	catalog  AchievementCatalog
	unlocks  UnlockStore
	notifier func(ctx context.Context, userID string, a models.Achievement)
}

func NewAchievementEvaluator(catalog AchievementCatalog, unlocks UnlockStore) *AchievementEvaluator {
	return &AchievementEvaluator{catalog: catalog, unlocks: unlocks}
}

// SetNotifier installs a best-effort callback invoked for each new unlock.
func (e *AchievementEvaluator) SetNotifier(fn func(ctx context.Context, userID string, a models.Achievement)) {
	e.notifier = fn
}

// CheckAndAward scans the catalog for the action type and persists an unlock
// for every definition whose threshold the total has reached. Idempotent:
// repeat calls with the same inputs award nothing new and return no error.
// Ordering across simultaneously crossed thresholds is unspecified.
func (e *AchievementEvaluator) CheckAndAward(ctx context.Context, userID string, action models.ActionType, total int64) ([]models.Achievement, error) {
	defs, err := e.catalog.ByAction(ctx, action)
	if err != nil {
		return nil, err
	}

	var awarded []models.Achievement
	for _, def := range defs {
		if def.Threshold > total {
			continue
		}
		created, err := e.unlocks.Create(ctx, models.AchievementUnlock{
			UserID:        userID,
			AchievementID: def.ID.Hex(),
			UnlockedAt:    time.Now().UTC(),
		})
		if err != nil {
			// The triggering action is already durable; a failed award is
			// backfilled on the next qualifying action.
			log.Printf("achievement award failed (user=%s achievement=%s): %v", userID, def.ID.Hex(), err)
			continue
		}
		if created {
			awarded = append(awarded, def)
			if e.notifier != nil {
				e.notifier(ctx, userID, def)
			}
		}
	}
	return awarded, nil
}

// --- MongoDB implementations ---

type mongoAchievementCatalog struct {
	col *mongo.Collection
}

func NewMongoAchievementCatalog() AchievementCatalog {
	return &mongoAchievementCatalog{col: database.DB.Collection("achievements")}
}

func (c *mongoAchievementCatalog) ByAction(ctx context.Context, action models.ActionType) ([]models.Achievement, error) {
	cursor, err := c.col.Find(ctx, bson.M{"actionType": action}, options.Find().SetSort(bson.M{"threshold": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var defs []models.Achievement
	if err := cursor.All(ctx, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

type mongoUnlockStore struct {
	col *mongo.Collection
}

func NewMongoUnlockStore() UnlockStore {
	return &mongoUnlockStore{col: database.DB.Collection("achievement_unlocks")}
}

// Create inserts the unlock; the unique (userId, achievementId) index turns a
// concurrent duplicate into a duplicate-key error, reported as created=false.
func (s *mongoUnlockStore) Create(ctx context.Context, unlock models.AchievementUnlock) (bool, error) {
	_, err := s.col.InsertOne(ctx, unlock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *mongoUnlockStore) ByUser(ctx context.Context, userID string) ([]models.AchievementUnlock, error) {
	cursor, err := s.col.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var unlocks []models.AchievementUnlock
	if err := cursor.All(ctx, &unlocks); err != nil {
		return nil, err
	}
	return unlocks, nil
}
