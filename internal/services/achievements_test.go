package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rockquest/rockquest-backend/internal/models"
)

type fakeCatalog struct {
	defs []models.Achievement
}

func (c *fakeCatalog) ByAction(ctx context.Context, action models.ActionType) ([]models.Achievement, error) {
	var out []models.Achievement
	for _, d := range c.defs {
		if d.Action == action {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeUnlockStore struct {
	unlocks map[string]models.AchievementUnlock
}

func newFakeUnlockStore() *fakeUnlockStore {
	return &fakeUnlockStore{unlocks: make(map[string]models.AchievementUnlock)}
}

func (s *fakeUnlockStore) Create(ctx context.Context, u models.AchievementUnlock) (bool, error) {
	key := u.UserID + "/" + u.AchievementID
	if _, exists := s.unlocks[key]; exists {
		return false, nil
	}
	s.unlocks[key] = u
	return true, nil
}

func (s *fakeUnlockStore) ByUser(ctx context.Context, userID string) ([]models.AchievementUnlock, error) {
	var out []models.AchievementUnlock
	for _, u := range s.unlocks {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out, nil
}

func saveAchievement(title string, threshold int64) models.Achievement {
	return models.Achievement{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Action:    models.ActionSave,
		Threshold: threshold,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCheckAndAwardCrossesThreshold(t *testing.T) {
	catalog := &fakeCatalog{defs: []models.Achievement{
		saveAchievement("First Save", 1),
		saveAchievement("Collector", 3),
	}}
	store := newFakeUnlockStore()
	eval := NewAchievementEvaluator(catalog, store)

	awarded, err := eval.CheckAndAward(context.Background(), "user-1", models.ActionSave, 1)
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	require.Equal(t, "First Save", awarded[0].Title)

	// Second save crosses nothing new.
	awarded, err = eval.CheckAndAward(context.Background(), "user-1", models.ActionSave, 2)
	require.NoError(t, err)
	require.Empty(t, awarded)

	// Third save crosses the Collector threshold only; First Save is not
	// re-awarded even though 3 >= 1.
	awarded, err = eval.CheckAndAward(context.Background(), "user-1", models.ActionSave, 3)
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	require.Equal(t, "Collector", awarded[0].Title)

	unlocks, err := store.ByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, unlocks, 2)
}

func TestCheckAndAwardIsIdempotent(t *testing.T) {
	catalog := &fakeCatalog{defs: []models.Achievement{saveAchievement("First Save", 1)}}
	store := newFakeUnlockStore()
	eval := NewAchievementEvaluator(catalog, store)

	awarded, err := eval.CheckAndAward(context.Background(), "user-1", models.ActionSave, 5)
	require.NoError(t, err)
	require.Len(t, awarded, 1)

	// Replaying the same total awards nothing and returns no error.
	awarded, err = eval.CheckAndAward(context.Background(), "user-1", models.ActionSave, 5)
	require.NoError(t, err)
	require.Empty(t, awarded)
}

func TestCheckAndAwardIgnoresOtherActions(t *testing.T) {
	catalog := &fakeCatalog{defs: []models.Achievement{
		saveAchievement("First Save", 1),
		{ID: primitive.NewObjectID(), Title: "First Scan", Action: models.ActionScan, Threshold: 1},
	}}
	store := newFakeUnlockStore()
	eval := NewAchievementEvaluator(catalog, store)

	awarded, err := eval.CheckAndAward(context.Background(), "user-1", models.ActionScan, 10)
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	require.Equal(t, "First Scan", awarded[0].Title)
}

func TestCheckAndAwardNotifiesNewUnlocksOnly(t *testing.T) {
	catalog := &fakeCatalog{defs: []models.Achievement{saveAchievement("First Save", 1)}}
	store := newFakeUnlockStore()
	eval := NewAchievementEvaluator(catalog, store)

	var notified []string
	eval.SetNotifier(func(ctx context.Context, userID string, a models.Achievement) {
		notified = append(notified, a.Title)
	})

	_, err := eval.CheckAndAward(context.Background(), "user-1", models.ActionSave, 1)
	require.NoError(t, err)
	_, err = eval.CheckAndAward(context.Background(), "user-1", models.ActionSave, 2)
	require.NoError(t, err)

	require.Equal(t, []string{"First Save"}, notified)
}
