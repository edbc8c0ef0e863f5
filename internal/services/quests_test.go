package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rockquest/rockquest-backend/internal/models"
)

type fakeQuestCatalog struct {
	quests []models.Quest
}

func (c *fakeQuestCatalog) ForDate(ctx context.Context, date string) ([]models.Quest, error) {
	return c.quests, nil
}

func (c *fakeQuestCatalog) Upcoming(ctx context.Context, afterDate string, limit int64) ([]models.Quest, error) {
	return nil, nil
}

type fakeCompletionStore struct {
	done map[string]bool
}

func newFakeCompletionStore() *fakeCompletionStore {
	return &fakeCompletionStore{done: make(map[string]bool)}
}

func (s *fakeCompletionStore) ForDate(ctx context.Context, userID, date string) (map[string]bool, error) {
	out := make(map[string]bool, len(s.done))
	for k, v := range s.done {
		out[k] = v
	}
	return out, nil
}

func (s *fakeCompletionStore) MarkComplete(ctx context.Context, userID, date, questID string) error {
	s.done[questID] = true
	return nil
}

type fakeCounterStore struct {
	bucket *models.DailyStats
}

func (s *fakeCounterStore) Increment(ctx context.Context, userID string, action models.ActionType, category models.RockCategory, when time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeCounterStore) Today(ctx context.Context, userID string) (*models.DailyStats, error) {
	return s.bucket, nil
}

func (s *fakeCounterStore) Bucket(ctx context.Context, userID, date string) (*models.DailyStats, error) {
	return s.bucket, nil
}

func (s *fakeCounterStore) Lifetime(ctx context.Context, userID string, action models.ActionType) (int64, error) {
	return 0, nil
}

func (s *fakeCounterStore) DayKey(when time.Time) string {
	return DayKey(when, time.UTC)
}

func quest(title, predicateKey string) models.Quest {
	return models.Quest{
		ID:           primitive.NewObjectID(),
		Title:        title,
		PredicateKey: predicateKey,
	}
}

func TestComputeTodayEvaluatesPredicates(t *testing.T) {
	quests := []models.Quest{
		quest("Scan an igneous rock", PredicateScanIgneous),
		quest("Scan 3 rocks", PredicateScanAny3),
		quest("Save a rock", PredicateSave1),
	}
	bucket := &models.DailyStats{
		Scans:  2,
		ByType: map[models.RockCategory]int64{models.CategoryIgneous: 1},
		Saves:  0,
	}
	eval := NewQuestEvaluator(&fakeQuestCatalog{quests: quests}, newFakeCompletionStore(), &fakeCounterStore{bucket: bucket}, time.UTC)

	_, statuses, err := eval.ComputeToday(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	require.True(t, statuses[0].Completed)  // igneous scanned
	require.False(t, statuses[1].Completed) // only 2 of 3 scans
	require.False(t, statuses[2].Completed) // nothing saved
}

func TestComputeTodayNeverFlipsBack(t *testing.T) {
	q := quest("Scan 3 rocks", PredicateScanAny3)
	completions := newFakeCompletionStore()
	counters := &fakeCounterStore{bucket: &models.DailyStats{Scans: 3}}
	eval := NewQuestEvaluator(&fakeQuestCatalog{quests: []models.Quest{q}}, completions, counters, time.UTC)

	_, statuses, err := eval.ComputeToday(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, statuses[0].Completed)

	// The persisted completion wins even if the bucket no longer satisfies
	// the predicate.
	counters.bucket = &models.DailyStats{Scans: 0}
	_, statuses, err = eval.ComputeToday(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, statuses[0].Completed)
}

func TestComputeTodayPersistsNewCompletions(t *testing.T) {
	q := quest("Save a rock", PredicateSave1)
	completions := newFakeCompletionStore()
	eval := NewQuestEvaluator(&fakeQuestCatalog{quests: []models.Quest{q}}, completions, &fakeCounterStore{bucket: &models.DailyStats{Saves: 1}}, time.UTC)

	_, _, err := eval.ComputeToday(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, completions.done[q.ID.Hex()])
}

func TestScanAnyThreeCountsMixedCategories(t *testing.T) {
	q := quest("Scan any 3 rocks", PredicateScanAny3)
	bucket := &models.DailyStats{
		Scans: 3,
		ByType: map[models.RockCategory]int64{
			models.CategoryIgneous:     2,
			models.CategorySedimentary: 1,
		},
	}
	eval := NewQuestEvaluator(&fakeQuestCatalog{quests: []models.Quest{q}}, newFakeCompletionStore(), &fakeCounterStore{bucket: bucket}, time.UTC)

	_, statuses, err := eval.ComputeToday(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, statuses[0].Completed)
}

func TestComputeTodayFallsBackToTitleMatching(t *testing.T) {
	quests := []models.Quest{
		quest("Scan a sedimentary rock today!", ""),
		quest("Save 3 rocks to your collection", ""),
	}
	bucket := &models.DailyStats{
		Scans:  1,
		ByType: map[models.RockCategory]int64{models.CategorySedimentary: 1},
		Saves:  2,
	}
	eval := NewQuestEvaluator(&fakeQuestCatalog{quests: quests}, newFakeCompletionStore(), &fakeCounterStore{bucket: bucket}, time.UTC)

	_, statuses, err := eval.ComputeToday(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, statuses[0].Completed)
	require.False(t, statuses[1].Completed)
}

func TestPredicateKeyFromTitle(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Scan an igneous rock", PredicateScanIgneous},
		{"Scan a SEDIMENTARY rock", PredicateScanSedimentary},
		{"Find a metamorphic rock", PredicateScanMetamorphic},
		{"Scan any 3 rocks", PredicateScanAny3},
		{"Scan 3 rocks", PredicateScanAny3},
		{"Save 3 rocks", PredicateSave3},
		{"Save a rock", PredicateSave1},
		{"Share a post", PredicatePost1},
		{"Read a rock fact", PredicateViewFact},
		{"Do something unrelated", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, PredicateKeyFromTitle(tc.title), "title %q", tc.title)
	}
}

func TestKnownPredicateKey(t *testing.T) {
	require.True(t, KnownPredicateKey(PredicateScanAny3))
	require.False(t, KnownPredicateKey("scan_any_99"))
	require.False(t, KnownPredicateKey(""))
}

func TestPredicatesHandleEmptyBucket(t *testing.T) {
	// A user with no activity today gets a zero-valued bucket; every
	// predicate must report incomplete instead of panicking.
	for key, pred := range questPredicates {
		require.False(t, pred(&models.DailyStats{}), "predicate %s", key)
	}
}
