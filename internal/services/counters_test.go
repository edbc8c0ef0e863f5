package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/rockquest/rockquest-backend/internal/models"
)

type fakeLifetimeCounters struct {
	totals map[string]int64
	adds   []string
}

func newFakeLifetimeCounters() *fakeLifetimeCounters {
	return &fakeLifetimeCounters{totals: make(map[string]int64)}
}

func (f *fakeLifetimeCounters) Add(ctx context.Context, userID, column string) (int64, error) {
	f.adds = append(f.adds, column)
	f.totals[userID+"/"+column]++
	return f.totals[userID+"/"+column], nil
}

func (f *fakeLifetimeCounters) Get(ctx context.Context, userID, column string) (int64, error) {
	return f.totals[userID+"/"+column], nil
}

type fakeDayBuckets struct {
	incs    []bson.M
	buckets map[string]*models.DailyStats
}

func newFakeDayBuckets() *fakeDayBuckets {
	return &fakeDayBuckets{buckets: make(map[string]*models.DailyStats)}
}

func (f *fakeDayBuckets) Inc(ctx context.Context, userID, date string, inc bson.M) error {
	f.incs = append(f.incs, inc)
	key := userID + "/" + date
	b, ok := f.buckets[key]
	if !ok {
		b = &models.DailyStats{UserID: userID, Date: date, ByType: map[models.RockCategory]int64{}}
		f.buckets[key] = b
	}
	for field, v := range inc {
		n := int64(v.(int))
		switch field {
		case "scans":
			b.Scans += n
		case "saves":
			b.Saves += n
		case "posts":
			b.Posts += n
		case "factsViewed":
			b.FactsViewed += n
		default: // byType.<category>
			b.ByType[models.RockCategory(field[len("byType."):])] += n
		}
	}
	return nil
}

func (f *fakeDayBuckets) Get(ctx context.Context, userID, date string) (*models.DailyStats, error) {
	if b, ok := f.buckets[userID+"/"+date]; ok {
		return b, nil
	}
	return &models.DailyStats{UserID: userID, Date: date}, nil
}

func TestIncrementAccumulatesLifetimeAndBucket(t *testing.T) {
	lifetime := newFakeLifetimeCounters()
	buckets := newFakeDayBuckets()
	store := newCounterStore(lifetime, buckets, time.UTC)

	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// N accepted same-category scans land as lifetime N and byType N.
	for i := int64(1); i <= 3; i++ {
		total, err := store.Increment(context.Background(), "user-1", models.ActionScan, models.CategoryIgneous, when)
		require.NoError(t, err)
		require.Equal(t, i, total)
	}

	bucket, err := store.Bucket(context.Background(), "user-1", "2025-03-01")
	require.NoError(t, err)
	require.EqualValues(t, 3, bucket.Scans)
	require.EqualValues(t, 3, bucket.TypeCount(models.CategoryIgneous))

	lifetimeTotal, err := store.Lifetime(context.Background(), "user-1", models.ActionScan)
	require.NoError(t, err)
	require.EqualValues(t, 3, lifetimeTotal)
}

func TestIncrementSaveSequenceReturnsRunningTotal(t *testing.T) {
	store := newCounterStore(newFakeLifetimeCounters(), newFakeDayBuckets(), time.UTC)

	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var totals []int64
	for i := 0; i < 3; i++ {
		total, err := store.Increment(context.Background(), "user-1", models.ActionSave, "", when)
		require.NoError(t, err)
		totals = append(totals, total)
	}
	require.Equal(t, []int64{1, 2, 3}, totals)
}

func TestIncrementScanBucketsUnknownCategory(t *testing.T) {
	buckets := newFakeDayBuckets()
	store := newCounterStore(newFakeLifetimeCounters(), buckets, time.UTC)

	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := store.Increment(context.Background(), "user-1", models.ActionScan, models.CategoryUnknown, when)
	require.NoError(t, err)

	require.Len(t, buckets.incs, 1)
	require.Contains(t, buckets.incs[0], "byType.unknown")

	bucket, err := store.Bucket(context.Background(), "user-1", "2025-03-01")
	require.NoError(t, err)
	require.EqualValues(t, 1, bucket.TypeCount(models.CategoryUnknown))
}

func TestIncrementFactViewIsBucketOnly(t *testing.T) {
	lifetime := newFakeLifetimeCounters()
	buckets := newFakeDayBuckets()
	store := newCounterStore(lifetime, buckets, time.UTC)

	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	total, err := store.Increment(context.Background(), "user-1", models.ActionViewFact, "", when)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, lifetime.adds)

	bucket, err := store.Bucket(context.Background(), "user-1", "2025-03-01")
	require.NoError(t, err)
	require.EqualValues(t, 1, bucket.FactsViewed)
}

func TestIncrementRejectsUnknownAction(t *testing.T) {
	lifetime := newFakeLifetimeCounters()
	store := newCounterStore(lifetime, newFakeDayBuckets(), time.UTC)

	_, err := store.Increment(context.Background(), "user-1", models.ActionType("dance"), "", time.Now())
	require.Error(t, err)
	require.Empty(t, lifetime.adds)
}

func TestIncrementUsesReportingTimezoneForBucketDate(t *testing.T) {
	sg, err := time.LoadLocation("Asia/Singapore")
	require.NoError(t, err)

	buckets := newFakeDayBuckets()
	store := newCounterStore(newFakeLifetimeCounters(), buckets, sg)

	// 23:30 UTC on the 1st is already the 2nd in Singapore.
	when := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	_, err = store.Increment(context.Background(), "user-1", models.ActionScan, models.CategoryIgneous, when)
	require.NoError(t, err)

	bucket, err := store.Bucket(context.Background(), "user-1", "2025-03-02")
	require.NoError(t, err)
	require.EqualValues(t, 1, bucket.Scans)
}

func TestDayKeyUsesReportingTimezone(t *testing.T) {
	sg, err := time.LoadLocation("Asia/Singapore")
	require.NoError(t, err)

	// 23:30 UTC on the 1st is already the 2nd in Singapore (UTC+8).
	when := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "2025-03-02", DayKey(when, sg))
	require.Equal(t, "2025-03-01", DayKey(when, time.UTC))
}

func TestDayKeyIsStableWithinADay(t *testing.T) {
	sg, err := time.LoadLocation("Asia/Singapore")
	require.NoError(t, err)

	start := time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC) // 2025-03-02 00:00 SGT
	end := start.Add(24*time.Hour - time.Second)          // 2025-03-02 23:59:59 SGT
	require.Equal(t, DayKey(start, sg), DayKey(end, sg))
	require.Equal(t, "2025-03-02", DayKey(start, sg))
}

func TestLifetimeColumnMapping(t *testing.T) {
	cases := map[models.ActionType]string{
		models.ActionScan: "total_scans",
		models.ActionSave: "total_saves",
		models.ActionPost: "total_posts",
	}
	for action, want := range cases {
		require.Equal(t, want, lifetimeColumn(action), "action %s", action)
	}

	// Fact views are bucket-only; there is no lifetime column to bump.
	require.Empty(t, lifetimeColumn(models.ActionViewFact))
}
