package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rockquest/rockquest-backend/internal/database"
	"github.com/rockquest/rockquest-backend/internal/models"
)

// CounterStore tracks lifetime and day-bucketed progress counters.
// Implementations must increment with atomic adds; a read-then-write here
// loses updates under rapid duplicate requests.
type CounterStore interface {
	// Increment bumps the lifetime total for the action and the day bucket
	// (total plus per-category sub-count) for when's calendar day in the
	// reporting timezone. Returns the new lifetime total.
	Increment(ctx context.Context, userID string, action models.ActionType, category models.RockCategory, when time.Time) (int64, error)
	// Today returns the current day bucket, zero-valued if none exists yet.
	Today(ctx context.Context, userID string) (*models.DailyStats, error)
	// Bucket returns the bucket for an explicit date key, zero-valued if absent.
	Bucket(ctx context.Context, userID, date string) (*models.DailyStats, error)
	// Lifetime returns the running total for the action.
	Lifetime(ctx context.Context, userID string, action models.ActionType) (int64, error)
	// DayKey renders when as a bucket key in the reporting timezone.
	DayKey(when time.Time) string
}

// lifetimeCounters persists the per-user running totals behind atomic adds.
type lifetimeCounters interface {
	Add(ctx context.Context, userID, column string) (int64, error)
	Get(ctx context.Context, userID, column string) (int64, error)
}

// dayBuckets persists the per-day counter buckets with merge semantics.
type dayBuckets interface {
	Inc(ctx context.Context, userID, date string, inc bson.M) error
	Get(ctx context.Context, userID, date string) (*models.DailyStats, error)
}

type counterStore struct {
	lifetime lifetimeCounters
	buckets  dayBuckets
	loc      *time.Location
}

// NewCounterStore wires lifetime counters (Postgres user columns) and day
// buckets (daily_stats collection) behind one store.
func NewCounterStore(pg *sql.DB, db *mongo.Database, loc *time.Location) CounterStore {
	return &counterStore{
		lifetime: &postgresLifetime{pg: pg},
		buckets:  &mongoBuckets{col: db.Collection("daily_stats")},
		loc:      loc,
	}
}

// NewCounterStoreDefault builds a CounterStore over the package-level
// database connections.
func NewCounterStoreDefault(loc *time.Location) CounterStore {
	return NewCounterStore(database.PostgresDB, database.DB, loc)
}

func newCounterStore(lifetime lifetimeCounters, buckets dayBuckets, loc *time.Location) *counterStore {
	return &counterStore{lifetime: lifetime, buckets: buckets, loc: loc}
}

// DayKey computes the calendar-day bucket key for when in loc.
// All day boundaries use the one configured reporting timezone so completion
// state never shifts by a day between users in different regions.
func DayKey(when time.Time, loc *time.Location) string {
	return when.In(loc).Format("2006-01-02")
}

func (s *counterStore) DayKey(when time.Time) string {
	return DayKey(when, s.loc)
}

func lifetimeColumn(action models.ActionType) string {
	switch action {
	case models.ActionScan:
		return "total_scans"
	case models.ActionSave:
		return "total_saves"
	case models.ActionPost:
		return "total_posts"
	default:
		return ""
	}
}

// bucketIncrement builds the $inc document for one action. Scans also bump
// the per-category sub-count, including "byType.unknown" for labels outside
// the vocabulary.
func bucketIncrement(action models.ActionType, category models.RockCategory) (bson.M, error) {
	switch action {
	case models.ActionScan:
		return bson.M{"scans": 1, "byType." + string(category): 1}, nil
	case models.ActionSave:
		return bson.M{"saves": 1}, nil
	case models.ActionPost:
		return bson.M{"posts": 1}, nil
	case models.ActionViewFact:
		return bson.M{"factsViewed": 1}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", action)
	}
}

func (s *counterStore) Increment(ctx context.Context, userID string, action models.ActionType, category models.RockCategory, when time.Time) (int64, error) {
	inc, err := bucketIncrement(action, category)
	if err != nil {
		return 0, err
	}

	var total int64

	// Lifetime first: the returned total feeds the achievement check.
	// Fact views have no lifetime column; only the bucket records them.
	if col := lifetimeColumn(action); col != "" {
		total, err = s.lifetime.Add(ctx, userID, col)
		if err != nil {
			return 0, err
		}
	}

	return total, s.buckets.Inc(ctx, userID, s.DayKey(when), inc)
}

func (s *counterStore) Today(ctx context.Context, userID string) (*models.DailyStats, error) {
	return s.Bucket(ctx, userID, s.DayKey(time.Now()))
}

func (s *counterStore) Bucket(ctx context.Context, userID, date string) (*models.DailyStats, error) {
	return s.buckets.Get(ctx, userID, date)
}

func (s *counterStore) Lifetime(ctx context.Context, userID string, action models.ActionType) (int64, error) {
	col := lifetimeColumn(action)
	if col == "" {
		return 0, fmt.Errorf("action %q has no lifetime counter", action)
	}
	return s.lifetime.Get(ctx, userID, col)
}

// --- Postgres implementation ---

type postgresLifetime struct {
	pg *sql.DB
}

func (p *postgresLifetime) Add(ctx context.Context, userID, column string) (int64, error) {
	var total int64
	query := fmt.Sprintf(`
		UPDATE users SET %s = %s + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, column, column, column)
	if err := p.pg.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("increment %s: user %s not found", column, userID)
		}
		return 0, err
	}
	return total, nil
}

func (p *postgresLifetime) Get(ctx context.Context, userID, column string) (int64, error) {
	var total int64
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, column)
	err := p.pg.QueryRowContext(ctx, query, userID).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return total, err
}

// --- MongoDB implementation ---

type mongoBuckets struct {
	col *mongo.Collection
}

func (m *mongoBuckets) Inc(ctx context.Context, userID, date string, inc bson.M) error {
	filter := bson.M{"userId": userID, "date": date}
	update := bson.M{"$inc": inc, "$setOnInsert": filter}
	_, err := m.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (m *mongoBuckets) Get(ctx context.Context, userID, date string) (*models.DailyStats, error) {
	var stats models.DailyStats
	err := m.col.FindOne(ctx, bson.M{"userId": userID, "date": date}).Decode(&stats)
	if err == mongo.ErrNoDocuments {
		return &models.DailyStats{UserID: userID, Date: date}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
