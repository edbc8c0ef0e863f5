package services

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rockquest/rockquest-backend/internal/database"
	"github.com/rockquest/rockquest-backend/internal/models"
)

// Predicate keys a quest definition can carry.
const (
	PredicateScanIgneous     = "scan_igneous_1"
	PredicateScanSedimentary = "scan_sedimentary_1"
	PredicateScanMetamorphic = "scan_metamorphic_1"
	PredicateScanAny3        = "scan_any_3"
	PredicateSave1           = "save_1"
	PredicateSave3           = "save_3"
	PredicatePost1           = "post_1"
	PredicateViewFact        = "view_fact"
)

// questPredicates is the fixed completion-check table, evaluated against
// today's counter bucket.
var questPredicates = map[string]func(*models.DailyStats) bool{
	PredicateScanIgneous:     func(d *models.DailyStats) bool { return d.TypeCount(models.CategoryIgneous) >= 1 },
	PredicateScanSedimentary: func(d *models.DailyStats) bool { return d.TypeCount(models.CategorySedimentary) >= 1 },
	PredicateScanMetamorphic: func(d *models.DailyStats) bool { return d.TypeCount(models.CategoryMetamorphic) >= 1 },
	PredicateScanAny3:        func(d *models.DailyStats) bool { return d.Scans >= 3 },
	PredicateSave1:           func(d *models.DailyStats) bool { return d.Saves >= 1 },
	PredicateSave3:           func(d *models.DailyStats) bool { return d.Saves >= 3 },
	PredicatePost1:           func(d *models.DailyStats) bool { return d.Posts >= 1 },
	PredicateViewFact:        func(d *models.DailyStats) bool { return d.FactsViewed > 0 },
}

// KnownPredicateKey reports whether key selects a predicate.
func KnownPredicateKey(key string) bool {
	_, ok := questPredicates[key]
	return ok
}

// PredicateKeyFromTitle maps a legacy free-text quest title onto a predicate
// key, or "" when nothing matches. New catalog rows carry an explicit
// predicateKey; this fallback only covers rows created before that field.
func PredicateKeyFromTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	switch {
	case strings.Contains(t, "igneous"):
		return PredicateScanIgneous
	case strings.Contains(t, "sedimentary"):
		return PredicateScanSedimentary
	case strings.Contains(t, "metamorphic"):
		return PredicateScanMetamorphic
	case strings.Contains(t, "save 3"):
		return PredicateSave3
	case strings.Contains(t, "scan any 3") || strings.Contains(t, "3 rocks"):
		return PredicateScanAny3
	case strings.Contains(t, "save"):
		return PredicateSave1
	case strings.Contains(t, "post"):
		return PredicatePost1
	case strings.Contains(t, "fact"):
		return PredicateViewFact
	default:
		return ""
	}
}

// QuestCatalog reads quest definitions scoped to a calendar day.
type QuestCatalog interface {
	ForDate(ctx context.Context, date string) ([]models.Quest, error)
	Upcoming(ctx context.Context, afterDate string, limit int64) ([]models.Quest, error)
}

// CompletionStore persists quest completion records with merge semantics.
type CompletionStore interface {
	ForDate(ctx context.Context, userID, date string) (map[string]bool, error)
	MarkComplete(ctx context.Context, userID, date, questID string) error
}

// QuestStatus is one quest's completion state for today.
type QuestStatus struct {
	QuestID     string `json:"questId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

// QuestEvaluator recomputes daily quest completion from today's counters.
type QuestEvaluator struct {
	catalog     QuestCatalog
	completions CompletionStore
	counters    CounterStore
	loc         *time.Location
}

func NewQuestEvaluator(catalog QuestCatalog, completions CompletionStore, counters CounterStore, loc *time.Location) *QuestEvaluator {
	return &QuestEvaluator{catalog: catalog, completions: completions, counters: counters, loc: loc}
}

// ComputeToday evaluates every quest in today's catalog against today's
// bucket. A completion already persisted today stays complete no matter what
// the recomputed predicate says. Newly satisfied quests are logged with an
// idempotent upsert.
func (e *QuestEvaluator) ComputeToday(ctx context.Context, userID string) (string, []QuestStatus, error) {
	date := DayKey(time.Now(), e.loc)

	quests, err := e.catalog.ForDate(ctx, date)
	if err != nil {
		return date, nil, err
	}

	done, err := e.completions.ForDate(ctx, userID, date)
	if err != nil {
		return date, nil, err
	}

	bucket, err := e.counters.Bucket(ctx, userID, date)
	if err != nil {
		return date, nil, err
	}

	statuses := make([]QuestStatus, 0, len(quests))
	for _, q := range quests {
		questID := q.ID.Hex()
		completed := done[questID]
		if !completed {
			key := q.PredicateKey
			if key == "" {
				key = PredicateKeyFromTitle(q.Title)
			}
			if pred, ok := questPredicates[key]; ok && pred(bucket) {
				completed = true
				if err := e.completions.MarkComplete(ctx, userID, date, questID); err != nil {
					// Completion is recomputed on the next read; losing the
					// log entry here does not flip the reported state.
					log.Printf("quest completion write failed (user=%s quest=%s): %v", userID, questID, err)
				}
			}
		}
		statuses = append(statuses, QuestStatus{
			QuestID:     questID,
			Title:       q.Title,
			Description: q.Description,
			Completed:   completed,
		})
	}
	return date, statuses, nil
}

// Today returns today's date key in the evaluator's reporting timezone.
func (e *QuestEvaluator) Today() string {
	return DayKey(time.Now(), e.loc)
}

// --- MongoDB implementations ---

type mongoQuestCatalog struct {
	col *mongo.Collection
}

func NewMongoQuestCatalog() QuestCatalog {
	return &mongoQuestCatalog{col: database.DB.Collection("quests")}
}

func (c *mongoQuestCatalog) ForDate(ctx context.Context, date string) ([]models.Quest, error) {
	cursor, err := c.col.Find(ctx, bson.M{"date": date})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var quests []models.Quest
	if err := cursor.All(ctx, &quests); err != nil {
		return nil, err
	}
	return quests, nil
}

func (c *mongoQuestCatalog) Upcoming(ctx context.Context, afterDate string, limit int64) ([]models.Quest, error) {
	opts := options.Find().SetSort(bson.M{"date": 1}).SetLimit(limit)
	cursor, err := c.col.Find(ctx, bson.M{"date": bson.M{"$gt": afterDate}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var quests []models.Quest
	if err := cursor.All(ctx, &quests); err != nil {
		return nil, err
	}
	return quests, nil
}

type mongoCompletionStore struct {
	col *mongo.Collection
}

func NewMongoCompletionStore() CompletionStore {
	return &mongoCompletionStore{col: database.DB.Collection("quest_completions")}
}

func (s *mongoCompletionStore) ForDate(ctx context.Context, userID, date string) (map[string]bool, error) {
	cursor, err := s.col.Find(ctx, bson.M{"userId": userID, "date": date})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	done := make(map[string]bool)
	var records []models.QuestCompletion
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	for _, r := range records {
		done[r.QuestID] = true
	}
	return done, nil
}

// MarkComplete upserts the completion record; re-marking the same quest on
// the same day is a no-op merge, not an append.
func (s *mongoCompletionStore) MarkComplete(ctx context.Context, userID, date, questID string) error {
	filter := bson.M{"userId": userID, "date": date, "questId": questID}
	update := bson.M{"$setOnInsert": bson.M{
		"userId":      userID,
		"date":        date,
		"questId":     questID,
		"completedAt": time.Now().UTC(),
	}}
	_, err := s.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
