package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rockquest/rockquest-backend/internal/apierror"
	"github.com/rockquest/rockquest-backend/internal/database"
	"github.com/rockquest/rockquest-backend/internal/middleware"
	"github.com/rockquest/rockquest-backend/internal/models"
	"github.com/rockquest/rockquest-backend/internal/services"
)

// GetMyRocks lists the caller's rock collection, newest first, with an
// optional type filter.
func GetMyRocks(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	filter := bson.M{"uploadedBy": user.ID}
	if t := r.URL.Query().Get("type"); t != "" {
		filter["type"] = t
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("rocks").Find(ctx, filter,
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch rocks", err))
		return
	}
	defer cursor.Close(ctx)

	rocks := []models.Rock{}
	if err := cursor.All(ctx, &rocks); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to decode rocks", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"rocks":   rocks,
	})
}

type AddRockRequest struct {
	RockID   string   `json:"rockId,omitempty"`
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

// newRockFromRequest builds the rock to insert. When a source rock is given
// (save-by-reference with rockId) its fields fill in whatever the request
// leaves empty, so a bare {rockId, imageUrl} payload still saves a fully
// described copy.
func newRockFromRequest(req AddRockRequest, source *models.Rock, userID string, now time.Time) models.Rock {
	rock := models.Rock{
		Name:       req.Name,
		Type:       models.RockCategory(req.Type),
		ImageURL:   req.ImageURL,
		Lat:        req.Lat,
		Lng:        req.Lng,
		UploadedBy: userID,
		CreatedAt:  now,
	}
	if source != nil {
		if rock.Name == "" {
			rock.Name = source.Name
		}
		if rock.Type == "" {
			rock.Type = source.Type
		}
		if rock.ImageURL == "" {
			rock.ImageURL = source.ImageURL
		}
		if rock.Lat == nil {
			rock.Lat = source.Lat
		}
		if rock.Lng == nil {
			rock.Lng = source.Lng
		}
		rock.Description = source.Description
	}
	return rock
}

// AddRock saves a rock to the caller's collection, either from inline fields
// or by referencing an existing catalog rock via rockId. Saving counts toward
// save achievements and the day bucket even if the rock duplicates an earlier
// save.
func AddRock(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var req AddRockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.Name == "" && req.RockID == "" {
		apierror.Write(w, apierror.Validation("name or rockId is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var source *models.Rock
	if req.RockID != "" {
		sourceID, err := primitive.ObjectIDFromHex(req.RockID)
		if err != nil {
			apierror.Write(w, apierror.Validation("invalid rock id"))
			return
		}
		source = &models.Rock{}
		if err := database.DB.Collection("rocks").FindOne(ctx, bson.M{"_id": sourceID}).Decode(source); err != nil {
			if err == mongo.ErrNoDocuments {
				apierror.Write(w, apierror.NotFound("rock not found"))
				return
			}
			apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch rock", err))
			return
		}
	}

	rock := newRockFromRequest(req, source, user.ID, time.Now().UTC())

	res, err := database.DB.Collection("rocks").InsertOne(ctx, rock)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to save rock", err))
		return
	}
	rock.ID = res.InsertedID.(primitive.ObjectID)

	total, err := counterStore.Increment(r.Context(), user.ID, models.ActionSave, "", time.Now())
	if err != nil {
		apierror.Write(w, err)
		return
	}

	var newBadges []string
	if awarded, err := achievementEvaluator.CheckAndAward(r.Context(), user.ID, models.ActionSave, total); err != nil {
		log.Printf("achievement check failed after save (user=%s): %v", user.ID, err)
	} else {
		for _, a := range awarded {
			newBadges = append(newBadges, a.Title)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   "Rock saved to collection",
		"rock":      rock,
		"saveCount": total,
		"newBadges": newBadges,
	})
}

// DeleteRock removes a rock from the caller's own collection. Lifetime save
// counters are append-only and do not decrement on delete.
func DeleteRock(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	rockID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "rockID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid rock id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("rocks").DeleteOne(ctx, bson.M{
		"_id":        rockID,
		"uploadedBy": user.ID,
	})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to delete rock", err))
		return
	}
	if res.DeletedCount == 0 {
		apierror.Write(w, apierror.NotFound("rock not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Rock deleted",
	})
}

// GetGPSRocks returns verified rocks inside a lat/lng bounding box for the
// map view. Radius is degrees of latitude, default 0.05 (~5km).
func GetGPSRocks(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		apierror.Write(w, apierror.Validation("lat and lng are required"))
		return
	}
	radius := 0.05
	if v, err := strconv.ParseFloat(r.URL.Query().Get("radius"), 64); err == nil && v > 0 {
		radius = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("rocks").Find(ctx, bson.M{
		"verified": true,
		"lat":      bson.M{"$gte": lat - radius, "$lte": lat + radius},
		"lng":      bson.M{"$gte": lng - radius, "$lte": lng + radius},
	})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch rocks", err))
		return
	}
	defer cursor.Close(ctx)

	rocks := []models.Rock{}
	if err := cursor.All(ctx, &rocks); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to decode rocks", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"rocks":   rocks,
	})
}

// GetDailyQuests evaluates today's quests against the caller's day bucket.
func GetDailyQuests(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	date, statuses, err := questEvaluator.ComputeToday(r.Context(), user.ID)
	if err != nil {
		apierror.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"date":        date,
		"dailyQuests": statuses,
	})
}

// GetQuestsSummary returns today's quest titles plus a short look-ahead of
// upcoming catalog entries.
func GetQuestsSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	date, statuses, err := questEvaluator.ComputeToday(r.Context(), user.ID)
	if err != nil {
		apierror.Write(w, err)
		return
	}

	upcoming, err := questCatalog.Upcoming(r.Context(), date, 7)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	upcomingTitles := []string{}
	for _, q := range upcoming {
		upcomingTitles = append(upcomingTitles, q.Title)
	}

	completed := 0
	for _, s := range statuses {
		if s.Completed {
			completed++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"date":      date,
		"total":     len(statuses),
		"completed": completed,
		"quests":    statuses,
		"upcoming":  upcomingTitles,
	})
}

type earnedAchievement struct {
	models.Achievement
	Earned     bool       `json:"earned"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// GetAchievements returns the whole catalog annotated with the caller's
// unlock state. The catalog itself is cached; admin writes invalidate it.
func GetAchievements(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var catalog []models.Achievement
	hit, err := services.Cache.Get(services.AchievementCatalogCacheKey, &catalog)
	if err != nil {
		log.Printf("achievement catalog cache read failed: %v", err)
	}
	if !hit {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		cursor, err := database.DB.Collection("achievements").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "actionType", Value: 1}, {Key: "threshold", Value: 1}}))
		if err != nil {
			apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch achievements", err))
			return
		}
		defer cursor.Close(ctx)

		if err := cursor.All(ctx, &catalog); err != nil {
			apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to decode achievements", err))
			return
		}

		if err := services.Cache.Set(services.AchievementCatalogCacheKey, catalog); err != nil {
			log.Printf("achievement catalog cache write failed: %v", err)
		}
	}

	unlocks, err := unlockStore.ByUser(r.Context(), user.ID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	unlockedAt := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		unlockedAt[u.AchievementID] = u.UnlockedAt
	}

	earned := []earnedAchievement{}
	for _, a := range catalog {
		entry := earnedAchievement{Achievement: a}
		if at, ok := unlockedAt[a.ID.Hex()]; ok {
			entry.Earned = true
			entry.UnlockedAt = &at
		}
		earned = append(earned, entry)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"earnedAchievements": earned,
	})
}

// GetMyStats returns lifetime totals plus today's day bucket.
func GetMyStats(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	today, err := counterStore.Today(r.Context(), user.ID)
	if err != nil {
		apierror.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"totalScans": user.TotalScans,
		"totalSaves": user.TotalSaves,
		"totalPosts": user.TotalPosts,
		"today":      today,
	})
}

// GetScanStats returns one day bucket (default today) alongside the lifetime
// scan total.
func GetScanStats(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	date := r.URL.Query().Get("date")
	if date == "" {
		date = counterStore.DayKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		apierror.Write(w, apierror.Validation("date must be YYYY-MM-DD"))
		return
	}

	bucket, err := counterStore.Bucket(r.Context(), user.ID, date)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	lifetime, err := counterStore.Lifetime(r.Context(), user.ID, models.ActionScan)
	if err != nil {
		apierror.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"date":       date,
		"bucket":     bucket,
		"totalScans": lifetime,
	})
}

// ViewFact records a fact view (sets today's factsViewed) and returns the fact.
func ViewFact(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	factID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "factID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid fact id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var fact models.Fact
	if err := database.DB.Collection("facts").FindOne(ctx, bson.M{"_id": factID}).Decode(&fact); err != nil {
		if err == mongo.ErrNoDocuments {
			apierror.Write(w, apierror.NotFound("fact not found"))
			return
		}
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch fact", err))
		return
	}

	if _, err := counterStore.Increment(r.Context(), user.ID, models.ActionViewFact, "", time.Now()); err != nil {
		log.Printf("failed to record fact view (user=%s): %v", user.ID, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"fact":    fact,
	})
}
