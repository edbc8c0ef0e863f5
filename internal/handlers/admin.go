package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rockquest/rockquest-backend/internal/apierror"
	"github.com/rockquest/rockquest-backend/internal/database"
	"github.com/rockquest/rockquest-backend/internal/middleware"
	"github.com/rockquest/rockquest-backend/internal/models"
	"github.com/rockquest/rockquest-backend/internal/services"
)

type DashboardTotals struct {
	Users   int64 `json:"users"`
	Rocks   int64 `json:"rocks"`
	Posts   int64 `json:"posts"`
	Facts   int64 `json:"facts"`
	Reports int64 `json:"reports"`
}

// GetDashboard returns platform totals, cached briefly since the numbers
// power a refresh-happy admin page.
func GetDashboard(w http.ResponseWriter, r *http.Request) {
	cacheKey := services.CacheKey("admin", "dashboard")

	var totals DashboardTotals
	if services.Cache != nil {
		if hit, err := services.Cache.Get(cacheKey, &totals); err == nil && hit {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"totals":  totals,
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := services.CountUsers(ctx)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	totals.Users = users

	for _, c := range []struct {
		name string
		dest *int64
	}{
		{"rocks", &totals.Rocks},
		{"posts", &totals.Posts},
		{"facts", &totals.Facts},
		{"reports", &totals.Reports},
	} {
		n, err := database.DB.Collection(c.name).EstimatedDocumentCount(ctx)
		if err != nil {
			apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to count "+c.name, err))
			return
		}
		*c.dest = n
	}

	if services.Cache != nil {
		if err := services.Cache.SetWithTTL(cacheKey, totals, time.Minute); err != nil {
			log.Printf("failed to cache dashboard totals: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"totals":  totals,
	})
}

// GetUsers lists all user rows for the admin console.
func GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := services.ListUsers(r.Context())
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
	})
}

// SuspendUser blocks a user from every authenticated route. Their tokens stay
// valid; the role middleware rejects the suspended row.
func SuspendUser(w http.ResponseWriter, r *http.Request) {
	setSuspended(w, r, true, "User suspended")
}

// ReinstateUser lifts a suspension.
func ReinstateUser(w http.ResponseWriter, r *http.Request) {
	setSuspended(w, r, false, "User reinstated")
}

func setSuspended(w http.ResponseWriter, r *http.Request, suspended bool, message string) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		apierror.Write(w, apierror.Validation("user id is required"))
		return
	}

	if err := services.SetUserSuspended(r.Context(), userID, suspended); err != nil {
		apierror.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// GetReports lists moderation reports, pending first.
func GetReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("reports").Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "status", Value: 1}, {Key: "reportedAt", Value: -1}}))
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch reports", err))
		return
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to decode reports", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reports": reports,
	})
}

type UpdateReportRequest struct {
	Status string `json:"status"`
}

var reportStatuses = map[string]bool{
	"pending":   true,
	"reviewed":  true,
	"resolved":  true,
	"dismissed": true,
}

// UpdateReport moves a report through the moderation workflow.
func UpdateReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "reportID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid report id"))
		return
	}

	var req UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if !reportStatuses[req.Status] {
		apierror.Write(w, apierror.Validation("status must be pending, reviewed, resolved or dismissed"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	res, err := database.DB.Collection("reports").UpdateOne(ctx,
		bson.M{"_id": reportID},
		bson.M{"$set": bson.M{"status": req.Status, "updatedAt": now}})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to update report", err))
		return
	}
	if res.MatchedCount == 0 {
		apierror.Write(w, apierror.NotFound("report not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Report updated",
	})
}

// DeleteReport discards a report entirely.
func DeleteReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "reportID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid report id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("reports").DeleteOne(ctx, bson.M{"_id": reportID})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to delete report", err))
		return
	}
	if res.DeletedCount == 0 {
		apierror.Write(w, apierror.NotFound("report not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Report deleted",
	})
}

type CreateAnnouncementRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// CreateAnnouncement publishes a platform-wide announcement.
func CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.AdminFrom(r.Context())

	var req CreateAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.Title == "" || req.Message == "" {
		apierror.Write(w, apierror.Validation("title and message are required"))
		return
	}

	announcement := models.Announcement{
		Title:     req.Title,
		Message:   req.Message,
		CreatedBy: adminID.String(),
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("announcements").InsertOne(ctx, announcement)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to create announcement", err))
		return
	}
	announcement.ID = res.InsertedID.(primitive.ObjectID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"message":      "Announcement published",
		"announcement": announcement,
	})
}

// DeleteAnnouncement removes an announcement.
func DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "announcementID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid announcement id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("announcements").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to delete announcement", err))
		return
	}
	if res.DeletedCount == 0 {
		apierror.Write(w, apierror.NotFound("announcement not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Announcement deleted",
	})
}

// ListAchievementCatalog returns every catalog entry for the admin console.
func ListAchievementCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("achievements").Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "actionType", Value: 1}, {Key: "threshold", Value: 1}}))
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch achievements", err))
		return
	}
	defer cursor.Close(ctx)

	achievements := []models.Achievement{}
	if err := cursor.All(ctx, &achievements); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to decode achievements", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"achievements": achievements,
	})
}

type CreateAchievementRequest struct {
	Title     string `json:"title"`
	Action    string `json:"actionType"`
	Threshold int64  `json:"threshold"`
	Badge     string `json:"badge,omitempty"`
}

// CreateAchievement adds a catalog entry. New entries apply to future awards
// only; past totals are not backfilled.
func CreateAchievement(w http.ResponseWriter, r *http.Request) {
	var req CreateAchievementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.Title == "" {
		apierror.Write(w, apierror.Validation("title is required"))
		return
	}
	action := models.ActionType(req.Action)
	if action != models.ActionScan && action != models.ActionSave && action != models.ActionPost {
		apierror.Write(w, apierror.Validation("actionType must be scan, save or post"))
		return
	}
	if req.Threshold < 1 {
		apierror.Write(w, apierror.Validation("threshold must be at least 1"))
		return
	}

	achievement := models.Achievement{
		Title:     req.Title,
		Action:    action,
		Threshold: req.Threshold,
		Badge:     req.Badge,
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("achievements").InsertOne(ctx, achievement)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to create achievement", err))
		return
	}
	achievement.ID = res.InsertedID.(primitive.ObjectID)

	if err := services.Cache.Delete(services.AchievementCatalogCacheKey); err != nil {
		log.Printf("achievement catalog cache invalidation failed: %v", err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"message":     "Achievement created",
		"achievement": achievement,
	})
}

// DeleteAchievement removes a catalog entry. Existing unlocks are permanent
// and survive catalog removal.
func DeleteAchievement(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "achievementID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid achievement id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("achievements").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to delete achievement", err))
		return
	}
	if res.DeletedCount == 0 {
		apierror.Write(w, apierror.NotFound("achievement not found"))
		return
	}

	if err := services.Cache.Delete(services.AchievementCatalogCacheKey); err != nil {
		log.Printf("achievement catalog cache invalidation failed: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Achievement deleted",
	})
}

// ListQuestCatalog returns quest catalog entries, optionally for one date.
func ListQuestCatalog(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if date := r.URL.Query().Get("date"); date != "" {
		filter["date"] = date
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("quests").Find(ctx, filter,
		options.Find().SetSort(bson.M{"date": 1}).SetLimit(200))
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch quests", err))
		return
	}
	defer cursor.Close(ctx)

	quests := []models.Quest{}
	if err := cursor.All(ctx, &quests); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to decode quests", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"quests":  quests,
	})
}

type CreateQuestRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	PredicateKey string `json:"predicateKey,omitempty"`
	Date         string `json:"date"`
}

// CreateQuest schedules a quest for a date. The predicate key must be one of
// the fixed predicates; a blank key falls back to title matching at
// evaluation time.
func CreateQuest(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.Title == "" {
		apierror.Write(w, apierror.Validation("title is required"))
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		apierror.Write(w, apierror.Validation("date must be YYYY-MM-DD"))
		return
	}
	if req.PredicateKey != "" && !services.KnownPredicateKey(req.PredicateKey) {
		apierror.Write(w, apierror.Validation("unknown predicate key"))
		return
	}

	quest := models.Quest{
		Title:        req.Title,
		Description:  req.Description,
		PredicateKey: req.PredicateKey,
		Date:         req.Date,
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("quests").InsertOne(ctx, quest)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to create quest", err))
		return
	}
	quest.ID = res.InsertedID.(primitive.ObjectID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Quest scheduled",
		"quest":   quest,
	})
}

type UnblockIPRequest struct {
	IP string `json:"ip"`
}

// UnblockIP clears a rate-limit block so a wrongly flagged client can
// recover without waiting out the TTL.
func UnblockIP(w http.ResponseWriter, r *http.Request) {
	var req UnblockIPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.IP == "" {
		apierror.Write(w, apierror.Validation("ip is required"))
		return
	}

	if err := middleware.UnblockIP(req.IP); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to unblock ip", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "IP unblocked",
	})
}

// DeleteQuest removes a catalog entry. Recorded completions are kept.
func DeleteQuest(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "questID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid quest id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("quests").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to delete quest", err))
		return
	}
	if res.DeletedCount == 0 {
		apierror.Write(w, apierror.NotFound("quest not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Quest deleted",
	})
}
