package handlers

import (
	"context"
	"encoding/json"
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
)

type AddFactRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AddFact publishes a curated geology fact.
func AddFact(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var req AddFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.Title == "" || req.Content == "" {
		apierror.Write(w, apierror.Validation("title and content are required"))
		return
	}

	now := time.Now().UTC()
	fact := models.Fact{
		Title:     req.Title,
		Content:   req.Content,
		AddedBy:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("facts").InsertOne(ctx, fact)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to create fact", err))
		return
	}
	fact.ID = res.InsertedID.(primitive.ObjectID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Fact added",
		"fact":    fact,
	})
}

type EditFactRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// EditFact updates a fact. Any geologist may edit any fact.
func EditFact(w http.ResponseWriter, r *http.Request) {
	factID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "factID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid fact id"))
		return
	}

	var req EditFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Content != nil {
		set["content"] = *req.Content
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("facts").UpdateOne(ctx, bson.M{"_id": factID}, bson.M{"$set": set})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to update fact", err))
		return
	}
	if res.MatchedCount == 0 {
		apierror.Write(w, apierror.NotFound("fact not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Fact updated",
	})
}

// DeleteFact removes a fact.
func DeleteFact(w http.ResponseWriter, r *http.Request) {
	factID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "factID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid fact id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("facts").DeleteOne(ctx, bson.M{"_id": factID})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to delete fact", err))
		return
	}
	if res.DeletedCount == 0 {
		apierror.Write(w, apierror.NotFound("fact not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Fact deleted",
	})
}

// GetReviewRocks lists unverified, unrejected rocks awaiting review, oldest
// first so the queue drains fairly.
func GetReviewRocks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("rocks").Find(ctx, bson.M{
		"verified":   false,
		"rejectedAt": bson.M{"$exists": false},
	}, options.Find().SetSort(bson.M{"createdAt": 1}).SetLimit(100))
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

// ApproveRock marks a rock verified. Approved rocks appear on the GPS map.
func ApproveRock(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	rockID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "rockID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid rock id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	res, err := database.DB.Collection("rocks").UpdateOne(ctx, bson.M{"_id": rockID}, bson.M{
		"$set": bson.M{
			"verified":   true,
			"verifiedBy": user.ID,
			"verifiedAt": now,
		},
		"$unset": bson.M{"rejectedReason": "", "rejectedAt": ""},
	})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to approve rock", err))
		return
	}
	if res.MatchedCount == 0 {
		apierror.Write(w, apierror.NotFound("rock not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Rock approved",
	})
}

type RejectRockRequest struct {
	Reason string `json:"reason"`
}

// RejectRock marks a rock rejected with a reason for the owner to see.
func RejectRock(w http.ResponseWriter, r *http.Request) {
	rockID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "rockID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid rock id"))
		return
	}

	var req RejectRockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.Reason == "" {
		apierror.Write(w, apierror.Validation("reason is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("rocks").UpdateOne(ctx, bson.M{"_id": rockID}, bson.M{
		"$set": bson.M{
			"verified":       false,
			"rejectedReason": req.Reason,
			"rejectedAt":     time.Now().UTC(),
		},
	})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to reject rock", err))
		return
	}
	if res.MatchedCount == 0 {
		apierror.Write(w, apierror.NotFound("rock not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Rock rejected",
	})
}

type AddCommentRequest struct {
	PostID string `json:"postId"`
	Text   string `json:"text"`
}

// AddComment attaches an expert comment to a post.
func AddComment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.PostID == "" || req.Text == "" {
		apierror.Write(w, apierror.Validation("postId and text are required"))
		return
	}
	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid post id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := database.DB.Collection("posts").CountDocuments(ctx, bson.M{"_id": postID})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to verify post", err))
		return
	}
	if count == 0 {
		apierror.Write(w, apierror.NotFound("post not found"))
		return
	}

	comment := models.Comment{
		PostID:    req.PostID,
		Text:      req.Text,
		Author:    user.ID,
		CreatedAt: time.Now().UTC(),
	}
	res, err := database.DB.Collection("comments").InsertOne(ctx, comment)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to add comment", err))
		return
	}
	comment.ID = res.InsertedID.(primitive.ObjectID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Comment added",
		"comment": comment,
	})
}
