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
)

// GetMyPosts lists the caller's own posts, newest first.
func GetMyPosts(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	listPosts(w, r, bson.M{"uploadedBy": user.ID})
}

// GetAllPosts lists the community feed, flagged posts excluded.
func GetAllPosts(w http.ResponseWriter, r *http.Request) {
	listPosts(w, r, bson.M{"flagged": bson.M{"$ne": true}})
}

func listPosts(w http.ResponseWriter, r *http.Request, filter bson.M) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("posts").Find(ctx, filter,
		options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(100))
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch posts", err))
		return
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to decode posts", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"posts":   posts,
	})
}

type AddPostRequest struct {
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// AddPost creates a feed post. Posting counts toward post achievements and
// today's post bucket.
func AddPost(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var req AddPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.Content == "" {
		apierror.Write(w, apierror.Validation("content is required"))
		return
	}

	now := time.Now().UTC()
	post := models.Post{
		Title:      req.Title,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		UploadedBy: user.ID,
		Role:       user.Role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("posts").InsertOne(ctx, post)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to create post", err))
		return
	}
	post.ID = res.InsertedID.(primitive.ObjectID)

	total, err := counterStore.Increment(r.Context(), user.ID, models.ActionPost, "", time.Now())
	if err != nil {
		apierror.Write(w, err)
		return
	}

	var newBadges []string
	if awarded, err := achievementEvaluator.CheckAndAward(r.Context(), user.ID, models.ActionPost, total); err != nil {
		log.Printf("achievement check failed after post (user=%s): %v", user.ID, err)
	} else {
		for _, a := range awarded {
			newBadges = append(newBadges, a.Title)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   "Post created",
		"post":      post,
		"postCount": total,
		"newBadges": newBadges,
	})
}

type EditPostRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// EditPost updates the caller's own post.
func EditPost(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	postID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "postID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid post id"))
		return
	}

	var req EditPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC(), "updatedBy": user.ID}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Content != nil {
		if *req.Content == "" {
			apierror.Write(w, apierror.Validation("content cannot be empty"))
			return
		}
		set["content"] = *req.Content
	}
	if req.ImageURL != nil {
		set["imageUrl"] = *req.ImageURL
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("posts").UpdateOne(ctx,
		bson.M{"_id": postID, "uploadedBy": user.ID},
		bson.M{"$set": set})
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to update post", err))
		return
	}
	if res.MatchedCount == 0 {
		apierror.Write(w, apierror.NotFound("post not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Post updated",
	})
}

// DeletePost removes a post. Owners delete their own; admins delete any.
// Lifetime post counters never decrement.
func DeletePost(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	postID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "postID"))
	if err != nil {
		apierror.Write(w, apierror.Validation("invalid post id"))
		return
	}

	filter := bson.M{"_id": postID}
	if user.Role != models.RoleAdmin {
		filter["uploadedBy"] = user.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection("posts").DeleteOne(ctx, filter)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to delete post", err))
		return
	}
	if res.DeletedCount == 0 {
		apierror.Write(w, apierror.NotFound("post not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Post deleted",
	})
}

type ReportPostRequest struct {
	PostID string `json:"postId"`
	Reason string `json:"reason"`
}

// ReportPost files a moderation report against a post.
func ReportPost(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var req ReportPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.PostID == "" || req.Reason == "" {
		apierror.Write(w, apierror.Validation("postId and reason are required"))
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

	report := models.Report{
		PostID:     req.PostID,
		Reason:     req.Reason,
		ReportedBy: user.ID,
		ReportedAt: time.Now().UTC(),
		Status:     "pending",
	}
	if _, err := database.DB.Collection("reports").InsertOne(ctx, report); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to file report", err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Report submitted",
	})
}

// GetFacts lists curated facts for any authenticated user.
func GetFacts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("facts").Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch facts", err))
		return
	}
	defer cursor.Close(ctx)

	facts := []models.Fact{}
	if err := cursor.All(ctx, &facts); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to decode facts", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"facts":   facts,
	})
}

// GetAnnouncements lists admin announcements, newest first.
func GetAnnouncements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("announcements").Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(50))
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to fetch announcements", err))
		return
	}
	defer cursor.Close(ctx)

	announcements := []models.Announcement{}
	if err := cursor.All(ctx, &announcements); err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to decode announcements", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"announcements": announcements,
	})
}
