package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rockquest/rockquest-backend/internal/apierror"
	"github.com/rockquest/rockquest-backend/internal/middleware"
	"github.com/rockquest/rockquest-backend/internal/models"
	"github.com/rockquest/rockquest-backend/internal/services"
)

// GetProfile returns the caller's own user row.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

type CompleteProfileRequest struct {
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role,omitempty"`
	Description string     `json:"description,omitempty"`
	AvatarID    *int       `json:"avatarId,omitempty"`
	DOB         *time.Time `json:"dob,omitempty"`
}

// CompleteProfile creates the user row on first login. The subject id comes
// from the verified token, never from the body. Runs behind RequireIdentity
// because the row does not exist yet.
func CompleteProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.UserFrom(r.Context())

	var req CompleteProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 30 {
		apierror.Write(w, apierror.Validation("username must be 3-30 characters"))
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		apierror.Write(w, apierror.Validation("a valid email is required"))
		return
	}

	role := req.Role
	if role == "" {
		role = models.RolePlayer
	}
	// Admin accounts are provisioned out of band, never self-assigned.
	if role != models.RolePlayer && role != models.RoleGeologist {
		apierror.Write(w, apierror.Validation("role must be player or geologist"))
		return
	}

	if existing, err := services.GetUserByID(r.Context(), identity.ID); err == nil && existing != nil {
		apierror.Write(w, apierror.Conflict("profile already completed"))
		return
	}

	taken, err := services.IsUsernameTaken(r.Context(), req.Username)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if taken {
		apierror.Write(w, apierror.Conflict("username is already taken"))
		return
	}

	user := &models.User{
		ID:          identity.ID,
		Username:    req.Username,
		Email:       req.Email,
		Role:        role,
		Description: req.Description,
		AvatarID:    req.AvatarID,
		DOB:         req.DOB,
		IsActive:    true,
	}
	if err := services.CreateUser(r.Context(), user); err != nil {
		apierror.Write(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Profile completed",
		"user":    user,
	})
}

type UpdateProfileRequest struct {
	Description *string    `json:"description,omitempty"`
	AvatarID    *int       `json:"avatarId,omitempty"`
	DOB         *time.Time `json:"dob,omitempty"`
}

// UpdateProfile adjusts mutable profile fields. Username, email and role are
// fixed after completion.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.Description == nil && req.AvatarID == nil && req.DOB == nil {
		apierror.Write(w, apierror.Validation("nothing to update"))
		return
	}

	if err := services.UpdateProfile(r.Context(), user.ID, req.Description, req.AvatarID, req.DOB); err != nil {
		apierror.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated",
	})
}

// DeleteAccount removes the caller's user row and all owned content.
// Achievement unlocks and stat buckets go with it.
func DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	if err := services.DeleteUserAccount(r.Context(), user.ID); err != nil {
		apierror.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Account deleted",
	})
}
