package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rockquest/rockquest-backend/internal/apierror"
	"github.com/rockquest/rockquest-backend/internal/database"
	"github.com/rockquest/rockquest-backend/internal/middleware"
	"github.com/rockquest/rockquest-backend/internal/services"
	"github.com/rockquest/rockquest-backend/pkg/utils"
)

type AdminSigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminSignin authenticates a backoffice account and issues a Redis-backed
// session token. Failures are deliberately uniform so usernames cannot be
// probed.
func AdminSignin(w http.ResponseWriter, r *http.Request) {
	var req AdminSigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.Validation("invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		apierror.Write(w, apierror.Validation("username and password are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		id           uuid.UUID
		passwordHash string
		isActive     bool
	)
	err := database.PostgresDB.QueryRowContext(ctx,
		`SELECT id, password_hash, is_active FROM admins WHERE username = $1`,
		req.Username,
	).Scan(&id, &passwordHash, &isActive)
	if err == sql.ErrNoRows {
		apierror.Write(w, apierror.New(apierror.KindUnauthorized, "invalid credentials"))
		return
	}
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to look up admin", err))
		return
	}

	valid, err := utils.VerifyPassword(req.Password, passwordHash)
	if err != nil || !valid || !isActive {
		apierror.Write(w, apierror.New(apierror.KindUnauthorized, "invalid credentials"))
		return
	}

	token, err := services.CreateAdminSession(id)
	if err != nil {
		apierror.Write(w, apierror.Wrap(apierror.KindInternal, "failed to create session", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
	})
}

// AdminSignout invalidates the presented session token.
func AdminSignout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r.Header.Get("Authorization"))
	if token != "" {
		services.InvalidateAdminSession(token)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Signed out",
	})
}
