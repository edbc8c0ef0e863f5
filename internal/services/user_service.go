package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/rockquest/rockquest-backend/internal/apierror"
	"github.com/rockquest/rockquest-backend/internal/database"
	"github.com/rockquest/rockquest-backend/internal/models"
)

const userColumns = `id, username, email, role, COALESCE(description, ''), avatar_id, dob,
	is_active, suspended, suspended_at, total_scans, total_saves, total_posts, created_at, updated_at`

func scanUserRow(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Description, &u.AvatarID, &u.DOB,
		&u.IsActive, &u.Suspended, &u.SuspendedAt, &u.TotalScans, &u.TotalSaves, &u.TotalPosts,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NotFound("user not found")
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByID loads a user row by subject id.
func GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	row := database.PostgresDB.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, userID)
	return scanUserRow(row)
}

// IsUsernameTaken checks availability case-insensitively.
func IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))
	`, strings.TrimSpace(username)).Scan(&exists)
	return exists, err
}

// CreateUser inserts the profile row on first profile completion.
// Returns a conflict error when the subject already completed a profile or
// the username is taken.
func CreateUser(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RolePlayer
	}
	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO users (id, username, email, role, description, avatar_id, dob)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`, u.ID, u.Username, u.Email, u.Role, u.Description, u.AvatarID, u.DOB)
	if err != nil {
		if isUniqueViolation(err) {
			return apierror.Conflict("profile already exists or username is taken")
		}
		return err
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// UpdateProfile updates the mutable profile fields.
func UpdateProfile(ctx context.Context, userID string, description *string, avatarID *int, dob *time.Time) error {
	res, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE users SET
			description = COALESCE($2, description),
			avatar_id = COALESCE($3, avatar_id),
			dob = COALESCE($4, dob),
			updated_at = NOW()
		WHERE id = $1
	`, userID, description, avatarID, dob)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apierror.NotFound("user not found")
	}
	return nil
}

// SetUserSuspended toggles the suspension soft-delete flag.
func SetUserSuspended(ctx context.Context, userID string, suspended bool) error {
	var res sql.Result
	var err error
	if suspended {
		res, err = database.PostgresDB.ExecContext(ctx, `
			UPDATE users SET suspended = TRUE, suspended_at = NOW(), updated_at = NOW() WHERE id = $1
		`, userID)
	} else {
		res, err = database.PostgresDB.ExecContext(ctx, `
			UPDATE users SET suspended = FALSE, suspended_at = NULL, updated_at = NOW() WHERE id = $1
		`, userID)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apierror.NotFound("user not found")
	}
	return nil
}

// ListUsers returns all user rows for the admin console.
func ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Description, &u.AvatarID, &u.DOB,
			&u.IsActive, &u.Suspended, &u.SuspendedAt, &u.TotalScans, &u.TotalSaves, &u.TotalPosts,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total user count for the admin dashboard.
func CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := database.PostgresDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// DeleteUserAccount hard-deletes the user row and the user's owned documents.
// Content the user moderated for others (verifications, comments) is kept.
func DeleteUserAccount(ctx context.Context, userID string) error {
	if _, err := database.PostgresDB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return err
	}

	owned := map[string]bson.M{
		"rocks":               {"uploadedBy": userID},
		"posts":               {"uploadedBy": userID},
		"daily_stats":         {"userId": userID},
		"achievement_unlocks": {"userId": userID},
		"quest_completions":   {"userId": userID},
		"scan_events":         {"userId": userID},
	}
	for coll, filter := range owned {
		if _, err := database.DB.Collection(coll).DeleteMany(ctx, filter); err != nil {
			return err
		}
	}
	return nil
}
