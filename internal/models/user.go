package models

import "time"

// Roles a user row can carry. Admins authenticate separately and are not
// stored in this table.
const (
	RolePlayer    = "player"
	RoleGeologist = "geologist"
	RoleAdmin     = "admin"
)

// User is the Postgres-backed profile row. ID is the identity provider's
// subject id; the row is created on first profile completion.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Description string     `json:"description,omitempty"`
	AvatarID    *int       `json:"avatarId,omitempty"`
	DOB         *time.Time `json:"dob,omitempty"`
	IsActive    bool       `json:"isActive"`
	Suspended   bool       `json:"suspended"`
	SuspendedAt *time.Time `json:"suspendedAt,omitempty"`
	TotalScans  int64      `json:"totalScans"`
	TotalSaves  int64      `json:"totalSaves"`
	TotalPosts  int64      `json:"totalPosts"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Admin is a backoffice account; created directly in the database.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}
