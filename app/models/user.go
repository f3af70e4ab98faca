package models

import "time"

// SandboxUserID is the degenerate identity used when the server runs in
// sandbox mode: resources are globally shared and no token is required.
// It is a regular user row seeded by the migrations, not a special code path.
const SandboxUserID = "00000000-0000-0000-0000-000000000000"

// User represents an account used for authentication and audit fields.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	Password  string    `json:"-" gorm:"not null;column:password_hash"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
