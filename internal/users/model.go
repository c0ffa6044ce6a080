package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an account row. Profile data (display name, avatar, native
// language preference) lives with the mobile client's profile service and is
// not modeled here.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
