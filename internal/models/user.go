package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles. Admins are created through the admin CLI, never through
// registration.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account that owns positions and watchlist
// entries. Credentials and session state live outside this service.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchlistEntry represents a symbol a user follows without owning.
type WatchlistEntry struct {
	OwnerID uuid.UUID `json:"owner_id"`
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"added_at"`
}
