package user

import "time"

// User represents a registered user in the system.
type User struct {
	ID        int64     // ID is the storage-assigned surrogate key
	Name      string    // Name is the user's display name
	Email     string    // Email is unique, stored trimmed and lowercased
	CreatedAt time.Time // CreatedAt is set by storage on insert
	UpdatedAt time.Time // UpdatedAt is set by storage on insert and update
}
