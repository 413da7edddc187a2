package user

import "time"

// CreateUserRequest represents the request payload for creating a new user.
// Name and Email are validated after normalization (whitespace trimmed,
// email lowercased).
type CreateUserRequest struct {
	Name  string `validate:"required,min=2,max=100"`
	Email string `validate:"required,email,max=255"`
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	User User
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User User
}

// ListUsersResponse represents the response payload for user listing.
// Users are ordered newest first.
type ListUsersResponse struct {
	Users []User
	Count int
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
