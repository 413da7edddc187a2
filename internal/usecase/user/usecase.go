package user

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domain "user-registry-service/internal/domain/user"
	pkgerrors "user-registry-service/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., PostgreSQL, a caching decorator) to be used interchangeably.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error) // Insert a new user, returns the persisted row
	GetByID(ctx context.Context, id int64) (*domain.User, error)     // Retrieve user by ID
	List(ctx context.Context) ([]domain.User, error)                 // List all users, newest first
}

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validate: validator.New()}
}

// formatValidationErrors converts validator.ValidationErrors into the typed
// field-level error returned to the transport layer. Required-field failures
// are reported distinctly from format and length failures.
func formatValidationErrors(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make([]pkgerrors.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		fields = append(fields, pkgerrors.FieldError{Field: field, Message: message})
	}
	return pkgerrors.NewValidationErrors(fields...)
}

// CreateUser creates a new user after normalizing and validating the request.
// Email uniqueness is enforced by the storage layer's unique constraint, so
// two concurrent creates with the same email yield exactly one success.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	uc.log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationErrors(err)
	}

	created, err := uc.repo.Create(ctx, &domain.User{
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		uc.log.Warn("failed to create user", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	return &CreateUserResponse{User: toDTO(created)}, nil
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	if in.ID <= 0 {
		uc.log.Warn("get user with non-positive id", zap.Int64("id", in.ID))
		return nil, pkgerrors.NewNotFoundError("user", "User not found")
	}

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		uc.log.Warn("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &GetUserResponse{User: toDTO(u)}, nil
}

// ListUsers retrieves all users, newest first.
func (uc *Usecase) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	domainUsers, err := uc.repo.List(ctx)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = toDTO(&domainUsers[i])
	}

	return &ListUsersResponse{
		Users: users,
		Count: len(users),
	}, nil
}

func toDTO(u *domain.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
