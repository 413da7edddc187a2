package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-registry-service/internal/domain/user"
	pkgerrors "user-registry-service/pkg/errors"
)

// UserRepoPG implements the Repository interface using PostgreSQL and GORM.
// The connection must be opened with gorm's TranslateError enabled so that
// unique-constraint violations surface as gorm.ErrDuplicatedKey.
type UserRepoPG struct {
	db           *gorm.DB      // GORM database connection
	queryTimeout time.Duration // Per-query timeout, expiry surfaces as an internal storage error
	log          *zap.Logger   // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, queryTimeout time.Duration, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, queryTimeout: queryTimeout, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"` // Unique identifier with auto-increment
	Name      string    `gorm:"not null"`                 // User's full name (required)
	Email     string    `gorm:"not null;uniqueIndex"`     // User's unique email address (required, unique)
	CreatedAt time.Time // Managed by GORM on insert
	UpdatedAt time.Time // Managed by GORM on insert and update
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (r *UserRepoPG) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// Create inserts a new user into the database and returns the persisted row
// with its assigned ID and timestamps. Email uniqueness is enforced by the
// unique index, so concurrent inserts with the same email cannot both succeed.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, pkgerrors.NewInternalError("user cannot be nil", nil)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	model := UserSchema{
		Name:  u.Name,
		Email: u.Email,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Warn("duplicate email on create", zap.String("email", u.Email))
			return nil, pkgerrors.NewAlreadyExistsError("email", "Email already exists")
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return toDomain(&model), nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("user not found", zap.Int64("id", id))
			return nil, pkgerrors.NewNotFoundError("user", "User not found")
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}

	return toDomain(&model), nil
}

// List retrieves all users ordered by descending ID (newest first).
func (r *UserRepoPG) List(ctx context.Context) ([]user.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]user.User, len(models))
	for i := range models {
		users[i] = *toDomain(&models[i])
	}

	return users, nil
}

func toDomain(m *UserSchema) *user.User {
	return &user.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
