package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-registry-service/internal/adapter/cache"
	domain "user-registry-service/internal/domain/user"
	"user-registry-service/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with read-through caching.
// It wraps a persistent repository (DB) and a cache implementation. Cache
// failures are logged and degrade to the database; they are never surfaced
// to callers.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) user.Repository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// Create delegates to the DB repository and warms the cache with the
// persisted row.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	created, err := r.dbRepo.Create(ctx, u)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, created); err != nil {
			r.log.Warn("failed to cache user after create", zap.Int64("id", created.ID), zap.Error(err))
		}
	}

	return created, nil
}

// GetByID retrieves a user by ID using the Cache-Aside pattern.
func (r *CachedUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	// Try to get from cache first
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if cachedUser != nil {
			r.log.Debug("user retrieved from cache", zap.Int64("id", id))
			return cachedUser, nil
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede
	key := fmt.Sprintf("user:%d", id)
	result, err, _ := r.group.Do(key, func() (any, error) {
		// The collapsed fetch serves every waiter, so it must not die
		// with the winning caller's cancellation.
		fetchCtx := context.WithoutCancel(ctx)

		// Double-check cache in case another request populated it while we were waiting
		if r.cache != nil {
			cachedUser, err := r.cache.Get(fetchCtx, id)
			if err == nil && cachedUser != nil {
				r.log.Debug("user retrieved from cache after single-flight wait", zap.Int64("id", id))
				return cachedUser, nil
			}
		}

		// Only one request hits database
		u, err := r.dbRepo.GetByID(fetchCtx, id)
		if err != nil {
			return nil, err
		}

		// Store in cache for future requests
		if r.cache != nil {
			if err := r.cache.Set(fetchCtx, u); err != nil {
				r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
			}
		}

		return u, nil
	})

	if err != nil {
		return nil, err
	}

	return result.(*domain.User), nil
}

// List delegates to the DB repository.
func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.List(ctx)
}
