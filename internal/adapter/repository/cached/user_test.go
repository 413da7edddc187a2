package cached

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-registry-service/internal/adapter/cache"
	domain "user-registry-service/internal/domain/user"
	pkgerrors "user-registry-service/pkg/errors"
)

type MockDBRepository struct {
	mock.Mock
}

func (m *MockDBRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockDBRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockDBRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func setupCachedRepo(t *testing.T) (*CachedUserRepository, *MockDBRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zaptest.NewLogger(t)
	userCache := cache.NewRedisUserCache(client, 5*time.Minute, logger)

	mockRepo := new(MockDBRepository)
	repo := NewCachedUserRepository(mockRepo, userCache, logger).(*CachedUserRepository)
	return repo, mockRepo, mr
}

func TestCachedRepository_GetByID_PopulatesCache(t *testing.T) {
	repo, mockRepo, _ := setupCachedRepo(t)
	ctx := context.Background()

	u := &domain.User{ID: 1, Name: "John Doe", Email: "john@example.com"}
	mockRepo.On("GetByID", mock.Anything, int64(1)).Return(u, nil).Once()

	// First call misses the cache and hits the database
	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	// Second call is served from cache; the mock would panic on a second DB call
	got, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	mockRepo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestCachedRepository_GetByID_NotFoundPassthrough(t *testing.T) {
	repo, mockRepo, _ := setupCachedRepo(t)
	ctx := context.Background()

	mockRepo.On("GetByID", mock.Anything, int64(42)).
		Return(nil, pkgerrors.NewNotFoundError("user", "User not found"))

	got, err := repo.GetByID(ctx, 42)

	assert.Nil(t, got)
	var notFoundErr *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestCachedRepository_GetByID_CacheDownFallsBack(t *testing.T) {
	repo, mockRepo, mr := setupCachedRepo(t)
	ctx := context.Background()

	mr.Close()

	u := &domain.User{ID: 1, Name: "John Doe", Email: "john@example.com"}
	mockRepo.On("GetByID", mock.Anything, int64(1)).Return(u, nil)

	got, err := repo.GetByID(ctx, 1)

	// A broken cache degrades to the database, it never fails the read
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestCachedRepository_GetByID_FetchOutlivesCallerCancel(t *testing.T) {
	repo, mockRepo, mr := setupCachedRepo(t)

	mr.Close() // force the database path

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The collapsed fetch serves every waiter, so the database call must
	// run on a context that does not carry this caller's cancellation.
	u := &domain.User{ID: 7, Name: "Grace Hopper", Email: "grace@example.com"}
	mockRepo.On("GetByID", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), int64(7)).Return(u, nil)

	got, err := repo.GetByID(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
}

func TestCachedRepository_Create_WarmsCache(t *testing.T) {
	repo, mockRepo, mr := setupCachedRepo(t)
	ctx := context.Background()

	u := &domain.User{Name: "John Doe", Email: "john@example.com"}
	created := &domain.User{ID: 1, Name: "John Doe", Email: "john@example.com"}
	mockRepo.On("Create", ctx, u).Return(created, nil)

	got, err := repo.Create(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	assert.True(t, mr.Exists("user:1"))
}

func TestCachedRepository_List_Delegates(t *testing.T) {
	repo, mockRepo, _ := setupCachedRepo(t)
	ctx := context.Background()

	users := []domain.User{
		{ID: 2, Name: "Jane Smith", Email: "jane@example.com"},
		{ID: 1, Name: "John Doe", Email: "john@example.com"},
	}
	mockRepo.On("List", ctx).Return(users, nil)

	got, err := repo.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, users, got)
}
