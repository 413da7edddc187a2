package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-registry-service/internal/adapter/cache"
	"user-registry-service/internal/adapter/db/postgres"
	ginhandler "user-registry-service/internal/adapter/gin/handler"
	"user-registry-service/internal/adapter/gin/middleware"
	ginrouter "user-registry-service/internal/adapter/gin/router"
	"user-registry-service/internal/adapter/gin/response"
	"user-registry-service/internal/adapter/repository/cached"
	"user-registry-service/internal/usecase/user"
)

// UserAPIIntegrationTestSuite runs the full HTTP stack against an
// in-memory database and Redis: router, middleware, handler, usecase,
// caching repository and storage gateway.
type UserAPIIntegrationTestSuite struct {
	suite.Suite
	router http.Handler
}

func (s *UserAPIIntegrationTestSuite) SetupTest() {
	logger := zaptest.NewLogger(s.T())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	s.Require().NoError(err)

	// Every in-memory sqlite connection is its own database, so the pool
	// must stay at a single connection
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(db.AutoMigrate(&postgres.UserSchema{}))

	mr := miniredis.RunT(s.T())
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { _ = redisClient.Close() })

	userCache := cache.NewRedisUserCache(redisClient, 5*time.Minute, logger)
	dbRepo := postgres.NewUserRepoPG(db, 5*time.Second, logger)
	repo := cached.NewCachedUserRepository(dbRepo, userCache, logger)
	uc := user.New(repo, logger)
	handler := ginhandler.NewUserHandler(uc, logger)

	s.router = ginrouter.SetupRouter(handler, redisClient,
		middleware.RateLimiterConfig{Enabled: false}, "user-registry-service", logger)
}

func (s *UserAPIIntegrationTestSuite) postUser(body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/users", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	return w
}

func (s *UserAPIIntegrationTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

func (s *UserAPIIntegrationTestSuite) decode(w *httptest.ResponseRecorder) response.Envelope {
	var env response.Envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (s *UserAPIIntegrationTestSuite) userData(env response.Envelope) ginhandler.UserResponse {
	data, err := json.Marshal(env.Data)
	s.Require().NoError(err)
	var u ginhandler.UserResponse
	s.Require().NoError(json.Unmarshal(data, &u))
	return u
}

func (s *UserAPIIntegrationTestSuite) TestCreateAndFetchRoundTrip() {
	w := s.postUser(`{"name":"Ada Lovelace","email":"Ada@Example.COM"}`)
	s.Equal(http.StatusCreated, w.Code)

	env := s.decode(w)
	s.True(env.Success)
	created := s.userData(env)
	s.Equal("Ada Lovelace", created.Name)
	s.Equal("ada@example.com", created.Email)
	s.False(created.CreatedAt.IsZero())

	w = s.get("/users/1")
	s.Equal(http.StatusOK, w.Code)

	fetched := s.userData(s.decode(w))
	s.Equal(created.ID, fetched.ID)
	s.Equal("Ada Lovelace", fetched.Name)
	s.Equal("ada@example.com", fetched.Email)
}

func (s *UserAPIIntegrationTestSuite) TestDuplicateEmailConflict() {
	w := s.postUser(`{"name":"Ada Lovelace","email":"ada@example.com"}`)
	s.Equal(http.StatusCreated, w.Code)

	// Same email after normalization, different casing
	w = s.postUser(`{"name":"Ada Again","email":"ADA@EXAMPLE.COM"}`)
	s.Equal(http.StatusConflict, w.Code)

	env := s.decode(w)
	s.False(env.Success)
	s.Equal("Email already exists", env.Message)
}

func (s *UserAPIIntegrationTestSuite) TestConcurrentCreateSameEmail() {
	// The unique index decides the winner, so exactly one of two
	// simultaneous creates succeeds
	start := make(chan struct{})
	codes := make(chan int, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			codes <- s.postUser(`{"name":"Ada Lovelace","email":"ada@example.com"}`).Code
		}()
	}
	close(start)
	wg.Wait()
	close(codes)

	var got []int
	for code := range codes {
		got = append(got, code)
	}
	s.ElementsMatch([]int{http.StatusCreated, http.StatusConflict}, got)

	w := s.get("/users")
	s.Equal(http.StatusOK, w.Code)
	env := s.decode(w)
	s.Require().NotNil(env.Count)
	s.Equal(1, *env.Count)
}

func (s *UserAPIIntegrationTestSuite) TestListNewestFirst() {
	s.Equal(http.StatusCreated, s.postUser(`{"name":"John Doe","email":"john@example.com"}`).Code)
	s.Equal(http.StatusCreated, s.postUser(`{"name":"Jane Smith","email":"jane@example.com"}`).Code)

	w := s.get("/users")
	s.Equal(http.StatusOK, w.Code)

	env := s.decode(w)
	s.True(env.Success)
	s.Require().NotNil(env.Count)
	s.Equal(2, *env.Count)

	data, err := json.Marshal(env.Data)
	s.Require().NoError(err)
	var users []ginhandler.UserResponse
	s.Require().NoError(json.Unmarshal(data, &users))
	s.Require().Len(users, 2)
	s.Equal("jane@example.com", users[0].Email)
	s.Equal("john@example.com", users[1].Email)
}

func (s *UserAPIIntegrationTestSuite) TestValidationFailures() {
	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"ada@example.com"}`},
		{"missing email", `{"name":"Ada Lovelace"}`},
		{"empty name", `{"name":"","email":"ada@example.com"}`},
		{"invalid email", `{"name":"Ada Lovelace","email":"not-an-email"}`},
	}

	for _, tc := range cases {
		w := s.postUser(tc.body)
		s.Equal(http.StatusBadRequest, w.Code, tc.name)

		env := s.decode(w)
		s.False(env.Success, tc.name)
		s.Equal("Validation failed", env.Message, tc.name)
		s.NotEmpty(env.Errors, tc.name)
	}
}

func (s *UserAPIIntegrationTestSuite) TestMalformedBody() {
	w := s.postUser(`{"name": "Ada"`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid JSON format", s.decode(w).Message)

	w = s.postUser("")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Request body is required", s.decode(w).Message)
}

func (s *UserAPIIntegrationTestSuite) TestFetchUnknownID() {
	w := s.get("/users/999")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("User not found", s.decode(w).Message)
}

func (s *UserAPIIntegrationTestSuite) TestHealth() {
	w := s.get("/health")
	s.Equal(http.StatusOK, w.Code)

	var body map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("ok", body["status"])
	s.Equal("user-registry-service", body["service"])
	s.NotEmpty(body["timestamp"])
}

func (s *UserAPIIntegrationTestSuite) TestPreflight() {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/users", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Empty(w.Body.String())
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))

	// OPTIONS without preflight headers still gets 200 with no body
	w = httptest.NewRecorder()
	req = httptest.NewRequest("OPTIONS", "/users", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Empty(w.Body.String())
}

func TestUserAPIIntegration(t *testing.T) {
	suite.Run(t, new(UserAPIIntegrationTestSuite))
}
