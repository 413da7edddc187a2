package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"user-registry-service/internal/adapter/gin/response"
	"user-registry-service/internal/usecase/user"
	pkgerrors "user-registry-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user.
// Validation happens in the usecase after normalization, so the fields
// carry no binding tags here.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("unreadable create user body", zap.Error(err))
		if errors.Is(err, io.EOF) {
			response.Fail(c, http.StatusBadRequest, "Request body is required", "")
			return
		}
		response.Fail(c, http.StatusBadRequest, "Invalid JSON format", "")
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.handleError(c, err, "Failed to create user")
		return
	}

	response.OK(c, http.StatusCreated, toUserResponse(resp.User), "User created successfully")
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.log.Warn("invalid user id", zap.String("id", idStr), zap.Error(err))
		response.Fail(c, http.StatusBadRequest, "Invalid user ID", "User ID must be a valid number")
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, err, "Failed to retrieve user")
		return
	}

	response.OK(c, http.StatusOK, toUserResponse(resp.User), "User retrieved successfully")
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "Failed to retrieve users")
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = toUserResponse(u)
	}

	response.List(c, http.StatusOK, users, resp.Count, "Users retrieved successfully")
}

// handleError converts usecase errors to envelope responses. fallback is
// the 500 message when the error carries no HTTP status of its own.
func (h *UserHandler) handleError(c *gin.Context, err error, fallback string) {
	var validationErrs *pkgerrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]response.FieldError, len(validationErrs.Fields))
		for i, f := range validationErrs.Fields {
			fields[i] = response.FieldError{Field: f.Field, Message: f.Message}
		}
		response.ValidationFailed(c, http.StatusBadRequest, fields)
		return
	}

	var statuser pkgerrors.HTTPStatuser
	if errors.As(err, &statuser) {
		switch status := statuser.HTTPStatus(); status {
		case http.StatusNotFound:
			response.Fail(c, status, "User not found", "")
			return
		case http.StatusConflict:
			response.Fail(c, status, "Email already exists", "The email address is already taken")
			return
		}
	}

	h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	response.Fail(c, http.StatusInternalServerError, fallback, "")
}

func toUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
