package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "realtime-users/internal/domain/user"
	"realtime-users/internal/usecase/user"
	"realtime-users/pkg/logger"
)

// Lister reads the current content of a collection.
type Lister interface {
	List(ctx context.Context, root string) ([]domain.User, error)
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	gateway user.MutationGateway
	lister  Lister
	log     *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(gateway user.MutationGateway, lister Lister, log *zap.Logger) *UserHandler {
	return &UserHandler{
		gateway: gateway,
		lister:  lister,
		log:     log,
	}
}

// UserRequest represents the HTTP request body for creating or updating a user.
// Fields are validated after trimming, the same way the form is.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SnapshotResponse represents the full list of users
type SnapshotResponse struct {
	Users []UserResponse `json:"users"`
}

// ToSnapshotResponse converts a snapshot to its wire form.
func ToSnapshotResponse(s domain.Snapshot) SnapshotResponse {
	users := make([]UserResponse, len(s))
	for i, u := range s {
		users[i] = UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return SnapshotResponse{Users: users}
}

// ListUsers handles GET /v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.lister.List(c.Request.Context(), domain.CollectionRoot)
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Error("Gin ListUsers failed", zap.Error(err))
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ToSnapshotResponse(domain.NewSnapshot(users)))
}

// CreateUser handles POST /v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	in, err := user.ValidateForm(req.Name, req.Email)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	id, err := h.gateway.Create(c.Request.Context(), in.Name, in.Email)
	if err != nil {
		log.Error("Gin CreateUser failed", zap.Error(err))
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      id,
		"message": user.MsgAdded,
	})
}

// UpdateUser handles PUT /v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)
	id := c.Param("id")

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update user request", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	in, err := user.ValidateForm(req.Name, req.Email)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	if err := h.gateway.Update(c.Request.Context(), id, in.Name, in.Email); err != nil {
		log.Error("Gin UpdateUser failed", zap.String("id", id), zap.Error(err))
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"message": user.MsgUpdated,
	})
}

// DeleteUser handles DELETE /v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	if err := h.gateway.Delete(c.Request.Context(), id); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Error("Gin DeleteUser failed", zap.String("id", id), zap.Error(err))
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"message": user.MsgDeleted,
	})
}
