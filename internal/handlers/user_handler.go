package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/chennaitransit/pass-backend/internal/database"
	"github.com/chennaitransit/pass-backend/internal/middleware"
	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserHandler exposes admin-only user management endpoints
type UserHandler struct {
	userRepo        *database.UserRepository
	passRepo        *database.PassRepository
	transactionRepo *database.TransactionRepository
	logger          *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userRepo *database.UserRepository,
	passRepo *database.PassRepository,
	transactionRepo *database.TransactionRepository,
	logger *logrus.Logger,
) *UserHandler {
	return &UserHandler{
		userRepo:        userRepo,
		passRepo:        passRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// ListUsers handles GET /admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	users, err := h.userRepo.ListUsers(limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	total, err := h.userRepo.CountUsers()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// UpdateUserRole handles PUT /admin/users/:id/role
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	// Admins cannot demote themselves, which would lock the last admin out.
	if targetID == userCtx.UserID && req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change your own role"})
		return
	}

	user, err := h.userRepo.UpdateRole(targetID, req.Role)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update user role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"admin_id": userCtx.UserID,
		"user_id":  targetID,
		"new_role": req.Role,
	}).Info("User role updated")

	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated successfully",
		"user":    user,
	})
}

// DeleteUser handles DELETE /admin/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if targetID == userCtx.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	if err := h.userRepo.DeleteUser(targetID); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"admin_id": userCtx.UserID,
		"user_id":  targetID,
	}).Info("User deleted")

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GetAdminStats handles GET /admin/stats
func (h *UserHandler) GetAdminStats(c *gin.Context) {
	now := time.Now()

	totalUsers, err := h.userRepo.CountUsers()
	if err != nil {
		h.statsError(c, err)
		return
	}
	passStats, err := h.passRepo.GetPassStats(nil, now)
	if err != nil {
		h.statsError(c, err)
		return
	}
	txStats, err := h.transactionRepo.GetTransactionStats(nil)
	if err != nil {
		h.statsError(c, err)
		return
	}
	modeStats, err := h.transactionRepo.GetModeStats()
	if err != nil {
		h.statsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":  totalUsers,
		"passes":       passStats,
		"transactions": txStats,
		"modes":        modeStats,
	})
}

func (h *UserHandler) statsError(c *gin.Context, err error) {
	h.logger.WithError(err).Error("Admin stats query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
}
