package handlers

import (
	"net/http"
	"strconv"

	"github.com/chennaitransit/pass-backend/internal/database"
	"github.com/chennaitransit/pass-backend/internal/middleware"
	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TransactionHandler handles transaction listing and statistics
type TransactionHandler struct {
	transactionRepo *database.TransactionRepository
	logger          *logrus.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionRepo *database.TransactionRepository, logger *logrus.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// ListTransactions handles GET /transactions. Passengers see their own;
// managers and admins see everything.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	filter := models.TransactionFilter{
		Status: c.Query("status"),
		Mode:   c.Query("mode"),
	}
	if userCtx.Role == models.RolePassenger {
		uid := userCtx.UserID
		filter.UserID = &uid
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	filter.DateFrom = from
	filter.DateTo = to

	if v := c.Query("min_amount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_amount"})
			return
		}
		filter.MinAmount = &n
	}
	if v := c.Query("max_amount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_amount"})
			return
		}
		filter.MaxAmount = &n
	}

	transactions, err := h.transactionRepo.ListTransactions(filter)
	if err != nil {
		h.logger.WithError(err).Error("ListTransactions: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// GetTransactionStats handles GET /transactions/stats
func (h *TransactionHandler) GetTransactionStats(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var scope *uuid.UUID
	if userCtx.Role == models.RolePassenger {
		uid := userCtx.UserID
		scope = &uid
	}

	stats, err := h.transactionRepo.GetTransactionStats(scope)
	if err != nil {
		h.logger.WithError(err).Error("GetTransactionStats: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching transaction statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
