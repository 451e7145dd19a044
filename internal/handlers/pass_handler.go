package handlers

import (
	"net/http"
	"time"

	"github.com/chennaitransit/pass-backend/internal/database"
	"github.com/chennaitransit/pass-backend/internal/middleware"
	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PassHandler handles pass listing, history and statistics
type PassHandler struct {
	passRepo *database.PassRepository
	logger   *logrus.Logger
}

// NewPassHandler creates a new pass handler
func NewPassHandler(passRepo *database.PassRepository, logger *logrus.Logger) *PassHandler {
	return &PassHandler{
		passRepo: passRepo,
		logger:   logger,
	}
}

// parseDateRange reads optional date_from / date_to query params. date_to is
// extended to the end of its day so the range is inclusive.
func parseDateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var from, to *time.Time

	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date_from, expected YYYY-MM-DD"})
			return nil, nil, false
		}
		from = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date_to, expected YYYY-MM-DD"})
			return nil, nil, false
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}

	return from, to, true
}

// ListPasses handles GET /passes. Passengers see their own passes;
// managers and admins see everything. Status/mode/date filters come from
// query params.
func (h *PassHandler) ListPasses(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	filter := models.PassFilter{
		Mode:   c.Query("mode"),
		Status: c.Query("status"),
	}
	if userCtx.Role == models.RolePassenger {
		uid := userCtx.UserID
		filter.UserID = &uid
	}
	if filter.Mode != "" && !models.ValidMode(filter.Mode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode filter"})
		return
	}
	if filter.Status != "" && filter.Status != models.PassStatusActive && filter.Status != models.PassStatusExpired {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	filter.DateFrom = from
	filter.DateTo = to

	now := time.Now()
	passes, err := h.passRepo.ListPasses(filter, now)
	if err != nil {
		h.logger.WithError(err).Error("ListPasses: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching passes"})
		return
	}

	views := make([]models.PassView, len(passes))
	for i, p := range passes {
		views[i] = models.NewPassView(p, now)
	}

	c.JSON(http.StatusOK, gin.H{"passes": views})
}

// GetPassStats handles GET /passes/stats
func (h *PassHandler) GetPassStats(c *gin.Context) {
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

	stats, err := h.passRepo.GetPassStats(scope, time.Now())
	if err != nil {
		h.logger.WithError(err).Error("GetPassStats: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pass statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTopRoutes handles GET /passes/top-routes (manager and admin only)
func (h *PassHandler) GetTopRoutes(c *gin.Context) {
	routes, err := h.passRepo.GetTopRoutes(5)
	if err != nil {
		h.logger.WithError(err).Error("GetTopRoutes: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching top routes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"top_routes": routes})
}

// GetHistory handles GET /history/passes: the caller's passes split into
// active and expired using the end-of-day inclusive rule.
func (h *PassHandler) GetHistory(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	passes, err := h.passRepo.ListPassesByUser(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("GetHistory: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pass history"})
		return
	}

	now := time.Now()
	active := []models.PassView{}
	expired := []models.PassView{}
	all := make([]models.PassView, len(passes))
	for i, p := range passes {
		view := models.NewPassView(p, now)
		all[i] = view
		if view.Status == models.PassStatusActive {
			active = append(active, view)
		} else {
			expired = append(expired, view)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"active":  active,
		"expired": expired,
		"all":     all,
	})
}
