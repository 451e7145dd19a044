package handlers

import (
	"net/http"
	"time"

	"github.com/chennaitransit/pass-backend/internal/database"
	"github.com/chennaitransit/pass-backend/internal/middleware"
	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DashboardHandler aggregates role-specific dashboard data
type DashboardHandler struct {
	userRepo        *database.UserRepository
	passRepo        *database.PassRepository
	transactionRepo *database.TransactionRepository
	logger          *logrus.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	userRepo *database.UserRepository,
	passRepo *database.PassRepository,
	transactionRepo *database.TransactionRepository,
	logger *logrus.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		userRepo:        userRepo,
		passRepo:        passRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// GetDashboard handles GET /dashboard, dispatching on the caller's role
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	switch userCtx.Role {
	case models.RolePassenger:
		h.passengerDashboard(c, userCtx)
	case models.RoleManager:
		h.ManagerDashboard(c)
	case models.RoleAdmin:
		h.AdminDashboard(c)
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized role"})
	}
}

// passengerDashboard returns the caller's passes and transactions
func (h *DashboardHandler) passengerDashboard(c *gin.Context, userCtx middleware.UserContext) {
	passes, err := h.passRepo.ListPassesByUser(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Dashboard: pass query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	uid := userCtx.UserID
	transactions, err := h.transactionRepo.ListTransactions(models.TransactionFilter{UserID: &uid})
	if err != nil {
		h.logger.WithError(err).Error("Dashboard: transaction query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	now := time.Now()
	views := make([]models.PassView, len(passes))
	for i, p := range passes {
		views[i] = models.NewPassView(p, now)
	}

	c.JSON(http.StatusOK, gin.H{
		"role":         userCtx.Role,
		"passes":       views,
		"transactions": transactions,
	})
}

// revenueWindows computes total / today / weekly / monthly revenue
func (h *DashboardHandler) revenueWindows(now time.Time) (total, today, weekly, monthly int64, err error) {
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if total, err = h.transactionRepo.SumRevenueSince(time.Time{}); err != nil {
		return
	}
	if today, err = h.transactionRepo.SumRevenueSince(startOfToday); err != nil {
		return
	}
	if weekly, err = h.transactionRepo.SumRevenueSince(startOfToday.AddDate(0, 0, -7)); err != nil {
		return
	}
	monthly, err = h.transactionRepo.SumRevenueSince(startOfToday.AddDate(0, 0, -30))
	return
}

// AdminDashboard handles GET /dashboard/admin
func (h *DashboardHandler) AdminDashboard(c *gin.Context) {
	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	totalUsers, err := h.userRepo.CountUsers()
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	totalPasses, err := h.passRepo.CountPasses(nil)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	totalTransactions, err := h.transactionRepo.CountTransactions(nil)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	todayTransactions, err := h.transactionRepo.CountTransactionsCreatedSince(startOfToday)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	todayPasses, err := h.passRepo.CountPassesCreatedSince(startOfToday)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	passStats, err := h.passRepo.GetPassStats(nil, now)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	modeStats, err := h.transactionRepo.GetModeStats()
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	recentUsers, err := h.userRepo.ListUsers(4, 0)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	recentTransactions, err := h.transactionRepo.ListRecentTransactions(4)
	if err != nil {
		h.dashboardError(c, err)
		return
	}

	totalRevenue, todayRevenue, weeklyRevenue, monthlyRevenue, err := h.revenueWindows(now)
	if err != nil {
		h.dashboardError(c, err)
		return
	}

	var avgTransactionValue int64
	if totalTransactions > 0 {
		avgTransactionValue = totalRevenue / totalTransactions
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"total_users":               totalUsers,
			"total_passes":              totalPasses,
			"total_transactions":        totalTransactions,
			"total_revenue":             totalRevenue,
			"active_passes":             passStats.ActivePasses,
			"today_revenue":             todayRevenue,
			"today_passes":              todayPasses,
			"today_transactions":        todayTransactions,
			"weekly_revenue":            weeklyRevenue,
			"monthly_revenue":           monthlyRevenue,
			"average_transaction_value": avgTransactionValue,
			"top_transport_modes":       modeStats,
		},
		"recent_users":        recentUsers,
		"recent_transactions": recentTransactions,
	})
}

// ManagerDashboard handles GET /dashboard/manager
func (h *DashboardHandler) ManagerDashboard(c *gin.Context) {
	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	passStats, err := h.passRepo.GetPassStats(nil, now)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	todayPasses, err := h.passRepo.CountPassesCreatedSince(startOfToday)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	modeStats, err := h.transactionRepo.GetModeStats()
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	recentPasses, err := h.passRepo.ListRecentPasses(5)
	if err != nil {
		h.dashboardError(c, err)
		return
	}

	totalRevenue, todayRevenue, weeklyRevenue, monthlyRevenue, err := h.revenueWindows(now)
	if err != nil {
		h.dashboardError(c, err)
		return
	}

	var avgPassValue int64
	if passStats.TotalPasses > 0 {
		avgPassValue = totalRevenue / passStats.TotalPasses
	}

	views := make([]models.PassView, len(recentPasses))
	for i, p := range recentPasses {
		views[i] = models.NewPassView(p, now)
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"total_passes":       passStats.TotalPasses,
			"active_passes":      passStats.ActivePasses,
			"today_passes":       todayPasses,
			"total_revenue":      totalRevenue,
			"today_revenue":      todayRevenue,
			"weekly_revenue":     weeklyRevenue,
			"monthly_revenue":    monthlyRevenue,
			"average_pass_value": avgPassValue,
			"top_routes":         modeStats,
		},
		"recent_passes": views,
	})
}

func (h *DashboardHandler) dashboardError(c *gin.Context, err error) {
	h.logger.WithError(err).Error("Dashboard query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
}
