package handlers

import (
	"errors"
	"net/http"

	"github.com/chennaitransit/pass-backend/internal/middleware"
	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/chennaitransit/pass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PaymentHandler exposes the pass purchase workflow
type PaymentHandler struct {
	purchaseService *services.PurchaseService
	logger          *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(purchaseService *services.PurchaseService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		purchaseService: purchaseService,
		logger:          logger,
	}
}

// BuyPass handles POST /payment/buy-pass. The price is always recomputed
// server-side from the route and tier; any client-supplied amount is
// ignored.
func (h *PaymentHandler) BuyPass(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.purchaseService.Purchase(userCtx.UserID, req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).WithField("user_id", userCtx.UserID).Error("Pass purchase failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete purchase"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Pass purchased successfully",
		"transaction": result.Transaction,
		"pass":        result.Pass,
	})
}

// Quote handles POST /payment/quote: price a prospective purchase without
// writing anything. Lets clients show the fare before checkout.
func (h *PaymentHandler) Quote(pricing *services.PricingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		start, end := req.StartLocation, req.EndLocation
		if req.Mode == models.ModeAllInOne {
			start, end = models.AllZones, models.AllZones
		}

		amount, err := pricing.Price(req.Mode, req.PassType, start, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"mode":           req.Mode,
			"pass_type":      req.PassType,
			"start_location": start,
			"end_location":   end,
			"amount":         amount,
		})
	}
}
