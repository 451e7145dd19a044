package handlers

import (
	"fmt"
	"net/http"
	"time"
	"unicode"

	"github.com/chennaitransit/pass-backend/internal/config"
	"github.com/chennaitransit/pass-backend/internal/database"
	"github.com/chennaitransit/pass-backend/internal/middleware"
	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/chennaitransit/pass-backend/internal/utils"
	"github.com/chennaitransit/pass-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles signup, login, token and profile operations
type AuthHandler struct {
	jwtService       *jwt.Service
	userRepo         *database.UserRepository
	refreshTokenRepo *database.RefreshTokenRepository
	resetTokenRepo   *database.ResetTokenRepository
	cfg              *config.Config
	logger           *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	jwtService *jwt.Service,
	userRepo *database.UserRepository,
	refreshTokenRepo *database.RefreshTokenRepository,
	resetTokenRepo *database.ResetTokenRepository,
	cfg *config.Config,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		jwtService:       jwtService,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		resetTokenRepo:   resetTokenRepo,
		cfg:              cfg,
		logger:           logger,
	}
}

// isStrongPassword checks the password policy: at least 8 characters with
// uppercase, lowercase, digit and special character.
func isStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}

// Signup registers a new user and returns tokens
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	existing, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Signup: email lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}

	// Role is caller-selectable but whitelisted; anything else falls back
	// to Passenger.
	role := models.RolePassenger
	if models.ValidRole(req.Role) {
		role = req.Role
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cfg.Security.BcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("Signup: password hashing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	user, err := h.userRepo.CreateUser(req.Username, req.Email, string(hash), req.Phone, req.DateOfBirth, role)
	if err != nil {
		h.logger.WithError(err).Error("Signup: user creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		h.logger.WithError(err).Error("Signup: token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")

	c.JSON(http.StatusCreated, models.AuthResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(h.jwtService.AccessTokenExpiry().Seconds()),
		User:        user,
	})
}

// Login authenticates a user and issues an access + refresh token pair. The
// refresh token is stored hashed, with device metadata, so it can be
// revoked later.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Login: email lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		h.logger.WithError(err).Error("Login: access token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		h.logger.WithError(err).Error("Login: refresh token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	device := utils.ParseUserAgent(c.Request.UserAgent())
	expiresAt := time.Now().Add(h.jwtService.RefreshTokenExpiry())
	if err := h.refreshTokenRepo.StoreRefreshToken(
		user.ID,
		refreshToken,
		device.DeviceType,
		device.OS,
		device.Browser,
		c.ClientIP(),
		device.Raw,
		expiresAt,
	); err != nil {
		h.logger.WithError(err).Error("Login: failed to store refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User logged in")

	c.JSON(http.StatusOK, models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(h.jwtService.AccessTokenExpiry().Seconds()),
		User:         user,
	})
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No refresh token provided"})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid refresh token"})
		return
	}

	stored, err := h.refreshTokenRepo.GetRefreshToken(req.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Error("Refresh: token lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if stored == nil || stored.Revoked {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid refresh token"})
		return
	}
	if time.Now().After(stored.ExpiresAt) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Refresh token has expired"})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		h.logger.WithError(err).Error("Refresh: access token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(h.jwtService.AccessTokenExpiry().Seconds()),
	})
}

// Logout revokes the presented refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No refresh token provided"})
		return
	}

	if err := h.refreshTokenRepo.RevokeToken(req.RefreshToken); err != nil {
		h.logger.WithError(err).Error("Logout: token revocation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetProfile returns the authenticated user's profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userRepo.GetUserByID(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("GetProfile: user lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's mutable profile fields
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.userRepo.UpdateProfile(userCtx.UserID, req.Username, req.Phone, req.DateOfBirth)
	if err != nil {
		h.logger.WithError(err).Error("UpdateProfile: update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangePassword verifies the current password and replaces it. All
// refresh tokens are revoked afterwards so stolen sessions die with the
// old password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.userRepo.GetUserByID(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("ChangePassword: user lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New password and confirm password do not match"})
		return
	}
	if req.NewPassword == req.CurrentPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New password must be different from current password"})
		return
	}
	if !isStrongPassword(req.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Password must be at least 8 characters long and include uppercase, lowercase, number, and special character",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.cfg.Security.BcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("ChangePassword: password hashing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := h.userRepo.UpdatePassword(user.ID, string(hash)); err != nil {
		h.logger.WithError(err).Error("ChangePassword: update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := h.refreshTokenRepo.RevokeAllForUser(user.ID); err != nil {
		h.logger.WithError(err).Warn("ChangePassword: failed to revoke sessions")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// ForgotPassword issues a store-backed, time-limited reset token. Email
// delivery is out of scope; the reset link is returned in the response the
// way the development fallback worked.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		h.logger.WithError(err).Error("ForgotPassword: email lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No account with that email"})
		return
	}

	token, err := utils.GenerateResetToken()
	if err != nil {
		h.logger.WithError(err).Error("ForgotPassword: token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	expiresAt := time.Now().Add(h.cfg.Security.ResetTokenExpiry)
	if err := h.resetTokenRepo.StoreResetToken(user.ID, token, expiresAt); err != nil {
		h.logger.WithError(err).Error("ForgotPassword: failed to store reset token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	resetLink := fmt.Sprintf("%s/reset-password/%s", h.cfg.Server.FrontendURL, token)

	h.logger.WithField("user_id", user.ID).Info("Password reset token issued")

	c.JSON(http.StatusOK, gin.H{
		"message":    "Reset link generated",
		"reset_link": resetLink,
	})
}

// ResetPassword consumes a reset token and sets a new password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")

	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	stored, err := h.resetTokenRepo.GetResetToken(token)
	if err != nil {
		h.logger.WithError(err).Error("ResetPassword: token lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if stored == nil || stored.Used || time.Now().After(stored.ExpiresAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}
	if !isStrongPassword(req.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Password must be at least 8 characters long and include uppercase, lowercase, number, and special character",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.cfg.Security.BcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("ResetPassword: password hashing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := h.userRepo.UpdatePassword(stored.UserID, string(hash)); err != nil {
		h.logger.WithError(err).Error("ResetPassword: update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := h.resetTokenRepo.MarkUsed(token); err != nil {
		h.logger.WithError(err).Warn("ResetPassword: failed to mark token used")
	}

	if err := h.refreshTokenRepo.RevokeAllForUser(stored.UserID); err != nil {
		h.logger.WithError(err).Warn("ResetPassword: failed to revoke sessions")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
