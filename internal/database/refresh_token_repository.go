package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/google/uuid"
)

// RefreshTokenRepository persists refresh tokens so that logout and
// revocation survive process restarts and scale across instances.
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		db: db,
	}
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// StoreRefreshToken stores a refresh token in the database
func (r *RefreshTokenRepository) StoreRefreshToken(
	userID uuid.UUID,
	token string,
	deviceType, os, browser, ipAddress, userAgent string,
	expiresAt time.Time,
) error {
	tokenHash := hashToken(token)

	query := `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, device_type, os, browser,
			ip_address, user_agent, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var deviceTypeVal, osVal, browserVal, ipVal, userAgentVal interface{}

	if deviceType != "" {
		deviceTypeVal = deviceType
	}
	if os != "" {
		osVal = os
	}
	if browser != "" {
		browserVal = browser
	}
	if ipAddress != "" {
		ipVal = ipAddress
	}
	if userAgent != "" {
		userAgentVal = userAgent
	}

	_, err := r.db.Exec(
		query,
		uuid.New(),
		userID,
		tokenHash,
		deviceTypeVal,
		osVal,
		browserVal,
		ipVal,
		userAgentVal,
		time.Now(),
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken retrieves a refresh token record by the raw token, or nil
// if the token was never stored.
func (r *RefreshTokenRepository) GetRefreshToken(token string) (*models.RefreshToken, error) {
	tokenHash := hashToken(token)

	var refreshToken models.RefreshToken

	query := `
		SELECT id, user_id, token_hash, device_type, os, browser,
		       ip_address, user_agent, created_at, expires_at,
		       revoked, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	err := r.db.Get(&refreshToken, query, tokenHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &refreshToken, nil
}

// RevokeToken marks a refresh token as revoked
func (r *RefreshTokenRepository) RevokeToken(token string) error {
	tokenHash := hashToken(token)

	query := `
		UPDATE refresh_tokens
		SET revoked = true, revoked_at = $1
		WHERE token_hash = $2 AND revoked = false
	`

	_, err := r.db.Exec(query, time.Now(), tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// RevokeAllForUser revokes every outstanding refresh token for a user,
// used after password changes.
func (r *RefreshTokenRepository) RevokeAllForUser(userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = true, revoked_at = $1
		WHERE user_id = $2 AND revoked = false
	`

	_, err := r.db.Exec(query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}

	return nil
}

// DeleteExpired removes tokens that expired before the cutoff
func (r *RefreshTokenRepository) DeleteExpired(cutoff time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}

	return rows, nil
}
