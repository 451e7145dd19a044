package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/google/uuid"
)

// ResetTokenRepository persists password reset tokens. Tokens are stored
// hashed and are single-use.
type ResetTokenRepository struct {
	db DB
}

// NewResetTokenRepository creates a new reset token repository
func NewResetTokenRepository(db DB) *ResetTokenRepository {
	return &ResetTokenRepository{
		db: db,
	}
}

// StoreResetToken stores a password reset token for a user
func (r *ResetTokenRepository) StoreResetToken(userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO password_reset_tokens (token_hash, user_id, expires_at, used, created_at)
		VALUES ($1, $2, $3, false, $4)
	`

	_, err := r.db.Exec(query, hashToken(token), userID, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	return nil
}

// GetResetToken retrieves a reset token record by the raw token, or nil if
// the token was never issued.
func (r *ResetTokenRepository) GetResetToken(token string) (*models.PasswordResetToken, error) {
	var resetToken models.PasswordResetToken

	query := `
		SELECT token_hash, user_id, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`

	err := r.db.Get(&resetToken, query, hashToken(token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return &resetToken, nil
}

// MarkUsed consumes a reset token so it cannot be replayed
func (r *ResetTokenRepository) MarkUsed(token string) error {
	query := `UPDATE password_reset_tokens SET used = true WHERE token_hash = $1 AND used = false`

	result, err := r.db.Exec(query, hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("reset token not found or already used")
	}

	return nil
}
