package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/google/uuid"
)

// PassRepository handles pass database operations. Passes are insert-only;
// expiry is derived from valid_to at query time, never stored.
type PassRepository struct {
	db DB
}

// NewPassRepository creates a new pass repository
func NewPassRepository(db DB) *PassRepository {
	return &PassRepository{
		db: db,
	}
}

// CreatePass inserts a new pass
func (r *PassRepository) CreatePass(pass *models.Pass) error {
	query := `
		INSERT INTO passes (
			id, user_id, mode, start_location, end_location,
			valid_from, valid_to, pass_type, amount, qr_code, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(
		query,
		pass.ID,
		pass.UserID,
		pass.Mode,
		pass.StartLocation,
		pass.EndLocation,
		pass.ValidFrom,
		pass.ValidTo,
		pass.PassType,
		pass.Amount,
		pass.QRCode,
		pass.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pass: %w", err)
	}

	return nil
}

// GetPassByID retrieves a pass by ID, or nil if not found
func (r *PassRepository) GetPassByID(id uuid.UUID) (*models.Pass, error) {
	var pass models.Pass

	query := `
		SELECT id, user_id, mode, start_location, end_location,
		       valid_from, valid_to, pass_type, amount, qr_code, created_at
		FROM passes
		WHERE id = $1
	`

	err := r.db.Get(&pass, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}

	return &pass, nil
}

// ListPasses returns passes matching the filter, newest first. The Active and
// Expired status filters compare valid_to against now with the end-of-day
// inclusive rule.
func (r *PassRepository) ListPasses(filter models.PassFilter, now time.Time) ([]models.Pass, error) {
	passes := []models.Pass{}

	query := `
		SELECT id, user_id, mode, start_location, end_location,
		       valid_from, valid_to, pass_type, amount, qr_code, created_at
		FROM passes
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Mode != "" {
		args = append(args, filter.Mode)
		query += fmt.Sprintf(" AND mode = $%d", len(args))
	}
	if filter.Status == models.PassStatusActive {
		args = append(args, startOfDay(now))
		query += fmt.Sprintf(" AND valid_to >= $%d", len(args))
	} else if filter.Status == models.PassStatusExpired {
		args = append(args, startOfDay(now))
		query += fmt.Sprintf(" AND valid_to < $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	err := r.db.Select(&passes, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}

	return passes, nil
}

// ListPassesByUser returns all of a user's passes, newest first
func (r *PassRepository) ListPassesByUser(userID uuid.UUID) ([]models.Pass, error) {
	return r.ListPasses(models.PassFilter{UserID: &userID}, time.Now())
}

// CountPasses counts passes for a user scope, or all passes when userID is nil
func (r *PassRepository) CountPasses(userID *uuid.UUID) (int64, error) {
	var count int64
	var err error

	if userID != nil {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM passes WHERE user_id = $1`, *userID).Scan(&count)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM passes`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count passes: %w", err)
	}

	return count, nil
}

// CountPassesCreatedSince counts passes created on or after the cutoff
func (r *PassRepository) CountPassesCreatedSince(cutoff time.Time) (int64, error) {
	var count int64

	err := r.db.QueryRow(`SELECT COUNT(*) FROM passes WHERE created_at >= $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent passes: %w", err)
	}

	return count, nil
}

// GetPassStats aggregates counts and revenue for a user scope, or the whole
// system when userID is nil.
func (r *PassRepository) GetPassStats(userID *uuid.UUID, now time.Time) (*models.PassStats, error) {
	stats := &models.PassStats{}

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE valid_to >= $1),
		       COUNT(*) FILTER (WHERE valid_to < $1),
		       COALESCE(SUM(amount), 0)
		FROM passes
	`
	args := []interface{}{startOfDay(now)}

	if userID != nil {
		query += " WHERE user_id = $2"
		args = append(args, *userID)
	}

	err := r.db.QueryRow(query, args...).Scan(
		&stats.TotalPasses,
		&stats.ActivePasses,
		&stats.ExpiredPasses,
		&stats.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pass stats: %w", err)
	}

	return stats, nil
}

// GetTopRoutes returns the highest-revenue (start, end) route pairs
func (r *PassRepository) GetTopRoutes(limit int) ([]models.RouteStat, error) {
	routes := []models.RouteStat{}

	query := `
		SELECT start_location, end_location,
		       COALESCE(SUM(amount), 0) AS total_amount,
		       COUNT(*) AS pass_count
		FROM passes
		GROUP BY start_location, end_location
		ORDER BY total_amount DESC
		LIMIT $1
	`

	err := r.db.Select(&routes, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top routes: %w", err)
	}

	return routes, nil
}

// ListRecentPasses returns the newest passes across all users
func (r *PassRepository) ListRecentPasses(limit int) ([]models.Pass, error) {
	passes := []models.Pass{}

	query := `
		SELECT id, user_id, mode, start_location, end_location,
		       valid_from, valid_to, pass_type, amount, qr_code, created_at
		FROM passes
		ORDER BY created_at DESC
		LIMIT $1
	`

	err := r.db.Select(&passes, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent passes: %w", err)
	}

	return passes, nil
}

// startOfDay truncates t to midnight in its location. A pass whose valid_to
// falls on today's date is still active, so active/expired comparisons use
// this boundary rather than the instant itself.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
