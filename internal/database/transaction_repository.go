package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/google/uuid"
)

// TransactionRepository handles payment transaction database operations
type TransactionRepository struct {
	db DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db DB) *TransactionRepository {
	return &TransactionRepository{
		db: db,
	}
}

// CreateTransaction inserts a new transaction. The pass reference is not set
// here; it is attached with AttachPass once the pass exists.
func (r *TransactionRepository) CreateTransaction(tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, transaction_id, user_id, amount, method,
			mode, pass_type, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(
		query,
		tx.ID,
		tx.TransactionID,
		tx.UserID,
		tx.Amount,
		tx.Method,
		tx.Mode,
		tx.PassType,
		tx.Status,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// AttachPass back-links a transaction to the pass it paid for
func (r *TransactionRepository) AttachPass(transactionID, passID uuid.UUID) error {
	query := `UPDATE transactions SET pass_id = $1 WHERE id = $2`

	result, err := r.db.Exec(query, passID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to attach pass to transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction not found")
	}

	return nil
}

// GetTransactionByID retrieves a transaction by ID, or nil if not found
func (r *TransactionRepository) GetTransactionByID(id uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction

	query := `
		SELECT id, transaction_id, user_id, amount, method,
		       mode, pass_type, status, pass_id, created_at
		FROM transactions
		WHERE id = $1
	`

	err := r.db.Get(&tx, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

// ListTransactions returns transactions matching the filter, newest first
func (r *TransactionRepository) ListTransactions(filter models.TransactionFilter) ([]models.Transaction, error) {
	transactions := []models.Transaction{}

	query := `
		SELECT id, transaction_id, user_id, amount, method,
		       mode, pass_type, status, pass_id, created_at
		FROM transactions
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Mode != "" {
		args = append(args, filter.Mode)
		query += fmt.Sprintf(" AND mode = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	if filter.MinAmount != nil {
		args = append(args, *filter.MinAmount)
		query += fmt.Sprintf(" AND amount >= $%d", len(args))
	}
	if filter.MaxAmount != nil {
		args = append(args, *filter.MaxAmount)
		query += fmt.Sprintf(" AND amount <= $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	err := r.db.Select(&transactions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, nil
}

// CountTransactions counts transactions for a user scope, or all when nil
func (r *TransactionRepository) CountTransactions(userID *uuid.UUID) (int64, error) {
	var count int64
	var err error

	if userID != nil {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, *userID).Scan(&count)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// CountTransactionsCreatedSince counts transactions created on or after the cutoff
func (r *TransactionRepository) CountTransactionsCreatedSince(cutoff time.Time) (int64, error) {
	var count int64

	err := r.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE created_at >= $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent transactions: %w", err)
	}

	return count, nil
}

// GetTransactionStats aggregates counts, revenue and mean amount for a user
// scope, or the whole system when userID is nil. Revenue only counts
// successful transactions.
func (r *TransactionRepository) GetTransactionStats(userID *uuid.UUID) (*models.TransactionStats, error) {
	stats := &models.TransactionStats{}

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'success'),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'success'), 0),
		       COALESCE(ROUND(AVG(amount)), 0)
		FROM transactions
	`
	args := []interface{}{}

	if userID != nil {
		query += " WHERE user_id = $1"
		args = append(args, *userID)
	}

	err := r.db.QueryRow(query, args...).Scan(
		&stats.TotalTransactions,
		&stats.CompletedTransactions,
		&stats.TotalRevenue,
		&stats.AverageAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction stats: %w", err)
	}

	return stats, nil
}

// SumRevenueSince totals successful transaction amounts created on or after
// the cutoff; a zero cutoff totals everything.
func (r *TransactionRepository) SumRevenueSince(cutoff time.Time) (int64, error) {
	var total int64

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE status = 'success' AND created_at >= $1
	`

	err := r.db.QueryRow(query, cutoff).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return total, nil
}

// GetModeStats returns per-mode transaction counts and revenue for
// successful transactions, highest revenue first.
func (r *TransactionRepository) GetModeStats() ([]models.ModeStat, error) {
	stats := []models.ModeStat{}

	query := `
		SELECT mode, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS revenue
		FROM transactions
		WHERE status = 'success'
		GROUP BY mode
		ORDER BY revenue DESC
	`

	err := r.db.Select(&stats, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get mode stats: %w", err)
	}

	return stats, nil
}

// ListRecentTransactions returns the newest transactions across all users
func (r *TransactionRepository) ListRecentTransactions(limit int) ([]models.Transaction, error) {
	transactions := []models.Transaction{}

	query := `
		SELECT id, transaction_id, user_id, amount, method,
		       mode, pass_type, status, pass_id, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1
	`

	err := r.db.Select(&transactions, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}

	return transactions, nil
}
