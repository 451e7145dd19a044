package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transactionColumns() []string {
	return []string{
		"id", "transaction_id", "user_id", "amount", "method",
		"mode", "pass_type", "status", "pass_id", "created_at",
	}
}

func TestCreateTransaction(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewTransactionRepository(mockDB)

	tx := &models.Transaction{
		ID:            uuid.New(),
		TransactionID: uuid.New().String(),
		UserID:        uuid.New(),
		Amount:        100,
		Method:        models.DefaultPaymentMethod,
		Mode:          models.ModeAllInOne,
		PassType:      models.PassTypeOneDay,
		Status:        models.TransactionStatusSuccess,
		CreatedAt:     time.Now(),
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(
				tx.ID, tx.TransactionID, tx.UserID, tx.Amount, tx.Method,
				tx.Mode, tx.PassType, tx.Status, tx.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.CreateTransaction(tx)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO transactions`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.CreateTransaction(tx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create transaction")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAttachPass(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewTransactionRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		txID := uuid.New()
		passID := uuid.New()

		mock.ExpectExec(`UPDATE transactions SET pass_id`).
			WithArgs(passID, txID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.AttachPass(txID, passID)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Transaction Not Found", func(t *testing.T) {
		txID := uuid.New()
		passID := uuid.New()

		mock.ExpectExec(`UPDATE transactions SET pass_id`).
			WithArgs(passID, txID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.AttachPass(txID, passID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "transaction not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListTransactions(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewTransactionRepository(mockDB)

	addTxRow := func(rows *sqlmock.Rows, userID uuid.UUID, amount int64) *sqlmock.Rows {
		return rows.AddRow(
			uuid.New(), uuid.New().String(), userID, amount, models.DefaultPaymentMethod,
			models.ModeBus, models.PassTypeOneDay, models.TransactionStatusSuccess, nil, time.Now(),
		)
	}

	t.Run("No Filter", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE 1=1 ORDER BY created_at DESC`).
			WillReturnRows(addTxRow(sqlmock.NewRows(transactionColumns()), uuid.New(), 30))

		txs, err := repo.ListTransactions(models.TransactionFilter{})
		require.NoError(t, err)
		assert.Len(t, txs, 1)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("User And Amount Filter", func(t *testing.T) {
		userID := uuid.New()
		minAmount := int64(50)
		maxAmount := int64(500)

		mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE 1=1 AND user_id = \$1 AND amount >= \$2 AND amount <= \$3`).
			WithArgs(userID, minAmount, maxAmount).
			WillReturnRows(addTxRow(sqlmock.NewRows(transactionColumns()), userID, 100))

		txs, err := repo.ListTransactions(models.TransactionFilter{
			UserID:    &userID,
			MinAmount: &minAmount,
			MaxAmount: &maxAmount,
		})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, userID, txs[0].UserID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Status And Mode Filter", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE 1=1 AND status = \$1 AND mode = \$2`).
			WithArgs(models.TransactionStatusSuccess, models.ModeBus).
			WillReturnRows(sqlmock.NewRows(transactionColumns()))

		txs, err := repo.ListTransactions(models.TransactionFilter{
			Status: models.TransactionStatusSuccess,
			Mode:   models.ModeBus,
		})
		require.NoError(t, err)
		assert.Len(t, txs, 0)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTransactionStats(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewTransactionRepository(mockDB)

	t.Run("System Wide", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\),`).
			WillReturnRows(sqlmock.NewRows([]string{"total", "completed", "revenue", "avg"}).
				AddRow(20, 20, 3400, 170))

		stats, err := repo.GetTransactionStats(nil)
		require.NoError(t, err)
		assert.Equal(t, int64(20), stats.TotalTransactions)
		assert.Equal(t, int64(20), stats.CompletedTransactions)
		assert.Equal(t, int64(3400), stats.TotalRevenue)
		assert.Equal(t, int64(170), stats.AverageAmount)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Scoped To User", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectQuery(`SELECT COUNT\(\*\),`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"total", "completed", "revenue", "avg"}).
				AddRow(3, 3, 230, 77))

		stats, err := repo.GetTransactionStats(&userID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalTransactions)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSumRevenueSince(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewTransactionRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\)`).
			WithArgs(cutoff).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(1500))

		total, err := repo.SumRevenueSince(cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), total)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\)`).
			WillReturnError(fmt.Errorf("database error"))

		total, err := repo.SumRevenueSince(time.Time{})
		assert.Error(t, err)
		assert.Equal(t, int64(0), total)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetModeStats(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewTransactionRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT mode, COUNT\(\*\) AS count`).
			WillReturnRows(sqlmock.NewRows([]string{"mode", "count", "revenue"}).
				AddRow(models.ModeAllInOne, 5, 2000).
				AddRow(models.ModeBus, 12, 900))

		stats, err := repo.GetModeStats()
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, models.ModeAllInOne, stats[0].Mode)
		assert.Equal(t, int64(2000), stats[0].Revenue)
		assert.Equal(t, int64(12), stats[1].Count)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
