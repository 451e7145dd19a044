package database

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refreshTokenColumns() []string {
	return []string{
		"id", "user_id", "token_hash", "device_type", "os", "browser",
		"ip_address", "user_agent", "created_at", "expires_at",
		"revoked", "revoked_at",
	}
}

func TestHashToken(t *testing.T) {
	raw := "some-refresh-token"
	sum := sha256.Sum256([]byte(raw))

	assert.Equal(t, hex.EncodeToString(sum[:]), hashToken(raw))
	assert.NotEqual(t, hashToken(raw), hashToken(raw+"x"))
}

func TestStoreRefreshToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		repo := NewRefreshTokenRepository(db)
		userID := uuid.New()

		mock.ExpectExec(`INSERT INTO refresh_tokens`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.StoreRefreshToken(
			userID, "raw-token",
			"Desktop", "Linux", "Firefox", "10.0.0.1", "Mozilla/5.0",
			time.Now().Add(7*24*time.Hour),
		)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Device Fields Stored As NULL", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		repo := NewRefreshTokenRepository(db)

		mock.ExpectExec(`INSERT INTO refresh_tokens`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.StoreRefreshToken(
			uuid.New(), "raw-token",
			"", "", "", "", "",
			time.Now().Add(7*24*time.Hour),
		)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		repo := NewRefreshTokenRepository(db)

		mock.ExpectExec(`INSERT INTO refresh_tokens`).
			WillReturnError(assert.AnError)

		err := repo.StoreRefreshToken(
			uuid.New(), "raw-token",
			"", "", "", "", "",
			time.Now().Add(7*24*time.Hour),
		)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to store refresh token")
	})
}

func TestGetRefreshToken(t *testing.T) {
	t.Run("Success Looks Up By Hash", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		repo := NewRefreshTokenRepository(db)
		userID := uuid.New()
		raw := "raw-token"

		rows := sqlmock.NewRows(refreshTokenColumns()).
			AddRow(
				uuid.New(), userID, hashToken(raw), nil, nil, nil,
				nil, nil, time.Now(), time.Now().Add(24*time.Hour),
				false, nil,
			)

		mock.ExpectQuery(`SELECT (.+) FROM refresh_tokens WHERE token_hash = \$1`).
			WithArgs(hashToken(raw)).
			WillReturnRows(rows)

		token, err := repo.GetRefreshToken(raw)

		require.NoError(t, err)
		require.NotNil(t, token)
		assert.Equal(t, userID, token.UserID)
		assert.False(t, token.Revoked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found Returns Nil", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		repo := NewRefreshTokenRepository(db)

		mock.ExpectQuery(`SELECT (.+) FROM refresh_tokens WHERE token_hash = \$1`).
			WillReturnRows(sqlmock.NewRows(refreshTokenColumns()))

		token, err := repo.GetRefreshToken("unknown-token")

		assert.NoError(t, err)
		assert.Nil(t, token)
	})
}

func TestRevokeToken(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewRefreshTokenRepository(db)
	raw := "raw-token"

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked = true`).
		WithArgs(sqlmock.AnyArg(), hashToken(raw)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RevokeToken(raw)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllForUser(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewRefreshTokenRepository(db)
	userID := uuid.New()

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked = true`).
		WithArgs(sqlmock.AnyArg(), userID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.RevokeAllForUser(userID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpired(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewRefreshTokenRepository(db)
	cutoff := time.Now()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 5))

	deleted, err := repo.DeleteExpired(cutoff)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
