package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/google/uuid"
)

// ErrUserNotFound is returned when an operation targets a user that does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// CreateUser creates a new user. The caller is responsible for hashing the
// password and validating the role.
func (r *UserRepository) CreateUser(username, email, passwordHash, phone string, dateOfBirth time.Time, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        phone,
		DateOfBirth:  dateOfBirth,
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query := `
		INSERT INTO users (
			id, username, email, password_hash, phone, date_of_birth,
			role, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(
		query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.DateOfBirth,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, fmt.Errorf("email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email, or nil if not found
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User

	query := `
		SELECT id, username, email, password_hash, phone, date_of_birth,
		       role, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	err := r.db.Get(&user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID, or nil if not found
func (r *UserRepository) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User

	query := `
		SELECT id, username, email, password_hash, phone, date_of_birth,
		       role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

// UpdateProfile updates the mutable profile fields. Empty values are kept
// as-is so partial updates are safe.
func (r *UserRepository) UpdateProfile(id uuid.UUID, username, phone string, dateOfBirth *time.Time) (*models.User, error) {
	query := `
		UPDATE users SET
			username = COALESCE(NULLIF($1, ''), username),
			phone = COALESCE(NULLIF($2, ''), phone),
			date_of_birth = COALESCE($3, date_of_birth),
			updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(query, username, phone, dateOfBirth, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return nil, ErrUserNotFound
	}

	return r.GetUserByID(id)
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateRole changes a user's role (admin operation)
func (r *UserRepository) UpdateRole(id uuid.UUID, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, role, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return nil, ErrUserNotFound
	}

	return r.GetUserByID(id)
}

// DeleteUser removes a user (admin operation)
func (r *UserRepository) DeleteUser(id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListUsers returns users ordered by newest first
func (r *UserRepository) ListUsers(limit, offset int) ([]models.User, error) {
	users := []models.User{}

	query := `
		SELECT id, username, email, password_hash, phone, date_of_birth,
		       role, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	err := r.db.Select(&users, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// CountUsers returns the total number of users
func (r *UserRepository) CountUsers() (int64, error) {
	var count int64

	query := `SELECT COUNT(*) FROM users`

	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
