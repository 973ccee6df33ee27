package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

const userColumns = `id, username, password_hash, email, phone, role, last_login_at, created_at, updated_at`

func (s *BaseStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := s.Converter(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	err := sqlx.GetContext(ctx, s.ext(), &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

func (s *BaseStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := s.Converter(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)

	err := sqlx.GetContext(ctx, s.ext(), &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// GetUserByEmail matches case-insensitively.
func (s *BaseStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := s.Converter(`SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER(?) ORDER BY id LIMIT 1`)

	err := sqlx.GetContext(ctx, s.ext(), &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (s *BaseStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	id, err := s.insertReturningID(ctx, `
		INSERT INTO users (username, password_hash, email, phone, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, user.Username, user.PasswordHash, user.Email, user.Phone, user.Role, now, now)
	if s.uniqueViolation(err) {
		return models.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *BaseStore) TouchLastLogin(ctx context.Context, userID int64) error {
	now := time.Now().UTC()
	if _, err := s.exec(ctx, `UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`, now, now, userID); err != nil {
		return fmt.Errorf("failed to update last login of user %d: %w", userID, err)
	}
	return nil
}
