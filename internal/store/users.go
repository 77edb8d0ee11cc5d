package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"heritage-platform/internal/models"
)

const userColumns = `id, email, password_hash, name, role, created_at`

// CreateUser inserts a new account with the default 'user' role and
// returns the persisted record. A duplicate email maps to ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, name string) (models.User, error) {
	var user models.User
	query := `INSERT INTO users (email, password_hash, name)
	          VALUES ($1, $2, $3)
	          RETURNING ` + userColumns

	err := s.db.GetContext(ctx, &user, query, email, passwordHash, name)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := s.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("getting user %d: %w", id, err)
	}

	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("getting user by email: %w", err)
	}

	return user, nil
}

// ListUsers returns every account, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return users, nil
}

// SetRole changes a user's role. The WHERE clause re-counts superusers
// inside the same statement, so demoting the last superuser can never
// succeed even under concurrent calls: the count and the write are one
// atomic update. A zero-row result is disambiguated afterwards into
// ErrNotFound or ErrLastSuperuser.
func (s *Store) SetRole(ctx context.Context, id int64, role models.Role) (models.User, error) {
	var user models.User
	query := `UPDATE users SET role = $1
	          WHERE id = $2
	            AND (role <> 'superuser' OR $1 = 'superuser'
	                 OR (SELECT COUNT(*) FROM users WHERE role = 'superuser') > 1)
	          RETURNING ` + userColumns

	err := s.db.GetContext(ctx, &user, query, role, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("setting role for user %d: %w", id, err)
	}

	// Nothing matched: either the user does not exist, or the guard
	// blocked the demotion of the only remaining superuser.
	if _, lookupErr := s.GetUserByID(ctx, id); lookupErr != nil {
		return models.User{}, lookupErr
	}
	return models.User{}, ErrLastSuperuser
}

// UpdateUserName renames the account and returns the updated record.
func (s *Store) UpdateUserName(ctx context.Context, id int64, name string) (models.User, error) {
	var user models.User
	query := `UPDATE users SET name = $1 WHERE id = $2 RETURNING ` + userColumns

	err := s.db.GetContext(ctx, &user, query, name, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("renaming user %d: %w", id, err)
	}

	return user, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating password for user %d: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
