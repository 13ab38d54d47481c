package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glagol-app/glagol/internal/auth"
)

// UserByUsername fetches an account record for login.
func (s *SQLStore) UserByUsername(ctx context.Context, username string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, role
		FROM users WHERE username=$1`, username)
	var u auth.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return auth.User{}, err
	}
	return u, nil
}

// CreateUser inserts an account and returns its id. The username unique
// constraint surfaces as a driver error.
func (s *SQLStore) CreateUser(ctx context.Context, username, passwordHash, role string) (int64, error) {
	return s.insertReturningID(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES ($1,$2,$3,$4)`,
		username, passwordHash, role, s.now().Unix())
}
