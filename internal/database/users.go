package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"roomrenting/internal/models"

	"github.com/mattn/go-sqlite3"
)

// UserRecord is a user row including the password hash.
type UserRecord struct {
	models.User
	PasswordHash string
}

func (db *DB) CreateUser(ctx context.Context, user *UserRecord) error {
	query := `INSERT INTO users (name, email, password_hash, phone_number, user_type)
              VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		user.Name,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.PasswordHash,
		user.PhoneNumber,
		string(user.UserType),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.UserID = id
	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	query := `SELECT id, name, email, password_hash, phone_number, user_type
              FROM users WHERE email = ?`
	var u UserRecord
	var role string
	err := db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.PhoneNumber, &role,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.UserType = models.Role(role)
	return &u, nil
}
