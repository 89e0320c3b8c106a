package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cfletch1/portfolio-service/internal/models"
)

// CreateUser inserts a new user
func (db *DB) CreateUser(u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, email, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := db.conn.QueryRow(query, u.ID, u.Email, u.Role, time.Now()).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(id uuid.UUID) (*models.User, error) {
	query := `SELECT id, email, role, created_at FROM users WHERE id = $1`

	var u models.User
	err := db.conn.QueryRow(query, id).Scan(&u.ID, &u.Email, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	query := `SELECT id, email, role, created_at FROM users WHERE email = $1`

	var u models.User
	err := db.conn.QueryRow(query, email).Scan(&u.ID, &u.Email, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
