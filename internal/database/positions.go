package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cfletch1/portfolio-service/internal/models"
)

// CreatePosition inserts a new position
func (db *DB) CreatePosition(p *models.Position) error {
	query := `
		INSERT INTO positions (owner_id, symbol, shares, purchase_price, purchase_date,
			current_price, current_price_retrieved_on, position_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := db.conn.QueryRow(query,
		p.OwnerID, p.Symbol, p.Shares, p.PurchasePrice, p.PurchaseDate,
		p.CurrentPrice, p.CurrentPriceRetrievedOn, p.PositionValue, now,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// GetPositionByID retrieves a position by ID
func (db *DB) GetPositionByID(id int) (*models.Position, error) {
	query := `
		SELECT id, owner_id, symbol, shares, purchase_price, purchase_date,
			current_price, current_price_retrieved_on, position_value, created_at, updated_at
		FROM positions
		WHERE id = $1
	`
	p, err := scanPosition(db.conn.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("position not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return p, nil
}

// GetPositionsByOwner retrieves all positions belonging to a user in
// creation order. The order is what makes portfolio revaluation (and
// its first-failure short-circuit) deterministic.
func (db *DB) GetPositionsByOwner(ownerID uuid.UUID) ([]*models.Position, error) {
	query := `
		SELECT id, owner_id, symbol, shares, purchase_price, purchase_date,
			current_price, current_price_retrieved_on, position_value, created_at, updated_at
		FROM positions
		WHERE owner_id = $1
		ORDER BY id ASC
	`
	rows, err := db.conn.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// UpdatePosition writes the full position row back, cached quote
// fields included. Last writer wins across concurrent requests.
func (db *DB) UpdatePosition(p *models.Position) error {
	query := `
		UPDATE positions
		SET symbol = $2, shares = $3, purchase_price = $4, purchase_date = $5,
			current_price = $6, current_price_retrieved_on = $7, position_value = $8,
			updated_at = $9
		WHERE id = $1
	`
	now := time.Now()
	result, err := db.conn.Exec(query,
		p.ID, p.Symbol, p.Shares, p.PurchasePrice, p.PurchaseDate,
		p.CurrentPrice, p.CurrentPriceRetrievedOn, p.PositionValue, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("position not found: %d", p.ID)
	}
	p.UpdatedAt = now
	return nil
}

// DeletePosition removes a position by ID
func (db *DB) DeletePosition(id int) error {
	result, err := db.conn.Exec(`DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("position not found: %d", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var p models.Position
	var retrievedOn sql.NullTime

	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Symbol, &p.Shares, &p.PurchasePrice, &p.PurchaseDate,
		&p.CurrentPrice, &retrievedOn, &p.PositionValue, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if retrievedOn.Valid {
		t := retrievedOn.Time
		p.CurrentPriceRetrievedOn = &t
	}
	return &p, nil
}
