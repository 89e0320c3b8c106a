package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cfletch1/portfolio-service/internal/models"
)

// AddWatchlistEntry adds a symbol to a user's watchlist. Adding the
// same symbol twice is a no-op.
func (db *DB) AddWatchlistEntry(e *models.WatchlistEntry) error {
	query := `
		INSERT INTO watchlist (owner_id, symbol, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, symbol) DO NOTHING
	`
	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now()
	}
	if _, err := db.conn.Exec(query, e.OwnerID, e.Symbol, e.AddedAt); err != nil {
		return fmt.Errorf("failed to add watchlist entry: %w", err)
	}
	return nil
}

// RemoveWatchlistEntry removes a symbol from a user's watchlist
func (db *DB) RemoveWatchlistEntry(ownerID uuid.UUID, symbol string) error {
	result, err := db.conn.Exec(`DELETE FROM watchlist WHERE owner_id = $1 AND symbol = $2`, ownerID, symbol)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist entry not found: %s", symbol)
	}
	return nil
}

// GetWatchlistByOwner retrieves a user's watchlist in the order the
// symbols were added
func (db *DB) GetWatchlistByOwner(ownerID uuid.UUID) ([]*models.WatchlistEntry, error) {
	query := `
		SELECT owner_id, symbol, added_at
		FROM watchlist
		WHERE owner_id = $1
		ORDER BY added_at ASC, symbol ASC
	`
	rows, err := db.conn.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchlistEntry
	for rows.Next() {
		var e models.WatchlistEntry
		if err := rows.Scan(&e.OwnerID, &e.Symbol, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
