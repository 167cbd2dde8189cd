package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLFavoriteStore keeps the set of products a user has starred.
type SQLFavoriteStore struct {
	DB  *sql.DB
	Now func() time.Time
}

// Add is idempotent.
func (s *SQLFavoriteStore) Add(ctx context.Context, userID int64, productID string) error {
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO favorites (user_id, product_id, created_at) VALUES (?, ?, ?)",
		userID, productID, clock(s.Now).now().UnixNano(),
	)
	// Already starred
	if err != nil && !isDuplicate(err) {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// Remove reports ErrNotFound when the product was not a favorite.
func (s *SQLFavoriteStore) Remove(ctx context.Context, userID int64, productID string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM favorites WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns product ids, most recently added first.
func (s *SQLFavoriteStore) List(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT product_id FROM favorites WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
