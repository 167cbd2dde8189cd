package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/01moynul/storefront-golang/internal/models"
)

// SQLOrderStore persists orders. The full order is kept as a JSON document;
// user_id, email, status and total are duplicated into columns for lookups.
type SQLOrderStore struct {
	DB *sql.DB
}

// Create stores o as a JSON document plus the columns orders are queried by.
func (s *SQLOrderStore) Create(ctx context.Context, o *models.Order) error {
	// 1. --- Encode the full order ---
	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", o.ID, err)
	}

	// 2. --- Guest orders have no user ---
	var userID sql.NullInt64
	if o.UserID != nil {
		userID = sql.NullInt64{Int64: *o.UserID, Valid: true}
	}

	// 3. --- Insert ---
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, email, status, total, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, userID, o.Email, o.Status, o.Totals.Total, string(doc), o.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return nil
}

func (s *SQLOrderStore) Get(ctx context.Context, id string) (*models.Order, error) {
	var doc string
	err := s.DB.QueryRowContext(ctx, "SELECT document FROM orders WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return decodeOrder(doc)
}

// ListByUser returns a user's orders, newest first.
func (s *SQLOrderStore) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT document FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o, err := decodeOrder(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func decodeOrder(doc string) (*models.Order, error) {
	var o models.Order
	if err := json.Unmarshal([]byte(doc), &o); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &o, nil
}
