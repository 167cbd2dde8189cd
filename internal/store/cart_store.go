package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/models"
)

// SQLCartStore keeps each cart as a JSON document row.
type SQLCartStore struct {
	DB     *sql.DB
	Driver string // database.DriverMySQL or database.DriverSQLite
	Now    func() time.Time
}

func (s *SQLCartStore) Load(ctx context.Context, cartID string) ([]models.CartLine, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx, "SELECT lines_json FROM carts WHERE id = ?", cartID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", cartID, err)
	}
	return decodeLines(cartID, raw)
}

func (s *SQLCartStore) Save(ctx context.Context, cartID string, lines []models.CartLine) error {
	doc, err := encodeLines(cartID, lines)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM carts WHERE id = ?", cartID); err != nil {
		return fmt.Errorf("save cart %s: %w", cartID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO carts (id, lines_json, updated_at) VALUES (?, ?, ?)",
		cartID, doc, clock(s.Now).now().Unix(),
	); err != nil {
		return fmt.Errorf("save cart %s: %w", cartID, err)
	}
	return tx.Commit()
}

// Update runs fn inside a transaction holding the cart row.
func (s *SQLCartStore) Update(ctx context.Context, cartID string, fn cart.UpdateFunc) ([]models.CartLine, error) {
	// 1. --- Begin Transaction ---
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // Safety net

	// 2. --- Make sure the row exists, then lock it ---
	// The upsert takes the row lock on MySQL; SQLite runs on a single
	// connection so transactions are already serialized.
	now := clock(s.Now).now().Unix()
	ensure := "INSERT INTO carts (id, lines_json, updated_at) VALUES (?, '[]', ?) ON CONFLICT(id) DO NOTHING"
	selectLines := "SELECT lines_json FROM carts WHERE id = ?"
	if s.Driver == database.DriverMySQL {
		ensure = "INSERT INTO carts (id, lines_json, updated_at) VALUES (?, '[]', ?) ON DUPLICATE KEY UPDATE id = id"
		selectLines += " FOR UPDATE"
	}
	if _, err := tx.ExecContext(ctx, ensure, cartID, now); err != nil {
		return nil, fmt.Errorf("update cart %s: %w", cartID, err)
	}

	var raw string
	if err := tx.QueryRowContext(ctx, selectLines, cartID).Scan(&raw); err != nil {
		return nil, fmt.Errorf("update cart %s: %w", cartID, err)
	}
	lines, err := decodeLines(cartID, raw)
	if err != nil {
		return nil, err
	}

	// 3. --- Apply the change ---
	lines, err = fn(lines)
	if err != nil {
		return nil, err
	}

	// 4. --- Write back & Commit ---
	doc, err := encodeLines(cartID, lines)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE carts SET lines_json = ?, updated_at = ? WHERE id = ?", doc, now, cartID,
	); err != nil {
		return nil, fmt.Errorf("update cart %s: %w", cartID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	return lines, nil
}

func (s *SQLCartStore) Delete(ctx context.Context, cartID string) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM carts WHERE id = ?", cartID)
	return err
}

func (s *SQLCartStore) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM carts WHERE updated_at < ?", before.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func encodeLines(cartID string, lines []models.CartLine) (string, error) {
	if lines == nil {
		lines = []models.CartLine{}
	}
	doc, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encode cart %s: %w", cartID, err)
	}
	return string(doc), nil
}

func decodeLines(cartID, raw string) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", cartID, err)
	}
	return lines, nil
}

// MemoryCartStore is a process-local cart store.
type MemoryCartStore struct {
	Now func() time.Time

	mu    sync.Mutex
	carts map[string]memoryCart
}

type memoryCart struct {
	lines     []models.CartLine
	updatedAt time.Time
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: map[string]memoryCart{}}
}

func (s *MemoryCartStore) Load(_ context.Context, cartID string) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return []models.CartLine{}, nil
	}
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out, nil
}

func (s *MemoryCartStore) Save(_ context.Context, cartID string, lines []models.CartLine) error {
	cp := make([]models.CartLine, len(lines))
	copy(cp, lines)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts == nil {
		s.carts = map[string]memoryCart{}
	}
	s.carts[cartID] = memoryCart{lines: cp, updatedAt: clock(s.Now).now()}
	return nil
}

// Update applies fn while holding the store lock.
func (s *MemoryCartStore) Update(_ context.Context, cartID string, fn cart.UpdateFunc) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := []models.CartLine{}
	if c, ok := s.carts[cartID]; ok {
		current = make([]models.CartLine, len(c.lines))
		copy(current, c.lines)
	}
	lines, err := fn(current)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []models.CartLine{}
	}

	cp := make([]models.CartLine, len(lines))
	copy(cp, lines)
	if s.carts == nil {
		s.carts = map[string]memoryCart{}
	}
	s.carts[cartID] = memoryCart{lines: cp, updatedAt: clock(s.Now).now()}
	return lines, nil
}

func (s *MemoryCartStore) Delete(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}

func (s *MemoryCartStore) PurgeStale(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, c := range s.carts {
		if c.updatedAt.Before(before) {
			delete(s.carts, id)
			n++
		}
	}
	return n, nil
}
