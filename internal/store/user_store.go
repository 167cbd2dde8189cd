package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
)

// SQLUserStore persists shopper accounts. Emails are stored lower-cased.
type SQLUserStore struct {
	DB  *sql.DB
	Now func() time.Time
}

// Create inserts u and sets its ID and CreatedAt.
func (s *SQLUserStore) Create(ctx context.Context, u *models.User) error {
	// 1. --- Normalize ---
	// Emails are unique case-insensitively.
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = clock(s.Now).now().UTC().Truncate(time.Second)

	// 2. --- Insert (duplicate email -> ErrEmailTaken) ---
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO users (email, full_name, password_hash, created_at) VALUES (?, ?, ?, ?)",
		u.Email, u.FullName, u.PasswordHash, u.CreatedAt.Unix(),
	)
	if isDuplicate(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	// 3. --- Read back the new ID ---
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (s *SQLUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.get(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *SQLUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.get(ctx, "id = ?", id)
}

func (s *SQLUserStore) get(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	var created int64
	err := s.DB.QueryRowContext(ctx,
		"SELECT id, email, full_name, password_hash, created_at FROM users WHERE "+where, arg,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return &u, nil
}
