package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/preacpe/go-frost-alerts/internal/models"
)

// SQLiteDB persists subscribers in SQLite keyed by phone. The single-row
// upsert replaces the read-modify-write cycle a flat file would need, so
// racing subscribe calls cannot lose updates.
type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS subscribers (
			phone TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			subscribed_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_subscribers_subscribed_at ON subscribers(subscribed_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Subscribe(ctx context.Context, phone, name string) (*models.Subscriber, bool, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (phone, name, subscribed_at) VALUES (?, ?, ?)
		 ON CONFLICT(phone) DO NOTHING`,
		phone, name, now)
	if err != nil {
		return nil, false, fmt.Errorf("error inserting subscriber: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("error reading rows affected: %w", err)
	}

	if n == 0 {
		existing, err := s.GetByPhone(ctx, phone)
		if err != nil {
			return nil, false, err
		}
		return existing, true, nil
	}

	return &models.Subscriber{
		Phone:        phone,
		Name:         name,
		SubscribedAt: now,
	}, false, nil
}

func (s *SQLiteDB) Unsubscribe(ctx context.Context, phone string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE phone = ?`, phone)
	if err != nil {
		return false, fmt.Errorf("error deleting subscriber: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %w", err)
	}

	return n > 0, nil
}

func (s *SQLiteDB) GetByPhone(ctx context.Context, phone string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.QueryRowContext(ctx,
		`SELECT phone, name, subscribed_at FROM subscribers WHERE phone = ?`,
		phone).Scan(&sub.Phone, &sub.Name, &sub.SubscribedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying subscriber: %w", err)
	}

	return &sub, nil
}

func (s *SQLiteDB) List(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phone, name, subscribed_at FROM subscribers ORDER BY subscribed_at`)
	if err != nil {
		return nil, fmt.Errorf("error listing subscribers: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		if err := rows.Scan(&sub.Phone, &sub.Name, &sub.SubscribedAt); err != nil {
			return nil, fmt.Errorf("error scanning subscriber: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
