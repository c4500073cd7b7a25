package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mylxsw/short-link/internal/allocator"
	"github.com/mylxsw/short-link/internal/link"
	"github.com/mylxsw/short-link/internal/storage/sqlite/migrations"
	"github.com/mylxsw/short-link/internal/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// fixed width so that TEXT ordering follows time ordering
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps links, the reuse pool and the traversal cursor in one SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite store at the provided path and applies migrations
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// one connection: every allocator transaction is serialized at the driver too
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.Apply(context.Background(), db, migrations.FS, ""); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Atomic runs fn in a single SQL transaction
func (s *Store) Atomic(ctx context.Context, fn func(txn allocator.Txn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&txn{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetLink returns the link for shortID
func (s *Store) GetLink(ctx context.Context, shortID string) (link.Link, error) {
	return getLink(ctx, s.db, shortID)
}

// Hit increments the click count of shortID and returns the updated link
func (s *Store) Hit(ctx context.Context, shortID string) (link.Link, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return link.Link{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "UPDATE links SET click_count = click_count + 1 WHERE short_id = ?", shortID)
	if err != nil {
		return link.Link{}, fmt.Errorf("increment clicks: %w", err)
	}

	if affected, err := res.RowsAffected(); err != nil {
		return link.Link{}, err
	} else if affected == 0 {
		return link.Link{}, link.ErrNotFound
	}

	l, err := getLink(ctx, tx, shortID)
	if err != nil {
		return link.Link{}, err
	}

	if err := tx.Commit(); err != nil {
		return link.Link{}, fmt.Errorf("commit transaction: %w", err)
	}

	return l, nil
}

// ActiveIDs returns identifiers of existing links, oldest first
func (s *Store) ActiveIDs(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, s.db, "SELECT short_id FROM links ORDER BY created_at, short_id")
}

// ReleasedIDs returns the reuse pool, oldest first
func (s *Store) ReleasedIDs(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, s.db, "SELECT short_id FROM reuse_pool ORDER BY seq")
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getLink(ctx context.Context, q queryer, shortID string) (link.Link, error) {
	var l link.Link
	var createdAt string

	err := q.QueryRowContext(ctx,
		"SELECT short_id, original_url, click_count, created_at FROM links WHERE short_id = ?",
		shortID,
	).Scan(&l.ShortID, &l.OriginalURL, &l.Clicks, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return link.Link{}, link.ErrNotFound
		}
		return link.Link{}, fmt.Errorf("query link: %w", err)
	}

	if l.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return link.Link{}, fmt.Errorf("parse created_at: %w", err)
	}

	return l, nil
}

func queryStrings(ctx context.Context, q queryer, query string) ([]string, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return values, rows.Err()
}

var (
	_ allocator.Backend = (*Store)(nil)
	_ link.Repository   = (*Store)(nil)
)
