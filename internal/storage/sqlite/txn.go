package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mylxsw/short-link/internal/allocator"
	"github.com/mylxsw/short-link/internal/link"
)

type txn struct {
	tx *sql.Tx
}

func (t *txn) LoadCursor(ctx context.Context) (allocator.Cursor, bool, error) {
	var c allocator.Cursor
	err := t.tx.QueryRowContext(ctx, `SELECT size, phase,
    start_pos, start_active, end_pos, end_active,
    mid_low_pos, mid_low_active, mid_high_pos, mid_high_active
FROM allocator_cursor WHERE id = 1`).Scan(
		&c.Size, &c.Phase,
		&c.Start.Pos, &c.Start.Active, &c.End.Pos, &c.End.Active,
		&c.MidLow.Pos, &c.MidLow.Active, &c.MidHigh.Pos, &c.MidHigh.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return allocator.Cursor{}, false, nil
		}
		return allocator.Cursor{}, false, err
	}

	return c, true, nil
}

func (t *txn) SaveCursor(ctx context.Context, c allocator.Cursor) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO allocator_cursor (
    id, size, phase,
    start_pos, start_active, end_pos, end_active,
    mid_low_pos, mid_low_active, mid_high_pos, mid_high_active, updated_at
) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    size = excluded.size,
    phase = excluded.phase,
    start_pos = excluded.start_pos,
    start_active = excluded.start_active,
    end_pos = excluded.end_pos,
    end_active = excluded.end_active,
    mid_low_pos = excluded.mid_low_pos,
    mid_low_active = excluded.mid_low_active,
    mid_high_pos = excluded.mid_high_pos,
    mid_high_active = excluded.mid_high_active,
    updated_at = excluded.updated_at`,
		c.Size, c.Phase,
		c.Start.Pos, boolInt(c.Start.Active), c.End.Pos, boolInt(c.End.Active),
		c.MidLow.Pos, boolInt(c.MidLow.Active), c.MidHigh.Pos, boolInt(c.MidHigh.Active),
		time.Now().UTC().Format(timeFormat),
	)
	return err
}

func (t *txn) PopReleased(ctx context.Context) (string, bool, error) {
	var seq int64
	var id string

	err := t.tx.QueryRowContext(ctx, "SELECT seq, short_id FROM reuse_pool ORDER BY seq LIMIT 1").Scan(&seq, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	if _, err := t.tx.ExecContext(ctx, "DELETE FROM reuse_pool WHERE seq = ?", seq); err != nil {
		return "", false, err
	}

	return id, true, nil
}

func (t *txn) PushReleased(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO reuse_pool (short_id, released_at) VALUES (?, ?)",
		id, time.Now().UTC().Format(timeFormat),
	)
	return err
}

func (t *txn) IsReleased(ctx context.Context, id string) (bool, error) {
	var found int
	err := t.tx.QueryRowContext(ctx, "SELECT 1 FROM reuse_pool WHERE short_id = ?", id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (t *txn) ReleasedCount(ctx context.Context) (int64, error) {
	var count int64
	err := t.tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM reuse_pool").Scan(&count)
	return count, err
}

func (t *txn) CreateLink(ctx context.Context, l link.Link) error {
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO links (short_id, original_url, click_count, created_at) VALUES (?, ?, ?, ?)",
		l.ShortID, l.OriginalURL, l.Clicks, createdAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}

	return nil
}

func (t *txn) DeleteLink(ctx context.Context, shortID string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM links WHERE short_id = ?", shortID)
	if err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

var _ link.Txn = (*txn)(nil)
