package link

import (
	"context"
	"errors"
	"time"

	"github.com/mylxsw/short-link/internal/allocator"
)

var (
	ErrNotFound   = errors.New("short link not found")
	ErrInvalidURL = errors.New("invalid url")
)

// Link maps a short identifier to the original url
type Link struct {
	ShortID     string    `json:"short_id"`
	OriginalURL string    `json:"original_url"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

// Txn is the allocator transaction extended with link records, so a link and
// the identifier it uses are committed together.
type Txn interface {
	allocator.Txn
	CreateLink(ctx context.Context, link Link) error
	// DeleteLink reports false when no link uses shortID
	DeleteLink(ctx context.Context, shortID string) (bool, error)
}

// Repository is the read side of the link store
type Repository interface {
	GetLink(ctx context.Context, shortID string) (Link, error)
	// Hit increments the click count of shortID and returns the updated link
	Hit(ctx context.Context, shortID string) (Link, error)
	ActiveIDs(ctx context.Context) ([]string, error)
	ReleasedIDs(ctx context.Context) ([]string, error)
}

func asTxn(txn allocator.Txn) (Txn, error) {
	linkTxn, ok := txn.(Txn)
	if !ok {
		return nil, errors.New("allocator backend does not store links")
	}

	return linkTxn, nil
}
