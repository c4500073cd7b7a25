package link

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mylxsw/asteria/log"
	"github.com/mylxsw/short-link/internal/allocator"
)

// Service 短链接服务
type Service struct {
	alloc *allocator.Allocator
	repo  Repository
}

// NewService create a link service; alloc must run on a backend whose transactions implement Txn
func NewService(alloc *allocator.Allocator, repo Repository) *Service {
	return &Service{alloc: alloc, repo: repo}
}

// Status returns the allocator status
func (s *Service) Status(ctx context.Context) (allocator.Status, error) {
	return s.alloc.Status(ctx)
}

// Shorten allocates an identifier for rawURL and stores the mapping
func (s *Service) Shorten(ctx context.Context, rawURL string) (Link, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return Link{}, err
	}

	link := Link{OriginalURL: target, CreatedAt: time.Now()}
	id, err := s.alloc.AllocateFunc(ctx, func(txn allocator.Txn, id string) error {
		linkTxn, err := asTxn(txn)
		if err != nil {
			return err
		}

		link.ShortID = id
		return linkTxn.CreateLink(ctx, link)
	})
	if err != nil {
		return Link{}, err
	}

	log.WithFields(log.Fields{
		"short_id": id,
		"url":      target,
	}).Debug("short link created")

	return link, nil
}

// Resolve returns the link for shortID and counts the visit
func (s *Service) Resolve(ctx context.Context, shortID string) (Link, error) {
	return s.repo.Hit(ctx, shortID)
}

// Get returns the link for shortID without counting a visit
func (s *Service) Get(ctx context.Context, shortID string) (Link, error) {
	return s.repo.GetLink(ctx, shortID)
}

// Delete removes the link and returns its identifier to the reuse pool
func (s *Service) Delete(ctx context.Context, shortID string) error {
	err := s.alloc.ReleaseFunc(ctx, shortID, func(txn allocator.Txn) error {
		linkTxn, err := asTxn(txn)
		if err != nil {
			return err
		}

		deleted, err := linkTxn.DeleteLink(ctx, shortID)
		if err != nil {
			return err
		}

		if !deleted {
			return ErrNotFound
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"short_id": shortID}).Debug("short link deleted and returned to the pool")
	return nil
}

// ActiveIDs returns the identifiers currently in use
func (s *Service) ActiveIDs(ctx context.Context) ([]string, error) {
	return s.repo.ActiveIDs(ctx)
}

// ReusePool returns the released identifiers, oldest first
func (s *Service) ReusePool(ctx context.Context) ([]string, error) {
	return s.repo.ReleasedIDs(ctx)
}

func normalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidURL)
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	return u.String(), nil
}
