package service

import (
	"context"

	"github.com/mylxsw/asteria/log"
	"github.com/mylxsw/glacier/infra"
	"github.com/mylxsw/short-link/internal/allocator"
	"github.com/mylxsw/short-link/internal/config"
	"github.com/mylxsw/short-link/internal/link"
	"github.com/mylxsw/short-link/internal/metrics"
	"github.com/mylxsw/short-link/internal/storage/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

type Provider struct{}

func (p Provider) Register(app infra.Binder) {
	app.MustSingletonOverride(func(conf *config.Server) (*sqlite.Store, error) {
		return sqlite.Open(conf.DBPath)
	})
	app.MustSingletonOverride(func() *metrics.AllocatorObserver {
		return metrics.NewAllocatorObserver(prometheus.DefaultRegisterer)
	})
	app.MustSingletonOverride(func(conf *config.Allocator, store *sqlite.Store, observer *metrics.AllocatorObserver) (*allocator.Allocator, error) {
		return NewAllocator(conf, store, observer)
	})
	app.MustSingletonOverride(func(alloc *allocator.Allocator, store *sqlite.Store) *link.Service {
		return link.NewService(alloc, store)
	})
}

func (p Provider) Daemon(ctx context.Context, app infra.Resolver) {
	app.MustResolve(func(svc *link.Service, store *sqlite.Store) {
		if status, err := svc.Status(ctx); err != nil {
			log.Errorf("load allocator status failed: %v", err)
		} else {
			log.WithFields(log.Fields{
				"size":      status.Size,
				"remaining": status.Remaining,
				"released":  status.Released,
			}).Info("allocator ready")
		}

		<-ctx.Done()

		if err := store.Close(); err != nil {
			log.Errorf("close store failed: %v", err)
		}
	})
}

// NewAllocator create the allocator described by conf on top of backend
func NewAllocator(conf *config.Allocator, backend allocator.Backend, observer allocator.Observer) (*allocator.Allocator, error) {
	encoder, err := conf.Encoder()
	if err != nil {
		return nil, err
	}

	return allocator.New(
		encoder,
		backend,
		allocator.WithObserver(observer),
		allocator.WithReleaseValidation(conf.ReleaseValidation()),
	), nil
}
