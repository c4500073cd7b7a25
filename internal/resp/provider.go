package resp

import (
	"context"

	"github.com/mylxsw/asteria/log"
	"github.com/mylxsw/glacier/infra"
	"github.com/mylxsw/short-link/internal/config"
	"github.com/mylxsw/short-link/internal/link"
)

type Provider struct{}

func (p Provider) Register(app infra.Binder) {}

func (p Provider) Daemon(ctx context.Context, app infra.Resolver) {
	app.MustResolve(func(conf *config.Server, svc *link.Service) error {
		if conf.RESPListen == "" {
			return nil
		}

		server, err := NewServer(conf.RESPListen, svc, conf.ShortURL)
		if err != nil {
			log.Errorf("create resp server failed: %v", err)
			return err
		}

		log.Infof("resp server listening on %s", server.Addr())
		return server.Start(ctx)
	})
}
