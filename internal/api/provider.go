package api

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/mylxsw/asteria/log"
	"github.com/mylxsw/glacier/infra"
	"github.com/mylxsw/glacier/listener"
	"github.com/mylxsw/glacier/web"
	"github.com/mylxsw/short-link/internal/api/controller"
	"github.com/mylxsw/short-link/internal/config"
	"github.com/mylxsw/short-link/internal/link"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Provider struct{}

func (s Provider) Aggregates() []infra.Provider {
	return []infra.Provider{
		web.Provider(
			confListenerBuilder{},
			web.SetMuxRouteHandlerOption(s.muxRoutes),
			web.SetRouteHandlerOption(s.routes),
			web.SetExceptionHandlerOption(s.exceptionHandler),
		),
	}
}

func (s Provider) Register(app infra.Binder) {}

func (s Provider) exceptionHandler(ctx web.Context, err interface{}) web.Response {
	log.Errorf("error: %v, call stack: %s", err, debug.Stack())
	return ctx.JSONWithCode(web.M{
		"error": fmt.Sprintf("%v", err),
	}, http.StatusInternalServerError)
}

func (s Provider) routes(resolver infra.Resolver, router web.Router, mw web.RequestMiddleware) {
	mws := make([]web.HandlerDecorator, 0)
	mws = append(mws,
		mw.AccessLog(log.Module("api")),
		mw.CORS("*"),
	)

	router.WithMiddleware(mws...).Controllers(
		"/api",
		controller.NewLinkController(resolver),
	)
}

func (s Provider) muxRoutes(cc infra.Resolver, router *mux.Router) {
	cc.MustResolve(func(svc *link.Service) {
		// prometheus metrics
		router.PathPrefix("/metrics").Handler(promhttp.Handler())
		// health check
		router.PathPrefix("/health").Handler(HealthCheck{svc: svc})
		// short link redirect, registered last so that it never shadows the routes above
		router.Handle("/{short_id}", Redirect{svc: svc}).Methods(http.MethodGet, http.MethodHead)
	})
}

type confListenerBuilder struct{}

func (l confListenerBuilder) Build(cc infra.Resolver) (net.Listener, error) {
	return listener.Default(cc.MustGet((*config.Server)(nil)).(*config.Server).HTTPListen).Build(cc)
}
