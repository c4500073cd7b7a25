package config

import (
	"github.com/mylxsw/glacier/infra"
)

type ServerProvider struct{}

func (pro ServerProvider) Register(binder infra.Binder) {
	binder.MustSingletonOverride(func(conf *Server) *Allocator { return &conf.Allocator })
}
