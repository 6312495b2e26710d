// Package server wires transports for the RelGuard service.
package server

import (
	"RelGuard/internal/biz"
	"RelGuard/internal/conf"
	"RelGuard/internal/server/middleware"
	"RelGuard/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(
	NewHTTPServer,
)

// NewHTTPServer new an HTTP server serving the SRE status endpoints.
// Every request passing through it is recorded for SLI calculation.
func NewHTTPServer(c *conf.Server, recorder *biz.RecorderUsecase, reliability *service.ReliabilityService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Recording(recorder, logger),
		),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	reliability.RegisterRoutes(srv)

	return srv
}
