// Package middleware provides HTTP middleware for the RelGuard server.
package middleware

import (
	"context"
	"time"

	"RelGuard/internal/biz"
	pkgerrors "RelGuard/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// Recording returns a middleware that feeds every completed request into the
// reliability recorder: endpoint, status code and latency, regardless of
// outcome. This is the ingestion point for all SLI calculation.
func Recording(recorder *biz.RecorderUsecase, logger log.Logger) middleware.Middleware {
	helper := log.NewHelper(logger)

	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			startTime := time.Now()

			var (
				method string
				path   string
			)

			if tr, ok := transport.FromServerContext(ctx); ok {
				method = tr.Kind().String()
				path = tr.Operation()

				if ht, ok := tr.(http.Transporter); ok {
					httpReq := ht.Request()
					method = httpReq.Method
					path = httpReq.URL.Path
				}
			}

			reply, err := handler(ctx, req)

			latencyMs := float64(time.Since(startTime).Microseconds()) / 1000.0

			status := 200
			if err != nil {
				status = int(pkgerrors.ToTransportError(err).GetCode())
			}

			recorder.Record(path, status, latencyMs)

			helper.Debugw("request recorded",
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latencyMs)

			return reply, err
		}
	}
}
