package gateway

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/zkbridge/handler"
	"github.com/dmitrymomot/zkbridge/pkg/logger"
)

// fail logs err and renders it as the JSON error envelope.
func fail(ctx handler.Context, log *slog.Logger, err error, opts ...handler.JSONOption) handler.Response {
	status := http.StatusInternalServerError
	var he handler.HTTPError
	if errors.As(err, &he) {
		status = he.Code
	}
	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	r := ctx.Request()
	log.LogAttrs(ctx, level, "request failed",
		logger.Component("gateway"),
		logger.Status(status),
		slog.String("path", r.URL.Path),
		logger.Error(err),
	)
	return handler.JSONError(err, opts...)
}
