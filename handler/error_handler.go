package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/zkbridge/pkg/logger"
)

// NewErrorHandler returns an ErrorHandler that logs the full error and
// renders the JSON envelope. Client errors log at warn, the rest at error.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx Context, err error) {
		r := ctx.Request()
		status := http.StatusInternalServerError
		var he HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}
		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request failed",
			logger.Component("http"),
			logger.Status(status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
		renderError(ctx.ResponseWriter(), r, err)
	}
}
