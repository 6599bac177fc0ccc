// Package logger builds slog loggers for the bridge services.
//
// New returns a *slog.Logger configured through functional options: output
// format, level, static attributes and ContextExtractor callbacks that add
// request-scoped values (such as the request id) to every record.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "zkbridge"),
//		logger.WithContextExtractors(requestid.LogExtractor),
//	)
//	log.InfoContext(ctx, "login delivered",
//		logger.SessionID(sessionID),
//		logger.Subject(sub),
//	)
//
// Attribute helpers keep key names consistent across packages. Helpers that
// take optional values (Error, SessionID, Subject, RequestID) return an empty
// slog.Attr for zero input, so callers can pass them unconditionally.
package logger
