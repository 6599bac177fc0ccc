// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value populated by the
// configured binders and returns a Response. Wrap turns it into an
// http.HandlerFunc; binding and rendering failures go to the ErrorHandler,
// which by default renders the JSON error envelope:
//
//	{"error":{"code":"bad_request","message":"..."},"meta":{...}}
//
// Example:
//
//	type pollRequest struct {
//		SessionID string `query:"session_id"`
//	}
//
//	r.Get("/poll", handler.Wrap(func(ctx handler.Context, req pollRequest) handler.Response {
//		return handler.JSON(result)
//	}, handler.WithBinders[handler.Context, pollRequest](binder.Query())))
package handler
