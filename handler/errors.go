package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError maps an error to a status code and a stable machine-readable key.
// Cause is logged but never rendered.
type HTTPError struct {
	Code  int
	Key   string
	Cause error
}

func (e HTTPError) Error() string {
	if e.Cause != nil {
		return e.Key + ": " + e.Cause.Error()
	}
	return e.Key
}

func (e HTTPError) Unwrap() error { return e.Cause }

// Is matches on status code and key so sentinels compare equal regardless of Cause.
func (e HTTPError) Is(target error) bool {
	t, ok := target.(HTTPError)
	return ok && t.Code == e.Code && t.Key == e.Key
}

// With returns a copy of e carrying cause.
func (e HTTPError) With(cause error) HTTPError {
	e.Cause = cause
	return e
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
	ErrNotImplemented      = HTTPError{Code: http.StatusNotImplemented, Key: "not_implemented"}
	ErrBadGateway          = HTTPError{Code: http.StatusBadGateway, Key: "bad_gateway"}
	ErrGatewayTimeout      = HTTPError{Code: http.StatusGatewayTimeout, Key: "gateway_timeout"}
)

// BadRequest wraps err as a 400 unless it already carries an HTTPError.
func BadRequest(err error) error {
	var he HTTPError
	if errors.As(err, &he) {
		return err
	}
	return ErrBadRequest.With(err)
}
