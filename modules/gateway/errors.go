package gateway

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/zkbridge/handler"
	"github.com/dmitrymomot/zkbridge/svc/zklogin"
)

var (
	errInvalidSession = handler.HTTPError{Code: http.StatusBadRequest, Key: "invalid_session_id"}
	errUnknownClient  = handler.HTTPError{Code: http.StatusBadRequest, Key: "unknown_client"}
	errInvalidInput   = handler.HTTPError{Code: http.StatusBadRequest, Key: "invalid_input"}
	errInvalidToken   = handler.HTTPError{Code: http.StatusBadRequest, Key: "invalid_credential"}
	errAudience       = handler.HTTPError{Code: http.StatusBadRequest, Key: "audience_mismatch"}
	errTokenRejected  = handler.HTTPError{Code: http.StatusUnauthorized, Key: "token_rejected"}
	errNotReady       = handler.HTTPError{Code: http.StatusNotFound, Key: "not_ready"}
	errProver         = handler.HTTPError{Code: http.StatusBadGateway, Key: "prover_error"}
	errSandboxOnly    = handler.HTTPError{Code: http.StatusNotImplemented, Key: "sandbox_only"}
)

// httpError maps service errors to their HTTP representation.
func httpError(err error) error {
	switch {
	case errors.Is(err, zklogin.ErrEmptySessionID), errors.Is(err, zklogin.ErrSessionIDTooLong):
		return errInvalidSession.With(err)
	case errors.Is(err, zklogin.ErrUnknownClient):
		return errUnknownClient.With(err)
	case errors.Is(err, zklogin.ErrNotReady):
		return errNotReady.With(err)
	case errors.Is(err, zklogin.ErrAudienceMismatch), errors.Is(err, zklogin.ErrAmbiguousAudience):
		return errAudience.With(err)
	case errors.Is(err, zklogin.ErrTokenExpired), errors.Is(err, zklogin.ErrUntrustedIssuer):
		return errTokenRejected.With(err)
	case errors.Is(err, zklogin.ErrMissingCredential), errors.Is(err, zklogin.ErrInvalidCredential):
		return errInvalidToken.With(err)
	case errors.Is(err, zklogin.ErrMissingProofInput), errors.Is(err, zklogin.ErrInvalidSubmission),
		errors.Is(err, zklogin.ErrInvalidSignRequest), errors.Is(err, zklogin.ErrInvalidEphemeralKey):
		return errInvalidInput.With(err)
	case errors.Is(err, zklogin.ErrProverUnavailable):
		return errProver.With(err)
	}
	var he handler.HTTPError
	if errors.As(err, &he) {
		return err
	}
	return handler.ErrInternalServerError.With(err)
}
