package zklogin

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySessionID      = errors.New("zklogin: session id is required")
	ErrSessionIDTooLong    = errors.New("zklogin: session id too long")
	ErrUnknownClient       = errors.New("zklogin: unknown client type")
	ErrMissingCode         = errors.New("zklogin: authorization code is required")
	ErrInvalidState        = errors.New("zklogin: invalid state parameter")
	ErrProviderDenied      = errors.New("zklogin: provider returned an error")
	ErrExchangeFailed      = errors.New("zklogin: code exchange failed")
	ErrSessionClosed       = errors.New("zklogin: login already finished, start a new one")
	ErrCallbackBusy        = errors.New("zklogin: another callback for this session is in progress")
	ErrNoIDToken           = errors.New("zklogin: provider returned no identity token")
	ErrNotReady            = errors.New("zklogin: login not completed yet")
	ErrMissingCredential   = errors.New("zklogin: credential is required")
	ErrInvalidCredential   = errors.New("zklogin: credential is not a valid identity token")
	ErrAudienceMismatch    = errors.New("zklogin: audience does not match token")
	ErrAmbiguousAudience   = errors.New("zklogin: token has several audiences, audience is required")
	ErrMissingProofInput   = errors.New("zklogin: randomness, ephemeral public key and max epoch are required")
	ErrTokenExpired        = errors.New("zklogin: token expired")
	ErrUntrustedIssuer     = errors.New("zklogin: token issuer is not accepted")
	ErrSaltNotFound        = errors.New("zklogin: salt not found")
	ErrInvalidSalt         = errors.New("zklogin: invalid salt")
	ErrStorage             = errors.New("zklogin: storage failure")
	ErrProverUnavailable   = errors.New("zklogin: prover unavailable")
	ErrInvalidSubmission   = errors.New("zklogin: signedTransaction, proof and address are required")
	ErrInvalidSignRequest  = errors.New("zklogin: transaction, ephemeralPrivateKey, proof and address are required")
	ErrInvalidEphemeralKey = errors.New("zklogin: ephemeral private key must be a 32-byte seed or a 64-byte ed25519 key")
)

// ProverError is a failed call to the proving service. Status is zero for
// transport failures. Detail carries the upstream response body or the
// transport error text for diagnostics.
type ProverError struct {
	Status int
	Detail string
	Err    error
}

func (e *ProverError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("zklogin: prover responded %d", e.Status)
	}
	return fmt.Sprintf("zklogin: prover request failed: %v", e.Err)
}

func (e *ProverError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProverUnavailable, e.Err}
	}
	return []error{ErrProverUnavailable}
}
