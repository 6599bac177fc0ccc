package idtoken

import "errors"

var (
	ErrMalformedToken = errors.New("idtoken: malformed token")
	ErrMissingSubject = errors.New("idtoken: missing sub claim")
	ErrNotObject      = errors.New("idtoken: payload is not a JSON object")
)
