package idtoken

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Unverified is a compact JWS whose signature must not be trusted.
// Its claims are readable with Decode.
type Unverified string

func (u Unverified) String() string { return string(u) }

// Reconcile ensures the token payload carries a nonce claim.
//
// A token that already has a nonce claim, or a call with an empty
// expectedNonce, returns the token unchanged. Otherwise the nonce is appended
// to the payload object. The header segment, the signature segment and every
// other payload byte are kept as received.
func Reconcile(token, expectedNonce string) (Unverified, error) {
	header, payload, signature, err := split(token)
	if err != nil {
		return "", err
	}

	raw, err := decodeSegment(payload)
	if err != nil {
		return "", fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return "", ErrNotObject
	}
	if _, ok := fields["nonce"]; ok || expectedNonce == "" {
		return Unverified(token), nil
	}

	patched, err := appendClaim(raw, "nonce", expectedNonce)
	if err != nil {
		return "", err
	}

	return Unverified(header + "." + base64.RawURLEncoding.EncodeToString(patched) + "." + signature), nil
}

func split(token string) (header, payload, signature string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("%w: expected three segments", ErrMalformedToken)
	}
	return parts[0], parts[1], parts[2], nil
}

func decodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
}

// appendClaim inserts "key":value before the closing brace of a JSON object.
func appendClaim(obj []byte, key, value string) ([]byte, error) {
	trimmed := bytes.TrimRight(obj, " \t\r\n")
	if len(trimmed) == 0 || trimmed[len(trimmed)-1] != '}' {
		return nil, ErrNotObject
	}

	k, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	body := trimmed[:len(trimmed)-1]
	empty := len(bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(body), []byte("{")))) == 0

	out := make([]byte, 0, len(trimmed)+len(k)+len(v)+2)
	out = append(out, body...)
	if !empty {
		out = append(out, ',')
	}
	out = append(out, k...)
	out = append(out, ':')
	out = append(out, v...)
	out = append(out, '}')
	return out, nil
}
