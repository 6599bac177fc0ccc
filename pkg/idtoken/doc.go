// Package idtoken reads OpenID Connect identity tokens as claims carriers.
//
// Nothing in this package checks a signature. Decode reads the payload of a
// compact JWS, and Reconcile may rewrite that payload to carry the nonce the
// provider dropped while keeping the provider's original signature segment.
// The result of Reconcile therefore never verifies and is typed as Unverified
// so that it cannot be passed where a verified token is expected.
//
// The nonce insertion is defense-in-depth against replay of a client-chosen
// value. Authentication of the login itself rests on the server-to-server
// code exchange with the provider, which is authenticated by the client
// secret. Whether the downstream prover verifies the provider signature on
// its own must be settled before relying on the nonce claim.
package idtoken
