// Package zklogin bridges a redirect-based Google login to clients that
// cannot receive the redirect, and turns the resulting identity token into a
// zkLogin address and proof.
//
// The login flow is keyed by a client-generated session id:
//
//	client  -> Bridge.Start(session, nonce)      nonce parked in the NonceCorrelator
//	browser -> provider consent screen
//	browser -> Bridge.Callback(code, state)      exchange, reconcile nonce, resolve salt,
//	                                             deposit {token, salt} in the Mailbox
//	client  -> Bridge.Poll(session)              envelope returned exactly once
//	client  -> Broker.DeriveAndProve(...)        address + proof from the prover
//
// Both the correlator and the mailbox are read-once and expire. Salts are
// persisted once per subject and never change, so a subject always maps to
// the same address.
//
// Identity tokens handled here are never signature-checked; see package
// idtoken for the trust boundary.
package zklogin
