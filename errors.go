package pake

import "errors"

// Failure kinds. Every failure is terminal for the current exchange: the
// caller discards its state and starts over with fresh ephemerals. Error
// values name the kind only; no error ever carries password or key material,
// and callers should not relay the kind to the peer.
var (
	// ErrInvalidShare means a peer's public share or credential element was
	// not a valid canonical ristretto255 encoding, or decoded to the
	// identity element.
	ErrInvalidShare = errors.New("pake: invalid peer share")

	// ErrInvalidRecord means an OPAQUE registration record was malformed
	// or of the wrong length.
	ErrInvalidRecord = errors.New("pake: malformed registration record")

	// ErrBadState means an engine state object was already consumed or is
	// otherwise unusable. States are strictly single-use.
	ErrBadState = errors.New("pake: state reused or malformed")

	// ErrDegenerateResult means a scalar multiplication yielded the
	// identity element or a zero scalar was about to be used. This is
	// cryptographically negligible for honest inputs and signals a bug or
	// a malicious peer.
	ErrDegenerateResult = errors.New("pake: degenerate group element")

	// ErrRandomSource means the secure random source failed. This is fatal
	// for the process; retrying inside the engine would be unsound.
	ErrRandomSource = errors.New("pake: random source failure")

	// ErrCredentialMismatch means a client-supplied OPRF output did not
	// match the registered credential.
	ErrCredentialMismatch = errors.New("pake: credential mismatch")

	// ErrSealIntegrity means a sealed registration record failed its
	// integrity check and was not decrypted.
	ErrSealIntegrity = errors.New("pake: sealed record integrity check failed")
)
