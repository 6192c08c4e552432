package pake

// pake implements two password-authenticated key exchange protocols over the
// Ristretto group: CPace (draft-irtf-cfrg-cpace), a balanced PAKE for
// peer-to-peer use where both endpoints hold the same password or short code,
// and OPAQUE (https://eprint.iacr.org/2018/163.pdf), an asymmetric PAKE where
// the server stores only a registration record and never learns the password.
// Both protocols turn a low-entropy shared secret into a high-entropy session
// key without exposing the password to the peer or to a network attacker, and
// a recorded transcript is useless for offline dictionary attack.
//
// Ristretto is preferred since it provides a safe, prime-order elliptic curve
// group, elements have a defined unique string representation, and the
// implementation used here is fully constant-time. Hashing to the curve
// follows RFC 9380 (expand_message_xmd with SHA-512), the oblivious PRF
// underneath OPAQUE follows the RFC 9497 ristretto255-SHA512 profile, and key
// derivation is HKDF-SHA-512 throughout.
//
// The library is pure: it does no I/O and owns no transport. Callers move the
// wire messages between the parties and feed them back in. Every state object
// is single-owner and single-use; secrets held inside are erased on every
// exit path, successful or not.

import (
	"github.com/gtank/ristretto255"
)

// Wire and record sizes, in bytes. These are part of the protocol contract;
// a persisted registration record from one version must parse in the next.
const (
	// ElementSize is the size of a canonical ristretto255 element encoding.
	ElementSize = 32
	// ScalarSize is the size of a canonical ristretto255 scalar encoding.
	ScalarSize = 32
	// OPRFOutputSize is the size of a finalized OPRF evaluation (SHA-512).
	OPRFOutputSize = 64
	// RecordSize is the size of an OPAQUE registration record:
	// oprfSecretKey(32) || oprfPublicKey(32) || oprfOutput(64) || salt(32).
	RecordSize = 160
	// SessionKeySize is the size of each derived key in a Result.
	SessionKeySize = 32
)

// Registration record layout offsets.
const (
	recordSecretKeyOff = 0
	recordPublicKeyOff = 32
	recordOPRFOff      = 64
	recordSaltOff      = 128
)

// Domain-separation constants. Byte-exact: changing any of these breaks
// interoperability with deployed peers.
const (
	cpaceDST          = "tallow-cpace-ristretto255-v1"
	cpaceSessionInfo  = "tallow-cpace-session-key-v1"
	opaqueSessionInfo = "tallow-opaque-session-key-v1"
	opaqueExportInfo  = "tallow-opaque-export-key-v1"

	// defaultSessionID is substituted when the caller supplies no session id.
	// Two concurrent exchanges with the same password then derive the same
	// password generator, which is safe (ephemerals differ), but callers who
	// care about replay distinguishability should supply a fresh id per
	// session.
	defaultSessionID = "tallow-cpace-v1"
)

type (
	// CPaceMessage is one flight of the CPace exchange. PublicShare is a
	// canonical ristretto255 encoding; AssociatedData carries the sender's
	// context string and is not secret.
	CPaceMessage struct {
		PublicShare    []byte
		AssociatedData []byte
	}

	// LoginRequest is the OPAQUE client's first flight: the blinded
	// password element.
	LoginRequest struct {
		CredentialRequest []byte
	}

	// LoginResponse is the OPAQUE server's reply: the OPRF evaluation of
	// the blinded element under the account's key.
	LoginResponse struct {
		CredentialResponse []byte
	}

	// Result is the outcome of a completed exchange. SharedSecret and
	// SessionKey are independent halves of one HKDF expansion over the
	// transcript; consumers typically feed SessionKey to an AEAD and
	// reserve SharedSecret for further derivation (e.g. confirmation
	// tags). A Result is only returned on success, so Success is always
	// true; it exists so a Result handed across an API boundary stays
	// self-describing.
	Result struct {
		SharedSecret []byte
		SessionKey   []byte
		Success      bool
	}
)

func newResult(okm []byte) *Result {
	r := &Result{
		SharedSecret: make([]byte, SessionKeySize),
		SessionKey:   make([]byte, SessionKeySize),
		Success:      true,
	}
	copy(r.SharedSecret, okm[:SessionKeySize])
	copy(r.SessionKey, okm[SessionKeySize:2*SessionKeySize])
	return r
}

// identityEncoding is the canonical encoding of the group identity element.
// Any wire share or computed DH point that encodes to it is rejected.
var identityEncoding [ElementSize]byte

func isIdentity(e *ristretto255.Element) bool {
	return ctEqual(e.Encode(nil), identityEncoding[:])
}
