package pake

import (
	"golang.org/x/crypto/blake2b"
)

// Explicit key confirmation. Neither protocol emits a confirmation flight of
// its own: a CPace run with mismatched passwords completes on both sides
// with different keys, and an OPAQUE login with the wrong password still
// yields a key. Callers that want detectable mismatch before encrypting bulk
// data exchange these tags, one per role, and verify the peer's.
//
// Tags are keyed BLAKE2b-256 over the role label, under a sub-key expanded
// from SharedSecret. The sub-key is independent of SessionKey, so a
// disclosed tag weakens neither the record layer nor the password.

const confirmInfo = "tallow-pake-confirm-key-v1"

// Confirmation role labels.
const (
	RoleInitiator = "initiator"
	RoleResponder = "responder"
	RoleClient    = "client"
	RoleServer    = "server"
)

// ConfirmationTag computes the confirmation tag this party sends for its
// role in the exchange.
func ConfirmationTag(res *Result, role string) []byte {
	key := hkdfKey(res.SharedSecret, nil, []byte(confirmInfo), SessionKeySize)
	m, err := blake2b.New256(key)
	if err != nil {
		panic(err)
	}
	m.Write([]byte(role))
	tag := m.Sum(nil)
	wipe(key)
	return tag
}

// VerifyConfirmationTag checks the peer's tag for the peer's role, in
// constant time.
func VerifyConfirmationTag(res *Result, peerRole string, tag []byte) bool {
	expected := ConfirmationTag(res, peerRole)
	ok := ctEqual(expected, tag)
	wipe(expected)
	return ok
}
