package pake

import (
	"crypto/sha512"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"
)

// lengthPrefixed prepends a 4-byte big-endian length to b. Every
// variable-length input to a hash preimage or HKDF salt goes through this so
// that concatenations parse unambiguously: lp(a)||lp(b) determines (a, b).
func lengthPrefixed(b []byte) []byte {
	out := make([]byte, 4+len(b))
	binary.BigEndian.PutUint32(out, uint32(len(b)))
	copy(out[4:], b)
	return out
}

// hkdfKey derives n bytes from ikm with HKDF-SHA-512 (extract then expand).
func hkdfKey(ikm, salt, info []byte, n int) []byte {
	r := hkdf.New(sha512.New, ikm, salt, info)
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		panic("could not derive HKDF key material")
	}
	return out
}

// cpaceHashInput builds the preimage for the CPace password generator:
// lp(password) || lp(context) || lp(sid). An empty sid falls back to a fixed
// default. The returned buffer contains a copy of the password and must be
// wiped by the caller once hashed.
func cpaceHashInput(password, context, sid []byte) []byte {
	if len(sid) == 0 {
		sid = []byte(defaultSessionID)
	}
	lpw := lengthPrefixed(password)
	out := make([]byte, 0, len(lpw)+4+len(context)+4+len(sid))
	out = append(out, lpw...)
	wipe(lpw)
	out = append(out, lengthPrefixed(context)...)
	out = append(out, lengthPrefixed(sid)...)
	return out
}

// deriveSessionKey expands a DH point into the two session outputs:
// okm = HKDF(ikm = dhPoint, salt = Ya || Yb, info, 64), split in half.
// Binding both public shares into the salt commits the keys to the full
// transcript, so any tamper on either flight lands in a different key.
func deriveSessionKey(dhPoint, ya, yb, info []byte) *Result {
	salt := make([]byte, 0, len(ya)+len(yb))
	salt = append(salt, ya...)
	salt = append(salt, yb...)
	okm := hkdfKey(dhPoint, salt, info, 2*SessionKeySize)
	r := newResult(okm)
	wipe(okm)
	return r
}
