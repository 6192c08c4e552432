package pake

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gtank/ristretto255"
)

// rngSource is the CSPRNG all ephemerals are drawn from. It is a package
// variable only so tests can substitute a deterministic or failing reader;
// production code must leave it at crypto/rand.
var rngSource io.Reader = rand.Reader

// randomBytes fills a fresh buffer of n bytes from the secure random source.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rngSource, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return b, nil
}

// randomScalar returns a uniformly random non-zero scalar (←R Zq*), reduced
// from 64 uniform bytes. The wide reduction keeps the distribution uniform
// modulo the group order.
func randomScalar() (*ristretto255.Scalar, error) {
	zero := ristretto255.NewScalar()
	for {
		b, err := randomBytes(64)
		if err != nil {
			return nil, err
		}
		s := ristretto255.NewScalar().FromUniformBytes(b)
		wipe(b)
		if s.Equal(zero) == 0 {
			return s, nil
		}
	}
}

const (
	sha512OutputLen = sha512.Size
	sha512BlockLen  = sha512.BlockSize
)

// expandMessageXMD is expand_message_xmd from RFC 9380 section 5.3.1,
// instantiated with SHA-512. It panics if n exceeds the algorithm's bound,
// which no caller in this package can reach.
func expandMessageXMD(msg, dst []byte, n int) []byte {
	ell := (n + sha512OutputLen - 1) / sha512OutputLen
	if ell > 255 || len(dst) > 255 {
		panic("pake: expand_message_xmd parameter out of range")
	}

	// DST_prime = DST || I2OSP(len(DST), 1)
	dstPrime := append(append([]byte{}, dst...), byte(len(dst)))

	// b_0 = H(Z_pad || msg || l_i_b_str || 0x00 || DST_prime)
	h := sha512.New()
	h.Write(make([]byte, sha512BlockLen))
	h.Write(msg)
	var lib [2]byte
	binary.BigEndian.PutUint16(lib[:], uint16(n))
	h.Write(lib[:])
	h.Write([]byte{0})
	h.Write(dstPrime)
	b0 := h.Sum(nil)

	// b_i = H(strxor(b_0, b_{i-1}) || I2OSP(i, 1) || DST_prime)
	out := make([]byte, 0, ell*sha512OutputLen)
	prev := b0
	for i := 1; i <= ell; i++ {
		h.Reset()
		if i == 1 {
			h.Write(b0)
		} else {
			x := make([]byte, sha512OutputLen)
			for j := range x {
				x[j] = b0[j] ^ prev[j]
			}
			h.Write(x)
		}
		h.Write([]byte{byte(i)})
		h.Write(dstPrime)
		prev = h.Sum(nil)
		out = append(out, prev...)
	}
	return out[:n]
}

// hashToCurve maps arbitrary bytes to a uniform group element per RFC 9380
// for ristretto255-SHA-512: expand to 64 uniform bytes under the given
// domain-separation tag, then apply the one-way map.
func hashToCurve(input, dst []byte) *ristretto255.Element {
	u := expandMessageXMD(input, dst, 64)
	e := ristretto255.NewElement().FromUniformBytes(u)
	wipe(u)
	return e
}

// decodeElement parses a wire encoding into a group element. Non-canonical
// encodings and the identity element are rejected: accepting the identity
// would let a malicious peer force a known session key.
func decodeElement(b []byte) (*ristretto255.Element, error) {
	if len(b) != ElementSize {
		return nil, ErrInvalidShare
	}
	e := ristretto255.NewElement()
	if err := e.Decode(b); err != nil {
		return nil, ErrInvalidShare
	}
	if isIdentity(e) {
		return nil, ErrInvalidShare
	}
	return e, nil
}

// scalarMul computes p^s, rejecting a zero scalar and an identity result.
func scalarMul(p *ristretto255.Element, s *ristretto255.Scalar) (*ristretto255.Element, error) {
	if s.Equal(ristretto255.NewScalar()) == 1 {
		return nil, ErrDegenerateResult
	}
	r := ristretto255.NewElement().ScalarMult(s, p)
	if isIdentity(r) {
		return nil, ErrDegenerateResult
	}
	return r, nil
}

// ctEqual reports whether a and b are equal, in time independent of their
// contents. Unequal lengths return false immediately; lengths here are
// public (fixed by the wire contract).
func ctEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}

// wipe erases a secret-bearing buffer in place.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// wipeScalar erases a scalar's value. Encoded copies must be wiped
// separately by whoever made them.
func wipeScalar(s *ristretto255.Scalar) {
	if s != nil {
		s.Zero()
	}
}
