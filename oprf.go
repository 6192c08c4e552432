package pake

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/gtank/ristretto255"
)

// Oblivious PRF, RFC 9497 ristretto255-SHA512 profile, base mode. The client
// blinds its input, the server raises the blinded element to its secret key,
// and the client unblinds and hashes. The server never sees the input, the
// client never sees the key, and the output is a deterministic function of
// (key, input), which is exactly what OPAQUE's registration record pins.
//
// The domain-separation tags are the RFC's, not ours, so any conforming
// ristretto255-SHA512 OPRF implementation can stand in for this one without
// changing the wire format.
const (
	oprfHashToGroupDST = "HashToGroup-OPRFV1-\x00-ristretto255-SHA512"
	oprfFinalizeDST    = "Finalize"
)

// oprfHashToGroup maps an OPRF input to a group element under the RFC 9497
// hash-to-group tag.
func oprfHashToGroup(input []byte) *ristretto255.Element {
	return hashToCurve(input, []byte(oprfHashToGroupDST))
}

// oprfBlind blinds input with a fresh random scalar:
// blinded = HashToGroup(input)^blind.
func oprfBlind(input []byte) (blind *ristretto255.Scalar, blinded *ristretto255.Element, err error) {
	blind, err = randomScalar()
	if err != nil {
		return nil, nil, err
	}
	h0 := oprfHashToGroup(input)
	blinded, err = scalarMul(h0, blind)
	if err != nil {
		wipeScalar(blind)
		return nil, nil, err
	}
	return blind, blinded, nil
}

// oprfEvaluate is the server side: evaluated = blinded^sk. The blinded
// element arrives from the wire and is validated like any peer share.
func oprfEvaluate(sk *ristretto255.Scalar, blinded []byte) ([]byte, error) {
	alpha, err := decodeElement(blinded)
	if err != nil {
		return nil, err
	}
	beta, err := scalarMul(alpha, sk)
	if err != nil {
		return nil, err
	}
	return beta.Encode(nil), nil
}

// oprfFinalize unblinds the server's evaluation and hashes it down to the
// 64-byte PRF output:
//
//	N = evaluated^(1/blind)
//	output = SHA-512(I2OSP(len(input), 2) || input || I2OSP(32, 2) || N || "Finalize")
func oprfFinalize(input []byte, blind *ristretto255.Scalar, evaluated []byte) ([]byte, error) {
	beta, err := decodeElement(evaluated)
	if err != nil {
		return nil, err
	}
	inv := ristretto255.NewScalar().Invert(blind)
	n, err := scalarMul(beta, inv)
	wipeScalar(inv)
	if err != nil {
		return nil, err
	}
	nEnc := n.Encode(nil)

	var l [2]byte
	h := sha512.New()
	binary.BigEndian.PutUint16(l[:], uint16(len(input)))
	h.Write(l[:])
	h.Write(input)
	binary.BigEndian.PutUint16(l[:], uint16(len(nEnc)))
	h.Write(l[:])
	h.Write(nEnc)
	h.Write([]byte(oprfFinalizeDST))
	out := h.Sum(nil)
	wipe(nEnc)
	return out, nil
}

// oprfKeyPair generates a fresh OPRF key pair (sk, g^sk).
func oprfKeyPair() (*ristretto255.Scalar, *ristretto255.Element, error) {
	sk, err := randomScalar()
	if err != nil {
		return nil, nil, err
	}
	pk := ristretto255.NewElement().ScalarBaseMult(sk)
	return sk, pk, nil
}
