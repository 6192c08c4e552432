package pake

import (
	"bytes"
	"testing"
)

func TestLengthPrefixed(t *testing.T) {
	got := lengthPrefixed([]byte("abc"))
	want := []byte{0, 0, 0, 3, 'a', 'b', 'c'}
	if !bytes.Equal(got, want) {
		t.Fatalf("lengthPrefixed = %x, want %x", got, want)
	}
	if !bytes.Equal(lengthPrefixed(nil), []byte{0, 0, 0, 0}) {
		t.Fatal("empty input not prefixed with zero length")
	}
}

// lp(a)||lp(b) must determine (a, b): the concatenations of different splits
// of the same bytes must differ.
func TestLengthPrefixInjective(t *testing.T) {
	cases := [][4][]byte{
		{[]byte("ab"), []byte("c"), []byte("a"), []byte("bc")},
		{[]byte(""), []byte("xy"), []byte("xy"), []byte("")},
		{[]byte("x"), []byte(""), []byte(""), []byte("x")},
	}
	for _, c := range cases {
		one := append(lengthPrefixed(c[0]), lengthPrefixed(c[1])...)
		two := append(lengthPrefixed(c[2]), lengthPrefixed(c[3])...)
		if bytes.Equal(one, two) {
			t.Fatalf("lp(%q)||lp(%q) == lp(%q)||lp(%q)", c[0], c[1], c[2], c[3])
		}
	}
}

func TestCpaceHashInputDefaultSID(t *testing.T) {
	pw, ctx := []byte("hunter2"), []byte("tallow-cli")
	a := cpaceHashInput(pw, ctx, nil)
	b := cpaceHashInput(pw, ctx, []byte{})
	if !bytes.Equal(a, b) {
		t.Fatal("nil and empty sid disagree")
	}
	c := cpaceHashInput(pw, ctx, []byte("01"))
	if bytes.Equal(a, c) {
		t.Fatal("explicit sid matches default")
	}
	d := cpaceHashInput(pw, ctx, []byte(defaultSessionID))
	if !bytes.Equal(a, d) {
		t.Fatal("default sid fallback does not match explicit default")
	}
}

func TestDeriveSessionKey(t *testing.T) {
	dh := bytes.Repeat([]byte{1}, 32)
	ya := bytes.Repeat([]byte{2}, 32)
	yb := bytes.Repeat([]byte{3}, 32)

	r1 := deriveSessionKey(dh, ya, yb, []byte(cpaceSessionInfo))
	r2 := deriveSessionKey(dh, ya, yb, []byte(cpaceSessionInfo))
	if !bytes.Equal(r1.SessionKey, r2.SessionKey) || !bytes.Equal(r1.SharedSecret, r2.SharedSecret) {
		t.Fatal("derivation is not deterministic")
	}
	if len(r1.SessionKey) != SessionKeySize || len(r1.SharedSecret) != SessionKeySize {
		t.Fatal("derived keys have wrong length")
	}
	if bytes.Equal(r1.SessionKey, r1.SharedSecret) {
		t.Fatal("session key equals shared secret")
	}
	if !r1.Success {
		t.Fatal("result not marked successful")
	}

	// Transcript binding: swapping the shares must change both outputs.
	r3 := deriveSessionKey(dh, yb, ya, []byte(cpaceSessionInfo))
	if bytes.Equal(r1.SessionKey, r3.SessionKey) || bytes.Equal(r1.SharedSecret, r3.SharedSecret) {
		t.Fatal("share order does not affect the keys")
	}

	// Info separation: a different protocol label lands in different keys.
	r4 := deriveSessionKey(dh, ya, yb, []byte(opaqueSessionInfo))
	if bytes.Equal(r1.SessionKey, r4.SessionKey) {
		t.Fatal("info string does not affect the key")
	}
}
