package pake

import (
	"bytes"
	"errors"
	"testing"

	ristretto "github.com/gtank/ristretto255"
)

func runCPace(t *testing.T, pwI, pwR, context, sid []byte) (*Result, *Result) {
	t.Helper()
	msg1, st, err := CPaceInitiate(pwI, context, sid)
	if err != nil {
		t.Fatal(err)
	}
	msg2, resR, err := CPaceRespond(pwR, context, sid, msg1)
	if err != nil {
		t.Fatal(err)
	}
	resI, err := st.Finalize(msg2)
	if err != nil {
		t.Fatal(err)
	}
	return resI, resR
}

// verify that both sides of an honest exchange agree on the key.
func TestCPaceAgreement(t *testing.T) {
	pw := []byte("hunter2")
	ctx := []byte("tallow-cli")
	sid := []byte("01")

	msg1, st, err := CPaceInitiate(pw, ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	msg2, resR, err := CPaceRespond(pw, ctx, sid, msg1)
	if err != nil {
		t.Fatal(err)
	}
	resI, err := st.Finalize(msg2)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(resI.SessionKey, resR.SessionKey) {
		t.Fatal("initiator and responder did not compute identical session key")
	}
	if !bytes.Equal(resI.SharedSecret, resR.SharedSecret) {
		t.Fatal("initiator and responder did not compute identical shared secret")
	}
	if len(resI.SessionKey) != SessionKeySize {
		t.Fatalf("session key is %d bytes", len(resI.SessionKey))
	}
	if bytes.Equal(resI.SessionKey, make([]byte, SessionKeySize)) {
		t.Fatal("session key is all zero")
	}
	if bytes.Equal(msg1.PublicShare, msg2.PublicShare) {
		t.Fatal("both parties sent the same public share")
	}
}

// mismatched passwords complete on both sides but land in different keys;
// detecting the mismatch is the caller's job (see confirmation tags).
func TestCPacePasswordMismatch(t *testing.T) {
	ctx := []byte("tallow-cli")
	sid := []byte("01")
	resI, resR := runCPace(t, []byte("hunter2"), []byte("hunter3"), ctx, sid)
	if bytes.Equal(resI.SessionKey, resR.SessionKey) {
		t.Fatal("different passwords produced the same session key")
	}
}

// two runs with identical inputs must still use fresh ephemerals.
func TestCPaceSessionFreshness(t *testing.T) {
	pw := []byte("hunter2")
	ctx := []byte("tallow-cli")
	sid := []byte("01")

	msg1a, _, err := CPaceInitiate(pw, ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	msg1b, _, err := CPaceInitiate(pw, ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(msg1a.PublicShare, msg1b.PublicShare) {
		t.Fatal("two runs produced the same public share")
	}

	r1a, _ := runCPace(t, pw, pw, ctx, sid)
	r1b, _ := runCPace(t, pw, pw, ctx, sid)
	if bytes.Equal(r1a.SessionKey, r1b.SessionKey) {
		t.Fatal("two runs produced the same session key")
	}
}

func TestCPaceDefaultSessionID(t *testing.T) {
	resI, resR := runCPace(t, []byte("hunter2"), []byte("hunter2"), []byte("tallow-cli"), nil)
	if !bytes.Equal(resI.SessionKey, resR.SessionKey) {
		t.Fatal("default sid exchange did not agree")
	}
}

// the identity encoding must be rejected before any key derivation.
func TestCPaceRejectsIdentityShare(t *testing.T) {
	pw := []byte("hunter2")
	ctx := []byte("tallow-cli")
	sid := []byte("01")

	msg1 := &CPaceMessage{PublicShare: make([]byte, ElementSize), AssociatedData: ctx}
	msg2, res, err := CPaceRespond(pw, ctx, sid, msg1)
	if !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("expected ErrInvalidShare, got %v", err)
	}
	if msg2 != nil || res != nil {
		t.Fatal("rejected exchange still produced output")
	}
}

// a tampered share must fail share validation, never yield a key.
func TestCPaceTamperedShare(t *testing.T) {
	pw := []byte("hunter2")
	ctx := []byte("tallow-cli")
	sid := []byte("01")

	msg1, st, err := CPaceInitiate(pw, ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	// Canonical field encodings always have the top bit clear; setting it
	// makes the share non-canonical regardless of its value.
	tampered := append([]byte{}, msg1.PublicShare...)
	tampered[ElementSize-1] |= 0x80

	_, res, err := CPaceRespond(pw, ctx, sid, &CPaceMessage{PublicShare: tampered, AssociatedData: ctx})
	if !errors.Is(err, ErrInvalidShare) && !errors.Is(err, ErrDegenerateResult) {
		t.Fatalf("expected share rejection, got %v", err)
	}
	if res != nil {
		t.Fatal("tampered exchange still produced a session key")
	}

	// The initiator must likewise reject a tampered response.
	if _, err := st.Finalize(&CPaceMessage{PublicShare: tampered}); !errors.Is(err, ErrInvalidShare) && !errors.Is(err, ErrDegenerateResult) {
		t.Fatalf("expected share rejection, got %v", err)
	}
}

// finalizing twice on one state: first succeeds, second fails BadState.
func TestCPaceStateSingleUse(t *testing.T) {
	pw := []byte("hunter2")
	ctx := []byte("tallow-cli")
	sid := []byte("01")

	msg1, st, err := CPaceInitiate(pw, ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	msg2, _, err := CPaceRespond(pw, ctx, sid, msg1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Finalize(msg2); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Finalize(msg2); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState on reuse, got %v", err)
	}
}

// the ephemeral scalar must be erased on success and on failure alike.
func TestCPaceZeroization(t *testing.T) {
	pw := []byte("hunter2")
	ctx := []byte("tallow-cli")
	sid := []byte("01")
	zero := ristretto.NewScalar()

	msg1, st, err := CPaceInitiate(pw, ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if st.a.Equal(zero) == 1 {
		t.Fatal("live state holds a zero scalar")
	}
	msg2, _, err := CPaceRespond(pw, ctx, sid, msg1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Finalize(msg2); err != nil {
		t.Fatal(err)
	}
	if st.a.Equal(zero) != 1 {
		t.Fatal("ephemeral scalar not erased after finalize")
	}

	_, st2, err := CPaceInitiate(pw, ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st2.Finalize(&CPaceMessage{PublicShare: make([]byte, ElementSize)}); err == nil {
		t.Fatal("identity response accepted")
	}
	if st2.a.Equal(zero) != 1 {
		t.Fatal("ephemeral scalar not erased on error path")
	}
	if _, err := st2.Finalize(msg2); !errors.Is(err, ErrBadState) {
		t.Fatal("failed state is reusable")
	}
}

func TestCPaceRNGFailure(t *testing.T) {
	withFailingRNG(t, func() {
		if _, _, err := CPaceInitiate([]byte("pw"), []byte("ctx"), nil); !errors.Is(err, ErrRandomSource) {
			t.Fatalf("expected ErrRandomSource, got %v", err)
		}
	})
}
