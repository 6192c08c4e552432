package pake

import (
	"github.com/gtank/ristretto255"
)

// CPace, the balanced PAKE. Both parties hold the same (password, context,
// sid) and derive a password-dependent generator Gpw by hashing to the curve.
// Each side publishes Gpw raised to a fresh ephemeral scalar; the DH result
// over those shares feeds the session key. An eavesdropper who records both
// shares cannot test a password guess without solving CDH over the guessed
// generator, which forecloses offline dictionary attack.
//
// The exchange is two flights:
//
//	initiator                           responder
//	msg1, st := CPaceInitiate(pw, ...)
//	          ------- msg1 ------->
//	                                    msg2, res := CPaceRespond(pw, ..., msg1)
//	          <------ msg2 --------
//	res := st.Finalize(msg2)
//
// Any failure is terminal: the state is consumed and the caller starts a
// fresh exchange with a new session id.

// CPaceInitiator holds the initiator's ephemeral between the two flights.
// It is single-use: Finalize consumes it, and the embedded scalar is erased
// on every exit path.
type CPaceInitiator struct {
	a     *ristretto255.Scalar
	ya    []byte
	spent bool
}

// CPaceInitiate starts an exchange, returning the first flight and the state
// needed to finalize it. sid should be fresh per session; if empty, a fixed
// default is used.
func CPaceInitiate(password, context, sid []byte) (*CPaceMessage, *CPaceInitiator, error) {
	pre := cpaceHashInput(password, context, sid)
	gpw := hashToCurve(pre, []byte(cpaceDST))
	wipe(pre)

	a, err := randomScalar()
	if err != nil {
		return nil, nil, err
	}
	ya, err := scalarMul(gpw, a)
	if err != nil {
		wipeScalar(a)
		return nil, nil, err
	}
	yaEnc := ya.Encode(nil)

	msg := &CPaceMessage{PublicShare: yaEnc, AssociatedData: context}
	st := &CPaceInitiator{a: a, ya: yaEnc}
	return msg, st, nil
}

// CPaceRespond processes the initiator's flight and completes the exchange
// on the responder side, returning the second flight and the responder's
// result in one step.
func CPaceRespond(password, context, sid []byte, msg1 *CPaceMessage) (*CPaceMessage, *Result, error) {
	ya, err := decodeElement(msg1.PublicShare)
	if err != nil {
		return nil, nil, err
	}

	pre := cpaceHashInput(password, context, sid)
	gpw := hashToCurve(pre, []byte(cpaceDST))
	wipe(pre)

	b, err := randomScalar()
	if err != nil {
		return nil, nil, err
	}
	defer wipeScalar(b)

	yb, err := scalarMul(gpw, b)
	if err != nil {
		return nil, nil, err
	}
	k, err := scalarMul(ya, b)
	if err != nil {
		return nil, nil, err
	}

	ybEnc := yb.Encode(nil)
	kEnc := k.Encode(nil)
	res := deriveSessionKey(kEnc, msg1.PublicShare, ybEnc, []byte(cpaceSessionInfo))
	wipe(kEnc)

	return &CPaceMessage{PublicShare: ybEnc, AssociatedData: context}, res, nil
}

// Finalize consumes the state and completes the exchange with the
// responder's flight. A second call on the same state fails with
// ErrBadState.
func (st *CPaceInitiator) Finalize(msg2 *CPaceMessage) (*Result, error) {
	if st == nil || st.spent || st.a == nil || len(st.ya) != ElementSize {
		return nil, ErrBadState
	}
	defer st.destroy()

	yb, err := decodeElement(msg2.PublicShare)
	if err != nil {
		return nil, err
	}
	k, err := scalarMul(yb, st.a)
	if err != nil {
		return nil, err
	}

	kEnc := k.Encode(nil)
	res := deriveSessionKey(kEnc, st.ya, msg2.PublicShare, []byte(cpaceSessionInfo))
	wipe(kEnc)
	return res, nil
}

// destroy erases the ephemeral and marks the state spent.
func (st *CPaceInitiator) destroy() {
	wipeScalar(st.a)
	st.spent = true
}
