package pake

import (
	"github.com/gtank/ristretto255"
)

// OPAQUE, the asymmetric PAKE. At registration the client evaluates the OPRF
// over its own password and packs the key pair, the PRF output, and a fresh
// salt into a 160-byte record the server stores. At login the client blinds
// the password, the server evaluates it under the record's key, and the
// client's unblinded output matches the registered one iff the password and
// the key both match. This gives implicit mutual authentication without the
// server ever seeing a password.
//
// NOTE: the record has essentially the same security properties as a
// password hash: anyone holding it can mount a dictionary attack against the
// passphrase. Treat it like a password hash; keep it server-side only, and
// see SealRecord for at-rest protection. Deployments may also segregate the
// OPRF secret key (record[0:32]) into an HSM or separate column; the engine
// only fixes the byte layout, not co-storage.

// LoginState holds the client's blinding scalar and password copy between
// LoginInit and Finalize. Single-use; erased on every exit path.
type LoginState struct {
	blind    *ristretto255.Scalar
	password []byte
	serverID []byte
	spent    bool
}

// Register runs the registration flow client-side, producing the record the
// server stores and the client's private export key. The export key never
// leaves the client and is suitable for encrypting client-side secrets that
// should survive only as long as the password does.
func Register(password, serverID []byte) (record, exportKey []byte, err error) {
	sk, pk, err := oprfKeyPair()
	if err != nil {
		return nil, nil, err
	}
	defer wipeScalar(sk)

	blind, blinded, err := oprfBlind(password)
	if err != nil {
		return nil, nil, err
	}
	defer wipeScalar(blind)

	evaluated, err := oprfEvaluate(sk, blinded.Encode(nil))
	if err != nil {
		return nil, nil, err
	}
	oprfOut, err := oprfFinalize(password, blind, evaluated)
	if err != nil {
		return nil, nil, err
	}
	defer wipe(oprfOut)

	salt, err := randomBytes(32)
	if err != nil {
		return nil, nil, err
	}

	exportSalt := append(append([]byte{}, salt...), lengthPrefixed(serverID)...)
	exportKey = hkdfKey(oprfOut, exportSalt, []byte(opaqueExportInfo), SessionKeySize)
	wipe(exportSalt)

	record = make([]byte, 0, RecordSize)
	record = append(record, sk.Encode(nil)...)
	record = append(record, pk.Encode(nil)...)
	record = append(record, oprfOut...)
	record = append(record, salt...)
	return record, exportKey, nil
}

// LoginInit starts a login: blind the password and emit the credential
// request. The returned state carries copies of the password and server id
// for Finalize; the caller's own buffers are untouched.
func LoginInit(password, serverID []byte) (*LoginRequest, *LoginState, error) {
	blind, blinded, err := oprfBlind(password)
	if err != nil {
		return nil, nil, err
	}
	st := &LoginState{
		blind:    blind,
		password: append([]byte{}, password...),
		serverID: append([]byte{}, serverID...),
	}
	return &LoginRequest{CredentialRequest: blinded.Encode(nil)}, st, nil
}

// Evaluate is the server's single login step: evaluate the blinded element
// under the record's OPRF key. The record is length-checked on every use; a
// stored blob of the wrong shape fails ErrInvalidRecord before any group
// operation.
func Evaluate(record []byte, req *LoginRequest) (*LoginResponse, error) {
	sk, err := recordSecretKey(record)
	if err != nil {
		return nil, err
	}
	defer wipeScalar(sk)

	beta, err := oprfEvaluate(sk, req.CredentialRequest)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{CredentialResponse: beta}, nil
}

// Finalize consumes the state and derives the client's session keys from the
// server's evaluation. The derivation salts with the server id and the
// credential response, so a response substituted in transit lands in a
// different key. A second call on the same state fails with ErrBadState.
func (st *LoginState) Finalize(resp *LoginResponse) (*Result, error) {
	if st == nil || st.spent || st.blind == nil {
		return nil, ErrBadState
	}
	defer st.destroy()

	oprfOut, err := oprfFinalize(st.password, st.blind, resp.CredentialResponse)
	if err != nil {
		return nil, err
	}
	defer wipe(oprfOut)

	return opaqueSession(oprfOut, st.serverID, resp.CredentialResponse), nil
}

// ServerSession derives the server's side of the login keys. Every input to
// the client derivation is known to an honest server: the registered OPRF
// output sits in the record, and the credential response is the server's own
// evaluation. The result equals the client's iff the client used the
// registered password, so comparing confirmation tags over it gives
// detectable mutual authentication.
func ServerSession(record []byte, serverID []byte, resp *LoginResponse) (*Result, error) {
	if len(record) != RecordSize {
		return nil, ErrInvalidRecord
	}
	oprfOut := make([]byte, OPRFOutputSize)
	copy(oprfOut, record[recordOPRFOff:recordOPRFOff+OPRFOutputSize])
	defer wipe(oprfOut)

	return opaqueSession(oprfOut, serverID, resp.CredentialResponse), nil
}

func opaqueSession(oprfOut, serverID, credentialResponse []byte) *Result {
	salt := append(lengthPrefixed(serverID), lengthPrefixed(credentialResponse)...)
	okm := hkdfKey(oprfOut, salt, []byte(opaqueSessionInfo), 2*SessionKeySize)
	res := newResult(okm)
	wipe(okm)
	wipe(salt)
	return res
}

// CheckCredential compares a client-supplied OPRF output against the
// registered one, in constant time. Intended for deployments where the
// client ships its raw OPRF output back over the established channel as a
// credential proof.
func CheckCredential(record, oprfOutput []byte) error {
	if len(record) != RecordSize || len(oprfOutput) != OPRFOutputSize {
		return ErrInvalidRecord
	}
	if !ctEqual(record[recordOPRFOff:recordOPRFOff+OPRFOutputSize], oprfOutput) {
		return ErrCredentialMismatch
	}
	return nil
}

// VerifyCredential is CheckCredential as a predicate: false on any length or
// compare mismatch.
func VerifyCredential(record, oprfOutput []byte) bool {
	return CheckCredential(record, oprfOutput) == nil
}

// recordSecretKey extracts and validates the OPRF secret key from a record.
func recordSecretKey(record []byte) (*ristretto255.Scalar, error) {
	if len(record) != RecordSize {
		return nil, ErrInvalidRecord
	}
	sk := ristretto255.NewScalar()
	if err := sk.Decode(record[recordSecretKeyOff : recordSecretKeyOff+ScalarSize]); err != nil {
		return nil, ErrInvalidRecord
	}
	if sk.Equal(ristretto255.NewScalar()) == 1 {
		return nil, ErrInvalidRecord
	}
	return sk, nil
}

// destroy erases the blinding scalar and password copy and marks the state
// spent.
func (st *LoginState) destroy() {
	wipeScalar(st.blind)
	wipe(st.password)
	st.spent = true
}
