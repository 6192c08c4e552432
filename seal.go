package pake

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// Record sealing. A registration record is as sensitive as a password hash,
// so a server that cannot segregate the OPRF key can at least keep records
// encrypted at rest under an operator passphrase. Sealing uses AES-256-CTR
// with an HMAC-SHA3-256 tag and a separate MAC key, since key committal is
// wanted here and plain AEAD modes do not provide it.
//
// The sealed form is storage-local, not a wire message; the in-memory record
// layout is unchanged.

const (
	argonTime   = 3
	argonMemory = 1e5

	sealIVSize  = aes.BlockSize
	sealTagSize = 32
	sealInfo    = "tallow-record-seal-v1"

	// SealedRecordSize is the size of a sealed record blob:
	// iv(16) || ciphertext(160) || tag(32).
	SealedRecordSize = sealIVSize + RecordSize + sealTagSize
)

// DeriveSealKey stretches an operator passphrase into a 32-byte seal key
// with Argon2id, so a dictionary attack on a leaked record store has to pay
// the memory-hard cost per guess. The salt is stored alongside the records;
// it only needs to be unique per store.
func DeriveSealKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, 4, 32)
}

// sealKeys derives the separate cipher and MAC keys from a seal key.
func sealKeys(key []byte) (macKey, cipherKey []byte) {
	r := hkdf.New(sha3.New512, key, nil, []byte(sealInfo))
	cipherKey = make([]byte, 32)
	macKey = make([]byte, 32)
	if _, err := io.ReadFull(r, cipherKey); err != nil {
		panic("could not derive HKDF key material")
	}
	if _, err := io.ReadFull(r, macKey); err != nil {
		panic("could not derive HKDF key material")
	}
	return
}

// SealRecord encrypts a registration record for storage at rest. The output
// is iv || ciphertext || tag, with the tag covering both.
func SealRecord(key, record []byte) ([]byte, error) {
	if len(record) != RecordSize {
		return nil, ErrInvalidRecord
	}
	macKey, cipherKey := sealKeys(key)
	defer wipe(macKey)
	defer wipe(cipherKey)

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	iv, err := randomBytes(sealIVSize)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, SealedRecordSize)
	out = append(out, iv...)
	ct := make([]byte, RecordSize)
	cipher.NewCTR(block, iv).XORKeyStream(ct, record)
	out = append(out, ct...)

	mac := hmac.New(sha3.New256, macKey)
	mac.Write(out)
	return mac.Sum(out), nil
}

// OpenRecord verifies and decrypts a sealed record. The tag is checked in
// constant time before any decryption; a truncated blob, a flipped bit, or
// the wrong key all fail ErrSealIntegrity.
func OpenRecord(key, sealed []byte) ([]byte, error) {
	if len(sealed) != SealedRecordSize {
		return nil, ErrSealIntegrity
	}
	macKey, cipherKey := sealKeys(key)
	defer wipe(macKey)
	defer wipe(cipherKey)

	body := sealed[:sealIVSize+RecordSize]
	mac := hmac.New(sha3.New256, macKey)
	mac.Write(body)
	if !ctEqual(mac.Sum(nil), sealed[sealIVSize+RecordSize:]) {
		return nil, ErrSealIntegrity
	}

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	record := make([]byte, RecordSize)
	cipher.NewCTR(block, body[:sealIVSize]).XORKeyStream(record, body[sealIVSize:])
	return record, nil
}
