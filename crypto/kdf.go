package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF derives outLen bytes from secret using HKDF-SHA256 with the given
// salt and info, the derivation used throughout X3DH/DCGKA key schedules.
func HKDF(secret *Secret, salt, info []byte, outLen int) *Secret {
	reader := hkdf.New(sha256.New, secret.Bytes(), salt, info)
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		panic("crypto: hkdf expand failed: " + err.Error())
	}
	return NewSecret(out)
}

// HKDFBytes is a convenience wrapper over HKDF for callers that already hold
// raw secret bytes (e.g. a freshly-computed DH output) without wrapping them
// in a Secret first.
func HKDFBytes(secret, salt, info []byte, outLen int) *Secret {
	s := NewSecret(secret)
	defer s.Zero()
	return HKDF(s, salt, info, outLen)
}
