package crypto

import (
	"crypto/subtle"
	"fmt"
)

// Secret is a zeroising container for key material that must never be
// logged, compared in variable time, or retained after use — Ed25519 seeds
// and expanded keys, X25519 scalars, HKDF output, group secrets, and
// ratchet/message keys all flow through one of these.
type Secret struct {
	b     []byte
	wiped bool
}

// NewSecret copies b into a zeroising container. The caller's slice is not
// retained.
func NewSecret(b []byte) *Secret {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Secret{b: cp}
}

// Bytes returns the secret's current byte slice. Callers must not retain the
// returned slice past a call to Zero.
func (s *Secret) Bytes() []byte {
	if s.wiped {
		panic("crypto: use of zeroised secret")
	}
	return s.b
}

// Len reports the secret's length in bytes.
func (s *Secret) Len() int { return len(s.b) }

// Equal compares two secrets in constant time. A wiped secret never equals
// anything, including another wiped secret.
func (s *Secret) Equal(other *Secret) bool {
	if s.wiped || other.wiped || len(s.b) != len(other.b) {
		return false
	}
	return subtle.ConstantTimeCompare(s.b, other.b) == 1
}

// Zero overwrites the secret's backing array with zeroes. Idempotent.
func (s *Secret) Zero() {
	for i := range s.b {
		s.b[i] = 0
	}
	s.wiped = true
}

// String redacts the value; secrets must never be printed.
func (s *Secret) String() string {
	return fmt.Sprintf("crypto.Secret{%d bytes, redacted}", len(s.b))
}

// GoString redacts the value for %#v formatting too.
func (s *Secret) GoString() string { return s.String() }
