package crypto

import (
	"errors"

	"golang.org/x/crypto/curve25519"
)

// X25519KeySize is the byte length of an X25519 scalar or point.
const X25519KeySize = curve25519.ScalarSize

// ErrLowOrderPoint is returned when a DH computation yields an all-zero
// shared secret, the signature of a low-order/invalid public key.
var ErrLowOrderPoint = errors.New("crypto: x25519 produced an all-zero shared secret")

// GenerateDHKey produces a fresh X25519 keypair using r.
func GenerateDHKey(r *Rand) (public [32]byte, private *Secret) {
	scalar := r.Array32()
	var pub [32]byte
	curve25519.ScalarBaseMult(&pub, &scalar)
	return pub, NewSecret(scalar[:])
}

// PublicFromPrivate derives the X25519 public point for a raw 32-byte
// scalar, for callers deriving a keypair deterministically (e.g. from an
// HKDF output) rather than through GenerateDHKey.
func PublicFromPrivate(privateKey *Secret) [32]byte {
	var scalar [32]byte
	copy(scalar[:], privateKey.Bytes())
	var pub [32]byte
	curve25519.ScalarBaseMult(&pub, &scalar)
	return pub
}

// DH computes the X25519 shared secret between privateKey and the peer's
// publicKey.
func DH(privateKey *Secret, publicKey [32]byte) (*Secret, error) {
	var scalar [32]byte
	copy(scalar[:], privateKey.Bytes())
	var shared [32]byte
	curve25519.ScalarMult(&shared, &scalar, &publicKey)
	if isAllZero(shared[:]) {
		return nil, ErrLowOrderPoint
	}
	return NewSecret(shared[:]), nil
}

func isAllZero(b []byte) bool {
	var v byte
	for _, c := range b {
		v |= c
	}
	return v == 0
}
