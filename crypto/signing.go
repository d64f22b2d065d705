package crypto

import (
	stded25519 "crypto/ed25519"
	"errors"
)

// SignatureSize is the byte length of an Ed25519 signature.
const SignatureSize = stded25519.SignatureSize

// PublicKeySize is the byte length of an Ed25519 public key.
const PublicKeySize = stded25519.PublicKeySize

// PrivateKeySeedSize is the byte length of an Ed25519 private key seed.
const PrivateKeySeedSize = stded25519.SeedSize

// ErrInvalidSignature is returned when a signature fails verification.
var ErrInvalidSignature = errors.New("crypto: invalid ed25519 signature")

// GenerateSigningKey produces a fresh Ed25519 keypair using r.
//
// Like the teacher's accountsigner package, Ed25519 is handled directly via
// the standard library rather than a third-party curve implementation.
func GenerateSigningKey(r *Rand) (public stded25519.PublicKey, seed *Secret) {
	s := r.Array32()
	priv := stded25519.NewKeyFromSeed(s[:])
	pub := append(stded25519.PublicKey(nil), priv[32:]...)
	return pub, NewSecret(s[:])
}

// Sign signs message with the Ed25519 private key reconstructed from seed.
func Sign(seed *Secret, message []byte) []byte {
	priv := stded25519.NewKeyFromSeed(seed.Bytes())
	return stded25519.Sign(priv, message)
}

// Verify checks sig over message under public. Returns ErrInvalidSignature on
// any mismatch; never panics on malformed input.
func Verify(public stded25519.PublicKey, message, sig []byte) error {
	if len(public) != stded25519.PublicKeySize || len(sig) != stded25519.SignatureSize {
		return ErrInvalidSignature
	}
	if !stded25519.Verify(public, message, sig) {
		return ErrInvalidSignature
	}
	return nil
}
