// Package identity defines the actor identifiers used throughout p2panda: a
// public key doubles as the id of the author who signed a log, a group, or a
// space member.
package identity

import (
	stded25519 "crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/p2panda/p2panda-go/crypto"
)

// PublicKey is an Ed25519 public key and, simultaneously, an actor
// identifier.
type PublicKey [crypto.PublicKeySize]byte

// PrivateKey is an Ed25519 signing key held by its owner only. It never
// appears on the wire.
type PrivateKey struct {
	public PublicKey
	seed   *crypto.Secret
}

// Generate produces a fresh keypair using r.
func Generate(r *crypto.Rand) (PublicKey, *PrivateKey) {
	pub, seed := crypto.GenerateSigningKey(r)
	var pk PublicKey
	copy(pk[:], pub)
	return pk, &PrivateKey{public: pk, seed: seed}
}

// FromSeed reconstructs a PrivateKey from a 32-byte Ed25519 seed, e.g. one
// loaded from secure storage.
func FromSeed(seed [crypto.PrivateKeySeedSize]byte) *PrivateKey {
	priv := stded25519.NewKeyFromSeed(seed[:])
	var pk PublicKey
	copy(pk[:], priv[32:])
	return &PrivateKey{public: pk, seed: crypto.NewSecret(seed[:])}
}

// Public returns the signer's public key.
func (p *PrivateKey) Public() PublicKey { return p.public }

// Sign signs message, producing a 64-byte Ed25519 signature.
func (p *PrivateKey) Sign(message []byte) [crypto.SignatureSize]byte {
	sig := crypto.Sign(p.seed, message)
	var out [crypto.SignatureSize]byte
	copy(out[:], sig)
	return out
}

// Zero wipes the private key's seed material. The key must not be used
// afterwards.
func (p *PrivateKey) Zero() { p.seed.Zero() }

// Verify checks sig over message under pub.
func Verify(pub PublicKey, message []byte, sig [crypto.SignatureSize]byte) error {
	return crypto.Verify(stded25519.PublicKey(pub[:]), message, sig[:])
}

// Bytes returns a copy of the public key's bytes.
func (pub PublicKey) Bytes() []byte {
	out := make([]byte, len(pub))
	copy(out, pub[:])
	return out
}

// String renders the public key as lowercase hex.
func (pub PublicKey) String() string {
	return hex.EncodeToString(pub[:])
}

// MarshalBinary implements encoding.BinaryMarshaler for CBOR encoding.
func (pub PublicKey) MarshalBinary() ([]byte, error) {
	return pub.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for CBOR decoding.
func (pub *PublicKey) UnmarshalBinary(b []byte) error {
	if len(b) != crypto.PublicKeySize {
		return fmt.Errorf("identity: expected %d byte public key, got %d", crypto.PublicKeySize, len(b))
	}
	copy(pub[:], b)
	return nil
}

// FromHex parses a hex-encoded public key.
func FromHex(s string) (PublicKey, error) {
	var pub PublicKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return pub, fmt.Errorf("identity: invalid hex: %w", err)
	}
	if err := pub.UnmarshalBinary(b); err != nil {
		return pub, err
	}
	return pub, nil
}
