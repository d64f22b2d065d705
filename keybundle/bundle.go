// Package keybundle implements long-term/one-time prekey bundles, X3DH
// pairwise key agreement, and the resulting 2-party ratcheting channel
// (2SM). The "XEdDSA" prekey signature scheme is approximated here by an
// ordinary Ed25519 signature from the owner's existing operation-signing
// identity key over the X25519 prekey bytes: this binds prekey to owner
// exactly as XEdDSA does, without reimplementing the Montgomery/Edwards
// birational conversion XEdDSA uses to sign with an X25519 scalar directly.
package keybundle

import (
	"time"

	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/identity"
)

// DefaultLifetime is the default validity window for a signed prekey:
// roughly 90 days.
const DefaultLifetime = 90 * 24 * time.Hour

// LowerBoundSkew tolerates a little clock drift at the start of the
// lifetime window: an hour of skew tolerance at the lower bound.
const LowerBoundSkew = 1 * time.Hour

// SignedPrekey is an X25519 public key authenticated by its owner's Ed25519
// identity key, plus a validity window.
type SignedPrekey struct {
	Public    [32]byte
	Signature [64]byte
	NotBefore uint64 // unix seconds
	NotAfter  uint64
}

// LongTermBundle is the public, shareable half of an actor's key material.
type LongTermBundle struct {
	Owner       identity.PublicKey
	IdentityKey [32]byte // X25519 long-term DH identity
	Prekey      SignedPrekey
}

// OneTimePrekey is a single-use supplement to a LongTermBundle.
type OneTimePrekey struct {
	ID     uint64
	Public [32]byte
}

// OneTimeBundle bundles a long-term bundle with one one-time prekey, the
// shape a responder publishes for others to initiate X3DH against.
type OneTimeBundle struct {
	LongTermBundle
	OneTime OneTimePrekey
}

func signedPrekeyMessage(identityKey, prekeyPublic [32]byte) []byte {
	msg := make([]byte, 0, 64)
	msg = append(msg, identityKey[:]...)
	msg = append(msg, prekeyPublic[:]...)
	return msg
}

// VerifyLongTerm checks the prekey's signature and lifetime window against
// now (unix seconds).
func VerifyLongTerm(b LongTermBundle, now uint64) error {
	msg := signedPrekeyMessage(b.IdentityKey, b.Prekey.Public)
	if err := identity.Verify(b.Owner, msg, b.Prekey.Signature); err != nil {
		return ErrSignatureInvalid
	}
	skew := uint64(LowerBoundSkew / time.Second)
	lowerBound := uint64(0)
	if b.Prekey.NotBefore > skew {
		lowerBound = b.Prekey.NotBefore - skew
	}
	if now < lowerBound || now > b.Prekey.NotAfter {
		return ErrExpired
	}
	return nil
}
