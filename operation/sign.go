package operation

import (
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
)

// Sign sets h.PublicKey from priv and computes h.Signature over the header
// with its signature field cleared.
func Sign(h *Header, priv *identity.PrivateKey) error {
	h.PublicKey = priv.Public()
	unsigned, err := encodeUnsigned(h)
	if err != nil {
		return err
	}
	sig := Signature(priv.Sign(unsigned))
	h.Signature = &sig
	return nil
}

// Verify re-checks log invariants 1 and 2 and the header's signature. It
// never inspects the body — pass a Body separately to ValidateBody if you also
// need payload_hash/payload_size cross-checked against actual bytes.
func Verify(h *Header) error {
	if err := checkInvariants(h); err != nil {
		return err
	}
	if h.Signature == nil {
		return ErrSignatureMissing
	}
	unsigned, err := encodeUnsigned(h)
	if err != nil {
		return err
	}
	return identity.Verify(h.PublicKey, unsigned, [64]byte(*h.Signature))
}

func checkInvariants(h *Header) error {
	if h.PayloadSize == 0 && h.PayloadHash != nil {
		return ErrPayloadHashUnexpected
	}
	if h.PayloadSize > 0 && h.PayloadHash == nil {
		return ErrPayloadHashMissing
	}
	if h.SeqNum == 0 && h.Backlink != nil {
		return ErrBacklinkUnexpected
	}
	if h.SeqNum > 0 && h.Backlink == nil {
		return ErrBacklinkMissing
	}
	return nil
}

// Identity computes the operation's content-addressed identity: the BLAKE3
// hash of the (signed) encoded header.
func Identity(h *Header) (hash.Hash, error) {
	encoded, err := Encode(h)
	if err != nil {
		return hash.Hash{}, err
	}
	return hash.Of(encoded), nil
}
