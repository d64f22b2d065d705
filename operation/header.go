// Package operation implements the p2panda operation/header data model:
// signed, hash-linked records forming per-author append-only logs with
// backlinks, carrying extensible application metadata.
package operation

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
)

// HeaderVersion is the only header version this module understands.
const HeaderVersion uint64 = 1

// Signature is a detached Ed25519 signature over an encoded header.
type Signature [64]byte

// MarshalBinary implements encoding.BinaryMarshaler so Signature round-trips
// through CBOR as a byte string.
func (s Signature) MarshalBinary() ([]byte, error) {
	out := make([]byte, len(s))
	copy(out, s[:])
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Signature) UnmarshalBinary(b []byte) error {
	if len(b) != len(s) {
		return ErrSignatureInvalid
	}
	copy(s[:], b)
	return nil
}

// Header is the canonically-encoded, signed envelope of an operation. Field
// order here is the fixed wire order and is preserved by the `,toarray`
// codec tag below — unlike a map encoding, reordering these fields would be
// a wire-format break.
type Header struct {
	_ struct{} `cbor:",toarray"`

	Version     uint64
	PublicKey   identity.PublicKey
	Signature   *Signature
	PayloadSize uint64
	PayloadHash *hash.Hash
	Timestamp   uint64
	SeqNum      uint64
	Backlink    *hash.Hash
	Previous    []hash.Hash
	Extensions  cbor.RawMessage
}

// HasPayload reports whether this header declares a non-empty body.
func (h *Header) HasPayload() bool { return h.PayloadSize > 0 }

// IsFirstInLog reports whether this header is the first operation the
// author ever wrote to this log (seq_num == 0).
func (h *Header) IsFirstInLog() bool { return h.SeqNum == 0 }

// Clone returns a deep copy of h, safe to mutate independently.
func (h *Header) Clone() *Header {
	out := *h
	if h.Signature != nil {
		sig := *h.Signature
		out.Signature = &sig
	}
	if h.PayloadHash != nil {
		ph := *h.PayloadHash
		out.PayloadHash = &ph
	}
	if h.Backlink != nil {
		bl := *h.Backlink
		out.Backlink = &bl
	}
	if h.Previous != nil {
		out.Previous = append([]hash.Hash(nil), h.Previous...)
	}
	if h.Extensions != nil {
		out.Extensions = append(cbor.RawMessage(nil), h.Extensions...)
	}
	return &out
}
