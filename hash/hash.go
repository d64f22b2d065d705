// Package hash implements the 32-byte BLAKE3 content hash used as p2panda's
// universal content address: operation identity, header backlinks, and
// group/operation ids throughout authgraph and dcgka.
package hash

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Size is the byte length of a Hash.
const Size = 32

// Hash is a 32-byte BLAKE3 digest. The zero value is not a valid hash of any
// real content but is used as the "no value" sentinel in some call sites
// (callers should prefer a pointer or bool-ok pair where ambiguity matters).
type Hash [Size]byte

// Of returns the BLAKE3 hash of data.
func Of(data []byte) Hash {
	var h Hash
	sum := blake3.Sum256(data)
	copy(h[:], sum[:])
	return h
}

// IsZero reports whether h is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns a copy of h's underlying bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// String renders h as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// FromBytes copies b into a Hash. b must be exactly Size bytes.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, fmt.Errorf("hash: expected %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// FromHex parses a lowercase or uppercase hex string into a Hash.
func FromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("hash: invalid hex: %w", err)
	}
	return FromBytes(b)
}

// MarshalBinary implements encoding.BinaryMarshaler for use by the CBOR
// codec used in operation headers.
func (h Hash) MarshalBinary() ([]byte, error) {
	return h.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *Hash) UnmarshalBinary(b []byte) error {
	parsed, err := FromBytes(b)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
