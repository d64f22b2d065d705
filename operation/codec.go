package operation

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
	once    sync.Once
)

// canonicalModes builds the encode/decode modes once. Previous is never
// optional, so nil slices must round-trip as an empty CBOR array rather
// than null — NilContainerAsEmpty gives us that without every caller having
// to remember to allocate an empty slice.
func canonicalModes() (cbor.EncMode, cbor.DecMode) {
	once.Do(func() {
		var err error
		encMode, err = cbor.EncOptions{
			Sort:          cbor.SortNone,
			NilContainers: cbor.NilContainerAsEmpty,
			Time:          cbor.TimeUnix,
		}.EncMode()
		if err != nil {
			panic("operation: failed to build cbor encode mode: " + err.Error())
		}
		decMode, err = cbor.DecOptions{}.DecMode()
		if err != nil {
			panic("operation: failed to build cbor decode mode: " + err.Error())
		}
	})
	return encMode, decMode
}

// Encode canonically CBOR-encodes h, including whatever signature (if any)
// is currently set.
func Encode(h *Header) ([]byte, error) {
	enc, _ := canonicalModes()
	b, err := enc.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("operation: encode header: %w", err)
	}
	return b, nil
}

// encodeUnsigned encodes h with the signature field cleared, the bytes that
// are actually signed and verified.
func encodeUnsigned(h *Header) ([]byte, error) {
	clone := h.Clone()
	clone.Signature = nil
	return Encode(clone)
}

// Decode parses a canonically-encoded header. It performs no cryptographic
// or invariant checking beyond the version field: decoding produces a typed
// header even if the signature is invalid or the log invariants don't
// hold; callers must call Verify before trusting any field.
func Decode(b []byte) (*Header, error) {
	_, dec := canonicalModes()
	var h Header
	if err := dec.Unmarshal(b, &h); err != nil {
		return nil, fmt.Errorf("operation: decode header: %w", err)
	}
	if h.Version != HeaderVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersionUnsupported, h.Version)
	}
	return &h, nil
}
