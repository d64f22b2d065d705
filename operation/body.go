package operation

import "github.com/p2panda/p2panda-go/hash"

// Body is an operation's opaque payload bytes.
type Body []byte

// Hash returns BLAKE3(body), the value a valid header's PayloadHash must
// equal.
func (b Body) Hash() hash.Hash {
	return hash.Of(b)
}

// Size returns len(b), the value a valid header's PayloadSize must equal.
func (b Body) Size() uint64 {
	return uint64(len(b))
}
