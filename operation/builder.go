package operation

import (
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
)

// NextHeader builds the unsigned header for the next entry in an author's
// log. backlink/seqNum come from the author's current tip (nil/0 for the
// very first operation), satisfying the log's sequencing invariants by
// construction rather than by a later check.
func NextHeader(pub identity.PublicKey, seqNum uint64, backlink *hash.Hash, previous []hash.Hash, timestamp uint64, body Body, extensions []byte) *Header {
	h := &Header{
		Version:    HeaderVersion,
		PublicKey:  pub,
		Timestamp:  timestamp,
		SeqNum:     seqNum,
		Backlink:   backlink,
		Previous:   previous,
		Extensions: extensions,
	}
	if len(body) > 0 {
		h.PayloadSize = body.Size()
		ph := body.Hash()
		h.PayloadHash = &ph
	}
	return h
}

// SignAndBuild is the common create path: build the unsigned header for the
// next log entry, sign it, and return the resulting Operation.
func SignAndBuild(priv *identity.PrivateKey, seqNum uint64, backlink *hash.Hash, previous []hash.Hash, timestamp uint64, body Body, extensions []byte) (*Operation, error) {
	h := NextHeader(priv.Public(), seqNum, backlink, previous, timestamp, body, extensions)
	if err := Sign(h, priv); err != nil {
		return nil, err
	}
	return New(h, body)
}
