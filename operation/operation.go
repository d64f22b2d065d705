package operation

import "github.com/p2panda/p2panda-go/hash"

// Operation is the triple (hash, header, body?). Body is nil iff
// Header.PayloadSize == 0.
type Operation struct {
	Hash   hash.Hash
	Header *Header
	Body   Body
}

// New cross-checks the supplied body against the header's declared payload
// hash/size and computes the header's identity before returning an
// Operation. It does not sign the header.
func New(h *Header, body Body) (*Operation, error) {
	if err := ValidateBody(h, body); err != nil {
		return nil, err
	}
	id, err := Identity(h)
	if err != nil {
		return nil, err
	}
	return &Operation{Hash: id, Header: h, Body: body}, nil
}

// ValidateBody checks body against h's declared payload_size/payload_hash.
// It does not verify the header's signature; call Verify separately.
func ValidateBody(h *Header, body Body) error {
	if err := checkInvariants(h); err != nil {
		return err
	}
	if h.PayloadSize == 0 {
		if len(body) != 0 {
			return ErrPayloadSizeMismatch
		}
		return nil
	}
	if body.Size() != h.PayloadSize {
		return ErrPayloadSizeMismatch
	}
	if body.Hash() != *h.PayloadHash {
		return ErrPayloadHashMismatch
	}
	return nil
}

// Dependencies returns the set of operation hashes this operation's header
// declares a causal dependency on: its backlink (if any) plus its previous
// list. This is exactly the `deps` set the causal orderer waits on.
func (h *Header) Dependencies() []hash.Hash {
	deps := make([]hash.Hash, 0, len(h.Previous)+1)
	if h.Backlink != nil {
		deps = append(deps, *h.Backlink)
	}
	deps = append(deps, h.Previous...)
	return deps
}
