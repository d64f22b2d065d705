package authgraph

import (
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
)

// ActorID identifies an individual or a group; both share the public-key
// address space (a group's id is itself an actor identifier).
type ActorID = identity.PublicKey

// OperationID is the content hash of the host operation that carried a
// control message.
type OperationID = hash.Hash
