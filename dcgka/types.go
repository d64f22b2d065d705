// Package dcgka implements a Decentralised Continuous Group Key Agreement:
// group-secret distribution via control and direct messages, plus a
// per-sender symmetric ratchet for forward-secure group data encryption.
package dcgka

import (
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
)

// ActorID identifies a group participant.
type ActorID = identity.PublicKey

// OperationID identifies a control message, used for Ack/AddAck bookkeeping.
type OperationID = hash.Hash
