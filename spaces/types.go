// Package spaces binds one auth-graph group (C6) and one DCGKA encryption
// group (C8) per application-defined space id: every membership change
// forges a paired control message for both, applying atomically, so a
// space's access-control view and its encryption group never drift apart.
package spaces

import (
	"github.com/p2panda/p2panda-go/authgraph"
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
)

// ActorID identifies a space participant.
type ActorID = identity.PublicKey

// OperationID identifies a host operation carrying a control message.
type OperationID = hash.Hash

// Access is the auth-graph access level (Pull/Read/Write/Manage) governing
// a member's privileges in a space.
type Access = authgraph.Access
