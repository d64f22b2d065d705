package authgraph

import "errors"

// ErrDemoteBelowPull is returned when constructing a Demote action that
// would take a member below the lowest access level. The source material
// leaves "demote below Pull" ambiguous (it might mean Remove); rather than
// guess, this is rejected outright — callers wanting to fully exclude a
// member must author an explicit Remove.
var ErrDemoteBelowPull = errors.New("authgraph: cannot demote below Pull, use Remove")

// ErrPromoteNotRaising is returned when constructing a Promote action whose
// target level does not strictly exceed Read/Write/Manage ordering.
var ErrPromoteNotRaising = errors.New("authgraph: promote must strictly raise access")

// ErrDemoteNotLowering is returned when constructing a Demote action whose
// target level does not strictly lower access.
var ErrDemoteNotLowering = errors.New("authgraph: demote must strictly lower access")

// ErrSelfRemove names the self-remove case. Graph.Process does not return
// it: a Remove that targets its own author is revoked during the fold.
var ErrSelfRemove = errors.New("authgraph: a member cannot remove themselves")

// ErrUnknownGroup is returned by Process when a message names a group id
// other than the one the Graph was created for.
var ErrUnknownGroup = errors.New("authgraph: message group id does not match this graph")

// ErrNotMember reports that an actor is not a member. The Graph queries
// return plain booleans; spaces.Manager returns this error from Promote and
// Demote.
var ErrNotMember = errors.New("authgraph: not a member")
