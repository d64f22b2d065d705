// Package authgraph implements the decentralised group-membership /
// access-control CRDT (C6): an operation-based CRDT over nested groups with
// four access levels, converging deterministically under a strong-remove
// conflict resolver even when concurrent control messages arrive in
// different orders at different replicas.
package authgraph

import (
	"bytes"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Graph holds one group's control-message DAG and the membership view
// derived from it. It is safe for concurrent use.
type Graph struct {
	mu sync.Mutex

	groupID ActorID

	messages map[OperationID]*Message
	heads    mapset.Set[OperationID]

	members   map[GroupMember]Access
	wasMember mapset.Set[ActorID]
	revoked   mapset.Set[OperationID]
	created   bool
}

// NewGraph constructs an empty group graph for groupID.
func NewGraph(groupID ActorID) *Graph {
	return &Graph{
		groupID:   groupID,
		messages:  make(map[OperationID]*Message),
		heads:     mapset.NewSet[OperationID](),
		members:   make(map[GroupMember]Access),
		wasMember: mapset.NewSet[ActorID](),
		revoked:   mapset.NewSet[OperationID](),
	}
}

// RebuildRequired reports whether applying msg would require a full DAG
// rebuild (a Remove always does; otherwise it's required iff msg's observed
// dependency set differs from the graph's current heads).
func (g *Graph) RebuildRequired(msg *Message) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rebuildRequiredLocked(msg)
}

func (g *Graph) rebuildRequiredLocked(msg *Message) bool {
	if msg.Action.Kind() == KindRemove {
		return true
	}
	deps := mapset.NewSet(msg.Dependencies...)
	return !deps.Equal(g.heads)
}

// Process folds msg into the graph. Re-processing an already-known message
// id is a no-op. Process never returns an error for an unauthorised or
// otherwise invalid action — such messages are filtered ("revoked") and
// folding continues; callers that need to know whether their own message
// was accepted should check IsRevoked(msg.ID) afterwards.
func (g *Graph) Process(msg *Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if msg.GroupID != g.groupID {
		return ErrUnknownGroup
	}
	if _, known := g.messages[msg.ID]; known {
		return nil
	}

	needsRebuild := g.rebuildRequiredLocked(msg)

	g.messages[msg.ID] = msg
	for _, d := range msg.Dependencies {
		g.heads.Remove(d)
	}
	g.heads.Add(msg.ID)

	if needsRebuild {
		g.rebuildLocked()
		return nil
	}

	// Fast path: msg causally follows every currently-known message, so no
	// new concurrent strong-remove conflict can involve it. Fold it
	// directly against the current membership view.
	fs := &foldState{members: g.members, wasMember: g.wasMember, revoked: g.revoked, created: g.created}
	if !applyAction(fs, msg) {
		g.revoked.Add(msg.ID)
	}
	return nil
}

// IsRevoked reports whether msgID was filtered out during folding (failed
// authorisation, malformed Create, self-remove, or strong-remove).
func (g *Graph) IsRevoked(msgID OperationID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.revoked.Contains(msgID)
}

// Heads returns the current DAG heads, the dependency set a new message
// authored against this view of the group must declare.
func (g *Graph) Heads() []OperationID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.heads.ToSlice()
}

// foldState is the mutable accumulator threaded through a fold pass.
type foldState struct {
	members   map[GroupMember]Access
	wasMember mapset.Set[ActorID]
	revoked   mapset.Set[OperationID]
	created   bool
}

func authorizedFS(fs *foldState, author ActorID) bool {
	lvl, ok := fs.members[GroupMember{Kind: Individual, ID: author}]
	return ok && lvl >= Manage
}

// applyAction mutates fs according to msg and reports whether it was
// authorised and well-formed. A false return means msg must be revoked.
func applyAction(fs *foldState, msg *Message) bool {
	switch a := msg.Action.(type) {
	case *CreateAction:
		if fs.created || len(msg.Dependencies) != 0 || len(a.InitialMembers) != len(a.InitialAccess) {
			return false
		}
		for i, gm := range a.InitialMembers {
			fs.members[gm] = a.InitialAccess[i]
			fs.wasMember.Add(gm.ID)
		}
		fs.created = true
		return true

	case *AddAction:
		if !fs.created || !authorizedFS(fs, msg.Author) {
			return false
		}
		fs.members[a.Member] = a.Access
		fs.wasMember.Add(a.Member.ID)
		return true

	case *RemoveAction:
		if !fs.created || !authorizedFS(fs, msg.Author) {
			return false
		}
		if a.Member.Kind == Individual && a.Member.ID == msg.Author {
			return false
		}
		if _, ok := fs.members[a.Member]; !ok {
			return false
		}
		delete(fs.members, a.Member)
		return true

	case *PromoteAction:
		if !fs.created || !authorizedFS(fs, msg.Author) {
			return false
		}
		cur, ok := fs.members[a.Member]
		if !ok || a.NewAccess <= cur {
			return false
		}
		fs.members[a.Member] = a.NewAccess
		return true

	case *DemoteAction:
		if !fs.created || !authorizedFS(fs, msg.Author) {
			return false
		}
		cur, ok := fs.members[a.Member]
		if !ok || a.NewAccess >= cur || a.NewAccess < Pull {
			return false
		}
		fs.members[a.Member] = a.NewAccess
		return true

	default:
		return false
	}
}

// rebuildLocked recomputes members/wasMember/revoked from scratch:
// topologically order every known message (deterministic tie-break on
// operation id), compute strong-remove conflicts over the full DAG, then
// fold once.
func (g *Graph) rebuildLocked() {
	ancestors := g.ancestorsLocked()
	revoked := g.strongRemoveConflictsLocked(ancestors)
	order := g.topoOrderLocked()

	fs := &foldState{
		members:   make(map[GroupMember]Access),
		wasMember: mapset.NewSet[ActorID](),
		revoked:   revoked,
	}
	for _, id := range order {
		if fs.revoked.Contains(id) {
			continue
		}
		msg := g.messages[id]
		if !applyAction(fs, msg) {
			fs.revoked.Add(id)
		}
	}

	g.members = fs.members
	g.wasMember = fs.wasMember
	g.revoked = fs.revoked
	g.created = fs.created
}

// ancestorsLocked computes, for every known message, the transitive closure
// of its dependencies.
func (g *Graph) ancestorsLocked() map[OperationID]mapset.Set[OperationID] {
	memo := make(map[OperationID]mapset.Set[OperationID], len(g.messages))
	var visit func(id OperationID) mapset.Set[OperationID]
	visit = func(id OperationID) mapset.Set[OperationID] {
		if s, ok := memo[id]; ok {
			return s
		}
		set := mapset.NewSet[OperationID]()
		memo[id] = set // break cycles defensively; the DAG should have none
		msg, ok := g.messages[id]
		if !ok {
			return set
		}
		for _, d := range msg.Dependencies {
			set.Add(d)
			set = set.Union(visit(d))
		}
		memo[id] = set
		return set
	}
	for id := range g.messages {
		visit(id)
	}
	return memo
}

func concurrentMessages(ancestors map[OperationID]mapset.Set[OperationID], a, b OperationID) bool {
	if a == b {
		return false
	}
	if s, ok := ancestors[b]; ok && s.Contains(a) {
		return false
	}
	if s, ok := ancestors[a]; ok && s.Contains(b) {
		return false
	}
	return true
}

// strongRemoveConflictsLocked finds every message authored by a target that
// is concurrent with a Remove of that target, and marks it revoked — except
// for the mutual two-cycle case ("A removes B, B removes A" concurrently).
// There, neither remove is pre-revoked: the fold itself decides the winner,
// since topoOrderLocked already breaks the tie between two concurrent
// messages by ascending operation id, so the smaller-id remove is always
// folded first, its author-authorization check still passes (nobody has
// touched it yet), and it removes the other remove's author before the
// larger-id remove is folded — which then fails its own author check
// naturally and is revoked. This is exactly "the remove with the smaller id
// wins, its author survives as sole manager".
func (g *Graph) strongRemoveConflictsLocked(ancestors map[OperationID]mapset.Set[OperationID]) mapset.Set[OperationID] {
	revoked := mapset.NewSet[OperationID]()
	for _, r := range g.messages {
		rem, ok := r.Action.(*RemoveAction)
		if !ok || rem.Member.Kind != Individual {
			continue
		}
		target := rem.Member.ID
		for _, m := range g.messages {
			if m.ID == r.ID || m.Author != target {
				continue
			}
			if !concurrentMessages(ancestors, r.ID, m.ID) {
				continue
			}
			if isMutualRemoveCycle(r, m) {
				continue
			}
			revoked.Add(m.ID)
		}
	}
	return revoked
}

// isMutualRemoveCycle reports whether r and m are each removing the other's
// author — the cycle the strong-remove rule explicitly exempts.
func isMutualRemoveCycle(r, m *Message) bool {
	mRem, ok := m.Action.(*RemoveAction)
	if !ok || mRem.Member.Kind != Individual {
		return false
	}
	return mRem.Member.ID == r.Author
}

// topoOrderLocked returns all known messages in a topological order
// respecting Dependencies, with concurrent messages broken deterministically
// by ascending operation id.
func (g *Graph) topoOrderLocked() []OperationID {
	indegree := make(map[OperationID]int, len(g.messages))
	dependents := make(map[OperationID][]OperationID)
	for id, msg := range g.messages {
		if _, ok := indegree[id]; !ok {
			indegree[id] = 0
		}
		for _, d := range msg.Dependencies {
			indegree[id]++
			dependents[d] = append(dependents[d], id)
		}
	}

	var frontier []OperationID
	for id, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}

	order := make([]OperationID, 0, len(g.messages))
	for len(frontier) > 0 {
		minIdx := 0
		for i := 1; i < len(frontier); i++ {
			if bytes.Compare(frontier[i][:], frontier[minIdx][:]) < 0 {
				minIdx = i
			}
		}
		cur := frontier[minIdx]
		frontier = append(frontier[:minIdx], frontier[minIdx+1:]...)
		order = append(order, cur)

		for _, child := range dependents[cur] {
			indegree[child]--
			if indegree[child] == 0 {
				frontier = append(frontier, child)
			}
		}
	}
	return order
}
