package authgraph

import mapset "github.com/deckarep/golang-set/v2"

// Access returns member's direct access level in this group.
func (g *Graph) Access(member ActorID) (Access, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	lvl, ok := g.members[GroupMember{Kind: Individual, ID: member}]
	return lvl, ok
}

// IsMember reports whether id currently holds any access level.
func (g *Graph) IsMember(id ActorID) bool {
	_, ok := g.Access(id)
	return ok
}

// WasMember reports whether id ever held membership, even if since removed.
func (g *Graph) WasMember(id ActorID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.wasMember.Contains(id)
}

// IsPuller/IsReader/IsWriter/IsManager report whether id currently holds at
// least the named access level.
func (g *Graph) IsPuller(id ActorID) bool { return g.hasAtLeast(id, Pull) }
func (g *Graph) IsReader(id ActorID) bool { return g.hasAtLeast(id, Read) }
func (g *Graph) IsWriter(id ActorID) bool { return g.hasAtLeast(id, Write) }
func (g *Graph) IsManager(id ActorID) bool { return g.hasAtLeast(id, Manage) }

func (g *Graph) hasAtLeast(id ActorID, floor Access) bool {
	lvl, ok := g.Access(id)
	return ok && lvl >= floor
}

// Members returns the members visible to viewer. A viewer below Read sees
// only members at or below their own level; a viewer at Read or above sees
// everyone.
func (g *Graph) Members(viewer ActorID) map[GroupMember]Access {
	g.mu.Lock()
	defer g.mu.Unlock()

	viewerLevel, ok := g.members[GroupMember{Kind: Individual, ID: viewer}]
	out := make(map[GroupMember]Access, len(g.members))
	if ok && viewerLevel >= Read {
		for gm, lvl := range g.members {
			out[gm] = lvl
		}
		return out
	}
	if !ok {
		return out
	}
	for gm, lvl := range g.members {
		if lvl <= viewerLevel {
			out[gm] = lvl
		}
	}
	return out
}

// GroupLookup resolves an actor's access within a named group, used to
// follow nested-group membership paths. *GroupRegistry implements it.
type GroupLookup interface {
	Access(groupID, member ActorID) (Access, bool)
}

// GroupRegistry holds every group graph a process knows about and resolves
// effective access across nested groups: a member's access via a nested
// group is the minimum of the outer membership's level and the member's
// access within that nested group, taken as the maximum over every
// membership path (direct or nested) that reaches them.
type GroupRegistry struct {
	graphs map[ActorID]*Graph
}

// NewGroupRegistry constructs an empty registry.
func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{graphs: make(map[ActorID]*Graph)}
}

// Register makes g queryable by its group id.
func (r *GroupRegistry) Register(g *Graph) {
	r.graphs[g.groupID] = g
}

// Access resolves member's effective access within groupID, following
// nested-group paths; a set of the groups already being visited stops a
// membership cycle.
func (r *GroupRegistry) Access(groupID, member ActorID) (Access, bool) {
	return r.resolve(groupID, member, mapset.NewSet[ActorID]())
}

func (r *GroupRegistry) resolve(groupID, member ActorID, visiting mapset.Set[ActorID]) (Access, bool) {
	if visiting.Contains(groupID) {
		return 0, false // nested-group membership cycle; treat as unreachable
	}
	g, ok := r.graphs[groupID]
	if !ok {
		return 0, false
	}
	visiting = visiting.Clone()
	visiting.Add(groupID)

	g.mu.Lock()
	snapshot := make(map[GroupMember]Access, len(g.members))
	for gm, lvl := range g.members {
		snapshot[gm] = lvl
	}
	g.mu.Unlock()

	best, found := -1, false
	if lvl, ok := snapshot[GroupMember{Kind: Individual, ID: member}]; ok {
		best, found = int(lvl), true
	}
	for gm, lvl := range snapshot {
		if gm.Kind != NestedGroup {
			continue
		}
		nested, ok := r.resolve(gm.ID, member, visiting)
		if !ok {
			continue
		}
		candidate := lvl
		if nested < candidate {
			candidate = nested
		}
		if int(candidate) > best {
			best, found = int(candidate), true
		}
	}
	if !found {
		return 0, false
	}
	return Access(best), true
}
