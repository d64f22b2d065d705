package spaces

import (
	"fmt"
	"sync"

	"github.com/p2panda/p2panda-go/authgraph"
	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/dcgka"
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/keybundle"
)

type spaceState struct {
	groupID ActorID
	auth    *authgraph.Graph
	enc     *dcgka.Group
}

// Mutation is what a local membership/access change produces: the forged
// auth-graph and/or DCGKA messages, ready to broadcast to other replicas,
// plus the local events the change generated. Control is nil for a pure
// Promote/Promote-equivalent that never touches the encryption group.
type Mutation struct {
	Auth    *authgraph.Message
	Control *dcgka.ControlMessage
	Events  []Event
}

// Manager binds one auth-graph group and one DCGKA encryption group per
// space id. S is application-defined and only required to be comparable
// S only needs to support equality and be serialisable by the caller.
type Manager[S comparable] struct {
	mu     sync.Mutex
	self   ActorID
	spaces map[S]*spaceState
}

// NewManager constructs an empty Manager acting as self.
func NewManager[S comparable](self ActorID) *Manager[S] {
	return &Manager[S]{self: self, spaces: make(map[S]*spaceState)}
}

// spaceGroupID derives a stable synthetic group identity from an
// application space id, so authgraph.Graph/dcgka.Group (which key state by
// ActorID) have something to compare incoming messages' GroupID against.
func spaceGroupID[S comparable](id S) ActorID {
	h := hash.Of([]byte(fmt.Sprintf("%v", id)))
	var pk ActorID
	copy(pk[:], h[:])
	return pk
}

// CreateSpace forges the paired auth-graph Create and DCGKA Create for a
// brand-new space. Neither mutation is observable locally until both
// succeed; the caller broadcasts the returned Mutation's messages to admit
// other replicas to the space.
func (m *Manager[S]) CreateSpace(id S, opID OperationID, initialMembers []ActorID, initialAccess []Access, sessions map[ActorID]*keybundle.SenderSession, r *crypto.Rand) (*Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.spaces[id]; exists {
		return nil, ErrSpaceExists
	}

	groupID := spaceGroupID(id)
	auth := authgraph.NewGraph(groupID)
	enc := dcgka.NewGroup(groupID, m.self)

	members := make([]authgraph.GroupMember, len(initialMembers))
	for i, a := range initialMembers {
		members[i] = authgraph.GroupMember{Kind: authgraph.Individual, ID: a}
	}

	ctrl, err := enc.CreateControl(opID, initialMembers, sessions, r)
	if err != nil {
		return nil, err
	}

	authMsg := &authgraph.Message{
		ID:      opID,
		Author:  m.self,
		GroupID: groupID,
		Action:  authgraph.NewCreateAction(members, initialAccess),
	}
	if err := auth.Process(authMsg); err != nil {
		return nil, err
	}

	m.spaces[id] = &spaceState{groupID: groupID, auth: auth, enc: enc}

	events := make([]Event, 0, len(initialMembers)+1)
	for i, a := range initialMembers {
		events = append(events, MemberAdded{Member: a, Access: initialAccess[i]})
	}
	events = append(events, EpochAdvanced{Epoch: 0})
	return &Mutation{Auth: authMsg, Control: ctrl, Events: events}, nil
}

// Add forges the paired auth-graph Add and a DCGKA epoch rotation that
// welcomes the new member into the new epoch only: existing members' epoch
// secret is resealed via sessions, and newMemberSession seals it to member,
// so member cannot decrypt anything sent under an earlier epoch. actor must
// currently hold Manage in the space.
func (m *Manager[S]) Add(id S, opID OperationID, actor, member ActorID, access Access, newMemberSession *keybundle.SenderSession, sessions map[ActorID]*keybundle.SenderSession, r *crypto.Rand) (*Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.spaces[id]
	if !ok {
		return nil, ErrUnknownSpace
	}
	if !st.auth.IsManager(actor) {
		return nil, ErrNotAuthorized
	}

	ctrl, err := st.enc.AddControl(opID, member, newMemberSession, sessions, r)
	if err != nil {
		return nil, err
	}

	authMsg := &authgraph.Message{
		ID:           opID,
		Author:       actor,
		GroupID:      st.groupID,
		Dependencies: st.auth.Heads(),
		Action:       authgraph.NewAddAction(authgraph.GroupMember{Kind: authgraph.Individual, ID: member}, access),
	}
	if err := st.auth.Process(authMsg); err != nil {
		return nil, err
	}
	if st.auth.IsRevoked(opID) {
		return &Mutation{Auth: authMsg, Control: ctrl, Events: []Event{EventError{Err: ErrNotAuthorized}}}, ErrNotAuthorized
	}

	events := []Event{MemberAdded{Member: member, Access: access}, EpochAdvanced{Epoch: ctrl.Epoch}}
	return &Mutation{Auth: authMsg, Control: ctrl, Events: events}, nil
}

// Remove forges the paired auth-graph Remove and DCGKA Remove (which
// rotates the encryption epoch so the evicted member cannot derive future
// secrets). actor must currently hold Manage in the space.
func (m *Manager[S]) Remove(id S, opID OperationID, actor, member ActorID, sessions map[ActorID]*keybundle.SenderSession, r *crypto.Rand) (*Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.spaces[id]
	if !ok {
		return nil, ErrUnknownSpace
	}
	if !st.auth.IsManager(actor) {
		return nil, ErrNotAuthorized
	}

	ctrl, err := st.enc.RemoveControl(opID, member, sessions, r)
	if err != nil {
		return nil, err
	}

	authMsg := &authgraph.Message{
		ID:           opID,
		Author:       actor,
		GroupID:      st.groupID,
		Dependencies: st.auth.Heads(),
		Action:       authgraph.NewRemoveAction(authgraph.GroupMember{Kind: authgraph.Individual, ID: member}),
	}
	if err := st.auth.Process(authMsg); err != nil {
		return nil, err
	}
	if st.auth.IsRevoked(opID) {
		return &Mutation{Auth: authMsg, Control: ctrl, Events: []Event{EventError{Err: ErrNotAuthorized}}}, ErrNotAuthorized
	}

	return &Mutation{Auth: authMsg, Control: ctrl, Events: []Event{MemberRemoved{Member: member}, EpochAdvanced{Epoch: ctrl.Epoch}}}, nil
}

// Promote forges an auth-graph Promote. It never touches the encryption
// group: gaining access never needs to exclude anyone from a secret.
func (m *Manager[S]) Promote(id S, opID OperationID, actor, member ActorID, newAccess Access) (*Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.spaces[id]
	if !ok {
		return nil, ErrUnknownSpace
	}
	if !st.auth.IsManager(actor) {
		return nil, ErrNotAuthorized
	}
	current, ok := st.auth.Access(member)
	if !ok {
		return nil, authgraph.ErrNotMember
	}
	action, err := authgraph.NewPromoteAction(authgraph.GroupMember{Kind: authgraph.Individual, ID: member}, current, newAccess)
	if err != nil {
		return nil, err
	}

	authMsg := &authgraph.Message{
		ID:           opID,
		Author:       actor,
		GroupID:      st.groupID,
		Dependencies: st.auth.Heads(),
		Action:       action,
	}
	if err := st.auth.Process(authMsg); err != nil {
		return nil, err
	}
	if st.auth.IsRevoked(opID) {
		return &Mutation{Auth: authMsg, Events: []Event{EventError{Err: ErrNotAuthorized}}}, ErrNotAuthorized
	}

	return &Mutation{Auth: authMsg, Events: []Event{AccessChanged{Member: member, From: current, To: newAccess}}}, nil
}

// Demote forges an auth-graph Demote. If newAccess drops member below
// Read, it also drops them from the encryption group and rotates the
// epoch, so they are excluded from the next epoch's secret, even though
// their auth membership (at Pull) survives.
func (m *Manager[S]) Demote(id S, opID OperationID, actor, member ActorID, newAccess Access, sessions map[ActorID]*keybundle.SenderSession, r *crypto.Rand) (*Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.spaces[id]
	if !ok {
		return nil, ErrUnknownSpace
	}
	if !st.auth.IsManager(actor) {
		return nil, ErrNotAuthorized
	}
	current, ok := st.auth.Access(member)
	if !ok {
		return nil, authgraph.ErrNotMember
	}
	action, err := authgraph.NewDemoteAction(authgraph.GroupMember{Kind: authgraph.Individual, ID: member}, current, newAccess)
	if err != nil {
		return nil, err
	}

	events := []Event{}
	var ctrl *dcgka.ControlMessage
	if newAccess < authgraph.Read && st.enc.IsMember(member) {
		var err error
		ctrl, err = st.enc.RemoveControl(opID, member, sessions, r)
		if err != nil {
			return nil, err
		}
		events = append(events, EpochAdvanced{Epoch: ctrl.Epoch})
	}

	authMsg := &authgraph.Message{
		ID:           opID,
		Author:       actor,
		GroupID:      st.groupID,
		Dependencies: st.auth.Heads(),
		Action:       action,
	}
	if err := st.auth.Process(authMsg); err != nil {
		return nil, err
	}
	if st.auth.IsRevoked(opID) {
		return &Mutation{Auth: authMsg, Control: ctrl, Events: []Event{EventError{Err: ErrNotAuthorized}}}, ErrNotAuthorized
	}

	events = append(events, AccessChanged{Member: member, From: current, To: newAccess})
	return &Mutation{Auth: authMsg, Control: ctrl, Events: events}, nil
}

// Encrypt seals plaintext for a space's current encryption epoch, for the
// local member to send to the rest of the group. additionalData is bound
// to the ciphertext (authenticated but not encrypted) and is not sent back
// by Process's resulting event.
func (m *Manager[S]) Encrypt(id S, plaintext, additionalData []byte) (epoch, generation uint64, ciphertext []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.spaces[id]
	if !ok {
		return 0, 0, nil, ErrUnknownSpace
	}
	return st.enc.Encrypt(plaintext, additionalData)
}
