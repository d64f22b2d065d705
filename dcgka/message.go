package dcgka

import "github.com/p2panda/p2panda-go/keybundle"

// ControlKind discriminates the DCGKA control message variants.
type ControlKind int

const (
	KindCreate ControlKind = iota
	KindAck
	KindUpdate
	KindRemove
	KindAdd
	KindAddAck
)

// ControlAction is one of Create/Ack/Update/Remove/Add/AddAck.
type ControlAction interface {
	Kind() ControlKind
}

// CreateAction establishes a group at epoch 0 with initialMembers.
type CreateAction struct {
	InitialMembers []ActorID
}

func (CreateAction) Kind() ControlKind { return KindCreate }

// AckAction closes the loop on a prior Create or Add, used for liveness
// bookkeeping; it does not mutate group crypto state.
type AckAction struct {
	AckID OperationID
}

func (AckAction) Kind() ControlKind { return KindAck }

// UpdateAction rotates the group secret without changing membership.
type UpdateAction struct{}

func (UpdateAction) Kind() ControlKind { return KindUpdate }

// RemoveAction evicts a member and rotates the group secret so the removed
// member cannot derive future epochs.
type RemoveAction struct {
	Member ActorID
}

func (RemoveAction) Kind() ControlKind { return KindRemove }

// AddAction rotates to a new epoch and welcomes a new member into it; the
// prior epoch's secret is never shared with the new member.
type AddAction struct {
	Member  ActorID
	Welcome DirectMessage
}

func (AddAction) Kind() ControlKind { return KindAdd }

// AddAckAction acknowledges receipt of a welcome.
type AddAckAction struct {
	AddedID OperationID
}

func (AddAckAction) Kind() ControlKind { return KindAddAck }

// DirectMessageType discriminates what a DirectMessage's content carries.
type DirectMessageType int

const (
	GroupSecretType DirectMessageType = iota
	WelcomeType
)

// DirectMessage is a per-recipient payload riding alongside a control
// message: a 2SM ciphertext carrying either a group secret or a welcome.
type DirectMessage struct {
	Type    DirectMessageType
	Content keybundle.TwoPartyCiphertext
}

// Recipient pairs a DirectMessage with the member it is addressed to. A
// single control message carries a list of these; tests must not assume
// control and direct messages travel together on the wire.
type Recipient struct {
	To      ActorID
	Message DirectMessage
}

// ControlMessage is one DCGKA control message plus its accompanying
// per-recipient direct messages.
type ControlMessage struct {
	ID      OperationID
	Sender  ActorID
	GroupID ActorID
	Epoch   uint64
	Action  ControlAction
	Directs []Recipient
}
