package spaces

import (
	"github.com/p2panda/p2panda-go/authgraph"
	"github.com/p2panda/p2panda-go/dcgka"
	"github.com/p2panda/p2panda-go/keybundle"
)

// InboundMessage is implemented by each kind of message a Manager can fold
// into a space: a replicated auth-graph control message, a replicated DCGKA
// control message, or an application ciphertext.
type InboundMessage interface {
	isInbound()
}

// InboundAuth wraps a replicated auth-graph control message.
type InboundAuth struct {
	Message *authgraph.Message
}

func (InboundAuth) isInbound() {}

// InboundControl wraps a replicated DCGKA control message. FromSender is
// the 2-party receiver session keyed to the message's sender, needed to
// open any direct message it carries; nil if the message carries none
// addressed to this member.
type InboundControl struct {
	Message    *dcgka.ControlMessage
	FromSender *keybundle.ReceiverSession
}

func (InboundControl) isInbound() {}

// InboundCiphertext wraps an application message encrypted under a space's
// DCGKA group.
type InboundCiphertext struct {
	Sender         ActorID
	Epoch          uint64
	Generation     uint64
	Ciphertext     []byte
	AdditionalData []byte
}

func (InboundCiphertext) isInbound() {}

// Process folds one inbound message into the named space and reports the
// resulting events. A space need not already exist locally: an InboundAuth
// or InboundControl naming an unknown space id lazily provisions empty
// auth-graph/DCGKA state for it first, covering the case of learning about
// a space by being added to it rather than by creating it.
func (m *Manager[S]) Process(id S, in InboundMessage) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.spaces[id]
	if !ok {
		groupID, ok := groupIDOf(in)
		if !ok {
			return nil, ErrUnknownSpace
		}
		st = &spaceState{groupID: groupID, auth: authgraph.NewGraph(groupID), enc: dcgka.NewGroup(groupID, m.self)}
		m.spaces[id] = st
	}

	switch msg := in.(type) {
	case InboundAuth:
		return m.processAuth(st, msg)
	case InboundControl:
		return m.processControl(st, msg)
	case InboundCiphertext:
		return m.processCiphertext(st, msg)
	default:
		return nil, nil
	}
}

func groupIDOf(in InboundMessage) (ActorID, bool) {
	switch msg := in.(type) {
	case InboundAuth:
		return msg.Message.GroupID, true
	case InboundControl:
		return msg.Message.GroupID, true
	default:
		var zero ActorID
		return zero, false
	}
}

func (m *Manager[S]) processAuth(st *spaceState, msg InboundAuth) ([]Event, error) {
	target, hasTarget := actionTarget(msg.Message.Action)
	var before Access
	var hadBefore bool
	if hasTarget {
		before, hadBefore = st.auth.Access(target)
	}

	if err := st.auth.Process(msg.Message); err != nil {
		return []Event{EventError{Err: err}}, err
	}
	if st.auth.IsRevoked(msg.Message.ID) {
		return []Event{EventError{Err: ErrNotAuthorized}}, nil
	}

	return authEventsFor(msg.Message, before, hadBefore), nil
}

// actionTarget extracts the member an Add/Remove/Promote/Demote action
// names; Create has no single target.
func actionTarget(action authgraph.Action) (ActorID, bool) {
	switch a := action.(type) {
	case *authgraph.AddAction:
		return a.Member.ID, true
	case *authgraph.RemoveAction:
		return a.Member.ID, true
	case *authgraph.PromoteAction:
		return a.Member.ID, true
	case *authgraph.DemoteAction:
		return a.Member.ID, true
	default:
		var zero ActorID
		return zero, false
	}
}

func authEventsFor(msg *authgraph.Message, before Access, hadBefore bool) []Event {
	switch a := msg.Action.(type) {
	case *authgraph.CreateAction:
		events := make([]Event, 0, len(a.InitialMembers))
		for i, gm := range a.InitialMembers {
			events = append(events, MemberAdded{Member: gm.ID, Access: a.InitialAccess[i]})
		}
		return events
	case *authgraph.AddAction:
		return []Event{MemberAdded{Member: a.Member.ID, Access: a.Access}}
	case *authgraph.RemoveAction:
		return []Event{MemberRemoved{Member: a.Member.ID}}
	case *authgraph.PromoteAction:
		if !hadBefore {
			return []Event{AccessChanged{Member: a.Member.ID, To: a.NewAccess}}
		}
		return []Event{AccessChanged{Member: a.Member.ID, From: before, To: a.NewAccess}}
	case *authgraph.DemoteAction:
		if !hadBefore {
			return []Event{AccessChanged{Member: a.Member.ID, To: a.NewAccess}}
		}
		return []Event{AccessChanged{Member: a.Member.ID, From: before, To: a.NewAccess}}
	default:
		return nil
	}
}

func (m *Manager[S]) processControl(st *spaceState, msg InboundControl) ([]Event, error) {
	if err := st.enc.ProcessControl(msg.Message, msg.FromSender); err != nil {
		return []Event{EventError{Err: err}}, err
	}

	switch a := msg.Message.Action.(type) {
	case dcgka.AddAction:
		if a.Member == m.self {
			return []Event{Welcomed{Epoch: msg.Message.Epoch}}, nil
		}
		return []Event{EpochAdvanced{Epoch: st.enc.Epoch()}}, nil
	case dcgka.RemoveAction, dcgka.UpdateAction:
		return []Event{EpochAdvanced{Epoch: st.enc.Epoch()}}, nil
	default:
		return nil, nil
	}
}

func (m *Manager[S]) processCiphertext(st *spaceState, msg InboundCiphertext) ([]Event, error) {
	plaintext, err := st.enc.Decrypt(msg.Sender, msg.Epoch, msg.Generation, msg.Ciphertext, msg.AdditionalData)
	if err != nil {
		return []Event{EventError{Err: err}}, err
	}
	return []Event{MessageDecrypted{Sender: msg.Sender, Plaintext: plaintext}}, nil
}
