package dcgka

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/keybundle"
)

type ratchetKey struct {
	sender ActorID
	epoch  uint64
}

// Group is one member's view of a DCGKA-managed encryption group: current
// membership, the epoch's group secret history, this member's own outgoing
// ratchet, and a decryption ratchet per (sender, epoch) seen so far.
type Group struct {
	mu sync.Mutex

	groupID ActorID
	self    ActorID
	created bool

	members mapset.Set[ActorID]
	epoch   uint64
	secrets *SecretBundle

	sendRatchets map[uint64]*RatchetSecret
	recvRatchets map[ratchetKey]*DecryptionRatchet
	acked        mapset.Set[OperationID]

	outOfOrderTolerance int
	maxForwardDistance  uint64
}

// NewGroup constructs an empty, uncreated group view for self.
func NewGroup(groupID, self ActorID) *Group {
	return &Group{
		groupID:             groupID,
		self:                self,
		members:             mapset.NewSet[ActorID](),
		secrets:             NewSecretBundle(DefaultSecretHistory),
		sendRatchets:        make(map[uint64]*RatchetSecret),
		recvRatchets:        make(map[ratchetKey]*DecryptionRatchet),
		acked:               mapset.NewSet[OperationID](),
		outOfOrderTolerance: DefaultOutOfOrderTolerance,
		maxForwardDistance:  DefaultMaxForwardDistance,
	}
}

// IsMember reports whether actor currently holds the group secret.
func (g *Group) IsMember(actor ActorID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.members.Contains(actor)
}

// Epoch returns the current epoch number.
func (g *Group) Epoch() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch
}

// Acked reports whether ackID has been acknowledged via an AckAction.
func (g *Group) Acked(ackID OperationID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acked.Contains(ackID)
}

// CreateControl establishes the group at epoch 0 with initialMembers,
// sealing the fresh group secret to every member but self via sessions
// (keyed by recipient). self need not appear in sessions.
func (g *Group) CreateControl(id OperationID, initialMembers []ActorID, sessions map[ActorID]*keybundle.SenderSession, r *crypto.Rand) (*ControlMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.created {
		return nil, ErrAlreadyCreated
	}

	secretBytes := r.Array32()
	secret := crypto.NewSecret(secretBytes[:])

	g.created = true
	g.epoch = 0
	g.members = mapset.NewSet[ActorID](initialMembers...)
	g.secrets.Put(g.groupID, 0, secret)
	g.sendRatchets[0] = newRatchetSecret(ratchetSeed(secret, g.self))

	var directs []Recipient
	for _, member := range initialMembers {
		if member == g.self {
			continue
		}
		session, ok := sessions[member]
		if !ok {
			continue
		}
		ct, err := session.Send(r, secretBytes[:])
		if err != nil {
			return nil, err
		}
		directs = append(directs, Recipient{To: member, Message: DirectMessage{Type: GroupSecretType, Content: ct}})
	}

	return &ControlMessage{
		ID:      id,
		Sender:  g.self,
		GroupID: g.groupID,
		Epoch:   0,
		Action:  CreateAction{InitialMembers: initialMembers},
		Directs: directs,
	}, nil
}

// ProcessControl applies an inbound control message. fromSender decrypts
// any direct message addressed to self within msg and must be the
// ReceiverSession paired with msg.Sender; it may be nil if no direct
// message is expected (e.g. a plain Ack).
func (g *Group) ProcessControl(msg *ControlMessage, fromSender *keybundle.ReceiverSession) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if msg.GroupID != g.groupID {
		return ErrUnknownGroup
	}

	switch action := msg.Action.(type) {
	case CreateAction:
		if g.created {
			return ErrAlreadyCreated
		}
		g.created = true
		g.epoch = 0
		g.members = mapset.NewSet[ActorID](action.InitialMembers...)
		secret, err := g.acceptDirect(msg, fromSender)
		if err != nil {
			return err
		}
		if secret != nil {
			g.secrets.Put(g.groupID, 0, secret)
			g.sendRatchets[0] = newRatchetSecret(ratchetSeed(secret, g.self))
		}
		return nil

	case AckAction:
		g.acked.Add(action.AckID)
		return nil

	case AddAction:
		if action.Member == g.self {
			secret, err := g.acceptWelcome(msg, action.Welcome, fromSender)
			if err != nil {
				return err
			}
			g.created = true
			g.epoch = msg.Epoch
			g.secrets.Put(g.groupID, g.epoch, secret)
			g.sendRatchets[g.epoch] = newRatchetSecret(ratchetSeed(secret, g.self))
			g.members.Add(action.Member)
			g.members.Add(msg.Sender)
			return nil
		}
		secret, err := g.acceptDirect(msg, fromSender)
		if err != nil {
			return err
		}
		if secret != nil {
			g.epoch++
			g.secrets.Put(g.groupID, g.epoch, secret)
			g.sendRatchets[g.epoch] = newRatchetSecret(ratchetSeed(secret, g.self))
		}
		g.members.Add(action.Member)
		return nil

	case AddAckAction:
		g.acked.Add(action.AddedID)
		return nil

	case RemoveAction:
		g.members.Remove(action.Member)
		secret, err := g.acceptDirect(msg, fromSender)
		if err != nil {
			return err
		}
		if secret != nil {
			g.epoch++
			g.secrets.Put(g.groupID, g.epoch, secret)
			g.sendRatchets[g.epoch] = newRatchetSecret(ratchetSeed(secret, g.self))
		}
		return nil

	case UpdateAction:
		secret, err := g.acceptDirect(msg, fromSender)
		if err != nil {
			return err
		}
		if secret != nil {
			g.epoch++
			g.secrets.Put(g.groupID, g.epoch, secret)
			g.sendRatchets[g.epoch] = newRatchetSecret(ratchetSeed(secret, g.self))
		}
		return nil
	}

	return nil
}

// acceptDirect decrypts the direct message addressed to self within msg, if
// any, returning the delivered group secret bytes wrapped in a Secret.
func (g *Group) acceptDirect(msg *ControlMessage, fromSender *keybundle.ReceiverSession) (*crypto.Secret, error) {
	for _, d := range msg.Directs {
		if d.To != g.self {
			continue
		}
		if fromSender == nil {
			return nil, ErrGroupSecretMissing
		}
		plaintext, err := fromSender.Receive(d.Message.Content)
		if err != nil {
			return nil, err
		}
		return crypto.NewSecret(plaintext), nil
	}
	return nil, nil
}

func (g *Group) acceptWelcome(msg *ControlMessage, welcome DirectMessage, fromSender *keybundle.ReceiverSession) (*crypto.Secret, error) {
	if fromSender == nil {
		return nil, ErrGroupSecretMissing
	}
	plaintext, err := fromSender.Receive(welcome.Content)
	if err != nil {
		return nil, err
	}
	return crypto.NewSecret(plaintext), nil
}

// AddControl admits member by rotating to a fresh epoch: the new secret is
// resealed to every existing member via sessions and sealed to member via
// session, so member only ever holds secrets from the epoch it joined
// onward and cannot decrypt anything sealed under an earlier epoch.
func (g *Group) AddControl(id OperationID, member ActorID, session *keybundle.SenderSession, sessions map[ActorID]*keybundle.SenderSession, r *crypto.Rand) (*ControlMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.created {
		return nil, ErrUnknownGroup
	}
	oldSecret, ok := g.secrets.Get(g.epoch)
	if !ok {
		return nil, ErrGroupSecretMissing
	}

	newEpoch := g.epoch + 1
	newSecret := crypto.HKDF(oldSecret, id.Bytes(), []byte("dcgka-epoch-advance"), 32)

	welcomeCT, err := session.Send(r, newSecret.Bytes())
	if err != nil {
		return nil, err
	}

	var directs []Recipient
	for existing := range g.members.Iter() {
		if existing == g.self {
			continue
		}
		s, ok := sessions[existing]
		if !ok {
			continue
		}
		ct, err := s.Send(r, newSecret.Bytes())
		if err != nil {
			return nil, err
		}
		directs = append(directs, Recipient{To: existing, Message: DirectMessage{Type: GroupSecretType, Content: ct}})
	}

	g.epoch = newEpoch
	g.secrets.Put(g.groupID, newEpoch, newSecret)
	g.sendRatchets[newEpoch] = newRatchetSecret(ratchetSeed(newSecret, g.self))
	g.members.Add(member)

	return &ControlMessage{
		ID:      id,
		Sender:  g.self,
		GroupID: g.groupID,
		Epoch:   newEpoch,
		Action: AddAction{
			Member:  member,
			Welcome: DirectMessage{Type: WelcomeType, Content: welcomeCT},
		},
		Directs: directs,
	}, nil
}

// RemoveControl evicts member and rotates the secret, sealing the new one
// to every remaining member (except self) via sessions.
func (g *Group) RemoveControl(id OperationID, member ActorID, sessions map[ActorID]*keybundle.SenderSession, r *crypto.Rand) (*ControlMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.created {
		return nil, ErrUnknownGroup
	}
	if !g.members.Contains(member) {
		return nil, ErrNotMember
	}

	g.members.Remove(member)
	msg, err := g.rotateLocked(id, sessions, r)
	if err != nil {
		return nil, err
	}
	msg.Action = RemoveAction{Member: member}
	return msg, nil
}

// UpdateControl rotates the group secret without changing membership.
func (g *Group) UpdateControl(id OperationID, sessions map[ActorID]*keybundle.SenderSession, r *crypto.Rand) (*ControlMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.created {
		return nil, ErrUnknownGroup
	}
	msg, err := g.rotateLocked(id, sessions, r)
	if err != nil {
		return nil, err
	}
	msg.Action = UpdateAction{}
	return msg, nil
}

// rotateLocked derives a fresh epoch secret from the current one and seals
// it to every current member but self. Caller holds g.mu and fills in the
// returned message's Action.
func (g *Group) rotateLocked(id OperationID, sessions map[ActorID]*keybundle.SenderSession, r *crypto.Rand) (*ControlMessage, error) {
	oldSecret, ok := g.secrets.Get(g.epoch)
	if !ok {
		return nil, ErrGroupSecretMissing
	}
	newEpoch := g.epoch + 1
	newSecret := crypto.HKDF(oldSecret, id.Bytes(), []byte("dcgka-epoch-advance"), 32)

	g.epoch = newEpoch
	g.secrets.Put(g.groupID, newEpoch, newSecret)
	g.sendRatchets[newEpoch] = newRatchetSecret(ratchetSeed(newSecret, g.self))

	var directs []Recipient
	for member := range g.members.Iter() {
		if member == g.self {
			continue
		}
		session, ok := sessions[member]
		if !ok {
			continue
		}
		ct, err := session.Send(r, newSecret.Bytes())
		if err != nil {
			return nil, err
		}
		directs = append(directs, Recipient{To: member, Message: DirectMessage{Type: GroupSecretType, Content: ct}})
	}

	return &ControlMessage{
		ID:      id,
		Sender:  g.self,
		GroupID: g.groupID,
		Epoch:   newEpoch,
		Directs: directs,
	}, nil
}

// AckControl builds a plain acknowledgement of ackID.
func (g *Group) AckControl(id OperationID, ackID OperationID) *ControlMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &ControlMessage{ID: id, Sender: g.self, GroupID: g.groupID, Epoch: g.epoch, Action: AckAction{AckID: ackID}}
}

// AddAckControl builds an acknowledgement of a welcome.
func (g *Group) AddAckControl(id OperationID, addedID OperationID) *ControlMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &ControlMessage{ID: id, Sender: g.self, GroupID: g.groupID, Epoch: g.epoch, Action: AddAckAction{AddedID: addedID}}
}

// Encrypt seals plaintext under self's current-epoch ratchet, returning the
// epoch and generation the receiver needs to find the matching key.
func (g *Group) Encrypt(plaintext, additionalData []byte) (epoch, generation uint64, ciphertext []byte, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ratchet, ok := g.sendRatchets[g.epoch]
	if !ok {
		return 0, 0, nil, ErrGroupSecretMissing
	}
	gen, key, nonce := ratchet.Advance()
	defer key.Zero()

	ct, err := crypto.SealDeterministic(key, nonce, plaintext, additionalData)
	if err != nil {
		return 0, 0, nil, err
	}
	return g.epoch, gen, ct, nil
}

// Decrypt opens a ciphertext produced by sender's Encrypt at (epoch,
// generation), lazily creating that sender's decryption ratchet from the
// group secret already known for epoch.
func (g *Group) Decrypt(sender ActorID, epoch, generation uint64, ciphertext, additionalData []byte) ([]byte, error) {
	g.mu.Lock()
	key := ratchetKey{sender: sender, epoch: epoch}
	ratchet, ok := g.recvRatchets[key]
	if !ok {
		secret, ok2 := g.secrets.Get(epoch)
		if !ok2 {
			g.mu.Unlock()
			return nil, ErrGroupSecretMissing
		}
		ratchet = NewDecryptionRatchet(ratchetSeed(secret, sender), g.outOfOrderTolerance, g.maxForwardDistance)
		g.recvRatchets[key] = ratchet
	}
	g.mu.Unlock()

	messageKey, nonce, err := ratchet.Consume(generation)
	if err != nil {
		return nil, err
	}
	defer messageKey.Zero()

	return crypto.OpenDeterministic(messageKey, nonce, ciphertext, additionalData)
}
