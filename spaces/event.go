package spaces

// EventKind discriminates the Event variants a Manager can emit.
type EventKind int

const (
	KindMemberAdded EventKind = iota
	KindMemberRemoved
	KindAccessChanged
	KindEpochAdvanced
	KindMessageDecrypted
	KindWelcomed
	KindEventError
)

// Event is implemented by each concrete event a Manager emits from
// CreateSpace/Add/Remove/Promote/Demote/Process.
type Event interface {
	Kind() EventKind
}

// MemberAdded reports that member joined a space at access.
type MemberAdded struct {
	Member ActorID
	Access Access
}

func (MemberAdded) Kind() EventKind { return KindMemberAdded }

// MemberRemoved reports that member was evicted from a space.
type MemberRemoved struct {
	Member ActorID
}

func (MemberRemoved) Kind() EventKind { return KindMemberRemoved }

// AccessChanged reports a promotion or demotion.
type AccessChanged struct {
	Member ActorID
	From   Access
	To     Access
}

func (AccessChanged) Kind() EventKind { return KindAccessChanged }

// EpochAdvanced reports that the encryption group rotated to a new epoch.
type EpochAdvanced struct {
	Epoch uint64
}

func (EpochAdvanced) Kind() EventKind { return KindEpochAdvanced }

// MessageDecrypted carries application plaintext recovered from an inbound
// ciphertext.
type MessageDecrypted struct {
	Sender    ActorID
	Plaintext []byte
}

func (MessageDecrypted) Kind() EventKind { return KindMessageDecrypted }

// Welcomed reports that the local member was just added to a space and
// handed its current epoch secret.
type Welcomed struct {
	Epoch uint64
}

func (Welcomed) Kind() EventKind { return KindWelcomed }

// EventError wraps a non-fatal failure encountered while processing one
// inbound message (e.g. a ciphertext that arrived before its group secret),
// so callers see it alongside whatever other events the same Process call
// produced rather than as a hard error that discards them.
type EventError struct {
	Err error
}

func (EventError) Kind() EventKind { return KindEventError }
