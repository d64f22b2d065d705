package dcgka

import "errors"

var (
	// ErrUnknownGroup is returned when a message names a group id this
	// instance has no state for.
	ErrUnknownGroup = errors.New("dcgka: unknown group")
	// ErrAlreadyCreated is returned when a Create control message arrives
	// for a group that already has a state.
	ErrAlreadyCreated = errors.New("dcgka: group already created")
	// ErrNotMember is returned when an action targets an actor who does not
	// currently hold the group secret.
	ErrNotMember = errors.New("dcgka: actor is not a current member")
	// ErrGroupSecretMissing is returned by Decrypt when the local member has
	// not yet processed the welcome or update that would hand it the named
	// epoch's secret. The caller is expected to buffer the ciphertext and
	// retry once that control message has landed.
	ErrGroupSecretMissing = errors.New("dcgka: group secret for epoch not yet known")
	// ErrRatchetAdvanceTooFar is returned when a generation is more than
	// MaxForwardDistance ahead of the ratchet's current position.
	ErrRatchetAdvanceTooFar = errors.New("dcgka: ratchet generation exceeds max forward distance")
	// ErrRatchetKeyAlreadyConsumed is returned when decrypting a
	// (sender, epoch, generation) that has already been used once.
	ErrRatchetKeyAlreadyConsumed = errors.New("dcgka: ratchet key already consumed")
)
