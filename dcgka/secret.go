package dcgka

import (
	"encoding/binary"
	"sync"

	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/hash"
)

// DefaultSecretHistory bounds how many past epochs' secrets a SecretBundle
// retains, enough to decrypt slightly stale in-flight messages without
// holding the whole group's history forever.
const DefaultSecretHistory = 8

// GroupSecretId addresses one epoch's secret. Derived deterministically from
// the group id and epoch number, it is never itself sensitive.
func groupSecretID(groupID ActorID, epoch uint64) hash.Hash {
	buf := make([]byte, 0, len(groupID)+8)
	buf = append(buf, groupID.Bytes()...)
	var e [8]byte
	binary.BigEndian.PutUint64(e[:], epoch)
	buf = append(buf, e[:]...)
	return hash.Of(buf)
}

type groupSecretEntry struct {
	id     hash.Hash
	secret *crypto.Secret
}

// SecretBundle holds every GroupSecret a member currently knows: the current
// epoch's plus a bounded history, so recently-stale messages stay
// decryptable.
type SecretBundle struct {
	mu      sync.Mutex
	history int
	order   []uint64
	secrets map[uint64]groupSecretEntry
}

// NewSecretBundle constructs an empty bundle retaining up to history past
// epochs (DefaultSecretHistory if history <= 0).
func NewSecretBundle(history int) *SecretBundle {
	if history <= 0 {
		history = DefaultSecretHistory
	}
	return &SecretBundle{history: history, secrets: make(map[uint64]groupSecretEntry)}
}

// Put stores the secret for epoch, evicting the oldest epoch if the history
// bound is exceeded.
func (b *SecretBundle) Put(groupID ActorID, epoch uint64, secret *crypto.Secret) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.secrets[epoch]; !exists {
		b.order = append(b.order, epoch)
	}
	b.secrets[epoch] = groupSecretEntry{id: groupSecretID(groupID, epoch), secret: secret}

	for len(b.order) > b.history {
		oldest := b.order[0]
		b.order = b.order[1:]
		if entry, ok := b.secrets[oldest]; ok {
			entry.secret.Zero()
			delete(b.secrets, oldest)
		}
	}
}

// Get returns the secret known for epoch, if any is still retained.
func (b *SecretBundle) Get(epoch uint64) (*crypto.Secret, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.secrets[epoch]
	if !ok {
		return nil, false
	}
	return entry.secret, true
}

// Latest returns the highest epoch currently retained and its secret.
func (b *SecretBundle) Latest() (uint64, *crypto.Secret, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.order) == 0 {
		return 0, nil, false
	}
	latest := b.order[len(b.order)-1]
	for _, e := range b.order {
		if e > latest {
			latest = e
		}
	}
	entry := b.secrets[latest]
	return latest, entry.secret, true
}
