package dcgka

import (
	"encoding/binary"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/p2panda/p2panda-go/crypto"
)

// DefaultOutOfOrderTolerance is how many generations behind the ratchet's
// current position a receiver still keeps derived keys for, to absorb
// reordering on the transport.
const DefaultOutOfOrderTolerance = 16

// DefaultMaxForwardDistance bounds how many generations a receiver will
// advance through in one jump to catch up with a skip-ahead message.
const DefaultMaxForwardDistance = 1024

var (
	messageKeyInfo   = []byte("dcgka-message-key")
	chainAdvanceInfo = []byte("dcgka-chain-advance")
	ratchetSeedInfo  = []byte("dcgka-ratchet-seed")
)

// ratchetSeed derives the per-(epoch, sender) chain seed every member
// computes independently from the shared group secret; no extra
// coordination between sender and receivers is needed to agree on it.
func ratchetSeed(groupSecret *crypto.Secret, sender ActorID) *crypto.Secret {
	return crypto.HKDF(groupSecret, sender.Bytes(), ratchetSeedInfo, 32)
}

// ratchetStep derives generation gen's (message_key, nonce) from chainSecret
// and returns the advanced secret for generation gen+1. chainSecret is
// consumed (zeroed).
func ratchetStep(chainSecret *crypto.Secret, gen uint64) (messageKey *crypto.Secret, nonce [12]byte, next *crypto.Secret) {
	messageKey = crypto.HKDF(chainSecret, nil, messageKeyInfo, 32)
	next = crypto.HKDF(chainSecret, nil, chainAdvanceInfo, 32)
	chainSecret.Zero()
	binary.BigEndian.PutUint64(nonce[4:], gen)
	return messageKey, nonce, next
}

// RatchetSecret is a sender's per-epoch chain: each Advance yields a fresh
// (message_key, nonce) pair for the next generation and deletes the prior
// chain secret, giving forward secrecy.
type RatchetSecret struct {
	mu         sync.Mutex
	secret     *crypto.Secret
	generation uint64
}

func newRatchetSecret(seed *crypto.Secret) *RatchetSecret {
	return &RatchetSecret{secret: seed}
}

// Advance produces the next generation's message key and nonce.
func (r *RatchetSecret) Advance() (generation uint64, messageKey *crypto.Secret, nonce [12]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	generation = r.generation
	var next *crypto.Secret
	messageKey, nonce, next = ratchetStep(r.secret, generation)
	r.secret = next
	r.generation++
	return generation, messageKey, nonce
}

type skippedKey struct {
	messageKey *crypto.Secret
	nonce      [12]byte
}

// DecryptionRatchet is a receiver's view of one sender's chain within one
// epoch: it tracks the next in-order generation, tolerates a bounded window
// of out-of-order arrivals, and rejects replays and jumps too far ahead.
type DecryptionRatchet struct {
	mu                 sync.Mutex
	secret             *crypto.Secret
	next               uint64
	skipped            *lru.Cache[uint64, skippedKey]
	consumed           mapset.Set[uint64]
	maxForwardDistance uint64
}

// NewDecryptionRatchet constructs a ratchet seeded from the shared group
// secret for sender, with the given tolerance/distance bounds (defaults
// used when either is <= 0).
func NewDecryptionRatchet(seed *crypto.Secret, outOfOrderTolerance int, maxForwardDistance uint64) *DecryptionRatchet {
	if outOfOrderTolerance <= 0 {
		outOfOrderTolerance = DefaultOutOfOrderTolerance
	}
	if maxForwardDistance == 0 {
		maxForwardDistance = DefaultMaxForwardDistance
	}
	cache, err := lru.New[uint64, skippedKey](outOfOrderTolerance)
	if err != nil {
		panic("dcgka: invalid out-of-order tolerance: " + err.Error())
	}
	return &DecryptionRatchet{
		secret:             seed,
		skipped:            cache,
		consumed:           mapset.NewSet[uint64](),
		maxForwardDistance: maxForwardDistance,
	}
}

// Consume derives (or recovers) the key material for generation, rejecting
// replays, permanently-out-of-window arrivals, and jumps beyond
// maxForwardDistance.
func (d *DecryptionRatchet) Consume(generation uint64) (messageKey *crypto.Secret, nonce [12]byte, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.consumed.Contains(generation) {
		return nil, nonce, ErrRatchetKeyAlreadyConsumed
	}

	if generation < d.next {
		key, ok := d.skipped.Get(generation)
		if !ok {
			return nil, nonce, ErrRatchetKeyAlreadyConsumed
		}
		d.skipped.Remove(generation)
		d.consumed.Add(generation)
		return key.messageKey, key.nonce, nil
	}

	distance := generation - d.next
	if distance > d.maxForwardDistance {
		return nil, nonce, ErrRatchetAdvanceTooFar
	}

	for g := d.next; g < generation; g++ {
		var mk *crypto.Secret
		var n [12]byte
		var next *crypto.Secret
		mk, n, next = ratchetStep(d.secret, g)
		d.secret = next
		d.skipped.Add(g, skippedKey{messageKey: mk, nonce: n})
	}

	var next *crypto.Secret
	messageKey, nonce, next = ratchetStep(d.secret, generation)
	d.secret = next
	d.next = generation + 1
	d.consumed.Add(generation)
	return messageKey, nonce, nil
}
