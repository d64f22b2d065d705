package keybundle

import (
	"sync"
	"time"

	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/identity"
)

type oneTimeEntry struct {
	public   [32]byte
	secret   *crypto.Secret
	consumed bool
}

// PrivateBundle is the private half of an actor's key material: the
// identity signing key, the current signed prekey's secret scalar, and any
// outstanding one-time prekeys. Safe for concurrent use.
type PrivateBundle struct {
	mu sync.Mutex

	identity *identity.PrivateKey

	x25519Identity       *crypto.Secret
	x25519IdentityPublic [32]byte

	prekeySecret *crypto.Secret
	prekeyPublic SignedPrekey

	oneTime map[uint64]*oneTimeEntry
	nextID  uint64
}

// NewPrivateBundle generates a fresh X25519 identity key and a signed
// prekey valid from now for DefaultLifetime.
func NewPrivateBundle(id *identity.PrivateKey, r *crypto.Rand, now time.Time) *PrivateBundle {
	xIdentPub, xIdentSecret := crypto.GenerateDHKey(r)
	b := &PrivateBundle{
		identity:             id,
		x25519Identity:       xIdentSecret,
		x25519IdentityPublic: xIdentPub,
		oneTime:              make(map[uint64]*oneTimeEntry),
	}
	b.RotatePrekey(r, now)
	return b
}

// RotatePrekey replaces the current signed prekey with a fresh one.
func (b *PrivateBundle) RotatePrekey(r *crypto.Rand, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pub, secret := crypto.GenerateDHKey(r)
	sigMsg := signedPrekeyMessage(b.x25519IdentityPublic, pub)
	sig := b.identity.Sign(sigMsg)

	b.prekeySecret = secret
	b.prekeyPublic = SignedPrekey{
		Public:    pub,
		Signature: sig,
		NotBefore: uint64(now.Unix()),
		NotAfter:  uint64(now.Add(DefaultLifetime).Unix()),
	}
}

// GenerateOneTimePrekeys creates n fresh one-time prekeys and returns their
// public halves, ready to be published alongside the long-term bundle.
func (b *PrivateBundle) GenerateOneTimePrekeys(n int, r *crypto.Rand) []OneTimePrekey {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]OneTimePrekey, 0, n)
	for i := 0; i < n; i++ {
		id := b.nextID
		b.nextID++
		pub, secret := crypto.GenerateDHKey(r)
		b.oneTime[id] = &oneTimeEntry{public: pub, secret: secret}
		out = append(out, OneTimePrekey{ID: id, Public: pub})
	}
	return out
}

// LongTermBundle returns the publishable, public view of this bundle.
func (b *PrivateBundle) LongTermBundle() LongTermBundle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return LongTermBundle{
		Owner:       b.identity.Public(),
		IdentityKey: b.x25519IdentityPublic,
		Prekey:      b.prekeyPublic,
	}
}

// MarkConsumed marks a one-time prekey as spent so it is never reused. This
// models the prekey-rotation bookkeeping the two-party module of the source
// describes: once a one-time prekey has been used by an initiator, its
// owner must retire it rather than hand it out again.
func (b *PrivateBundle) MarkConsumed(id uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.oneTime[id]
	if !ok {
		return ErrOneTimePrekeyUnknown
	}
	if entry.consumed {
		return ErrOneTimePrekeyConsumed
	}
	entry.consumed = true
	entry.secret.Zero()
	return nil
}

// IsConsumed reports whether the one-time prekey id has been marked spent.
func (b *PrivateBundle) IsConsumed(id uint64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.oneTime[id]
	if !ok {
		return false, ErrOneTimePrekeyUnknown
	}
	return entry.consumed, nil
}

// x25519IdentitySecret and currentPrekeySecret are package-internal accessors
// used by the X3DH responder path; unexported because callers outside this
// package only ever hold a PrivateBundle, never its raw secrets.
func (b *PrivateBundle) x25519IdentitySecret() *crypto.Secret {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.x25519Identity
}

func (b *PrivateBundle) currentPrekeySecret() *crypto.Secret {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.prekeySecret
}

func (b *PrivateBundle) oneTimeSecret(id uint64) (*crypto.Secret, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.oneTime[id]
	if !ok || entry.consumed {
		return nil, false
	}
	return entry.secret, true
}
