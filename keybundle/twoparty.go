package keybundle

import (
	"github.com/p2panda/p2panda-go/crypto"
)

var ratchetInfo = []byte("p2panda-2sm-ratchet")

// TwoPartyCiphertext is the wire shape of a 2SM message: Seal's
// nonce||ciphertext||tag over the next private key followed by the
// plaintext payload.
type TwoPartyCiphertext []byte

// deriveSessionKey mixes a DH output into a fresh symmetric key for one
// message. shared is consumed and zeroed.
func deriveSessionKey(shared *crypto.Secret) *crypto.Secret {
	defer shared.Zero()
	return crypto.HKDF(shared, nil, ratchetInfo, 32)
}

// SenderSession is the sending side of a 2-party secure-messaging channel:
// mySecret never rotates, theirPublic is replaced on every send with a key
// the sender itself just generated for the recipient.
type SenderSession struct {
	mySecret    *crypto.Secret
	theirPublic [32]byte
}

// NewSenderSession seeds a sender session from the shared X3DH secret,
// deterministically deriving this side's fixed keypair and the initial
// recipient public key from it.
func NewSenderSession(sessionKey *crypto.Secret) *SenderSession {
	mySecret := crypto.HKDF(sessionKey, nil, []byte("p2panda-2sm-init-sender"), 32)
	theirSecret := crypto.HKDF(sessionKey, nil, []byte("p2panda-2sm-init-receiver"), 32)
	theirPublic := crypto.PublicFromPrivate(theirSecret)
	theirSecret.Zero()
	return &SenderSession{mySecret: mySecret, theirPublic: theirPublic}
}

// Send encrypts plaintext to the recipient's current key, embeds a freshly
// generated next key for them, and rotates this session's view of their
// public key to match. Each call yields PCS for the recipient (a secret
// they didn't choose) and FS for the sender (the ephemeral is forgotten
// immediately after use).
func (s *SenderSession) Send(r *crypto.Rand, plaintext []byte) (TwoPartyCiphertext, error) {
	shared, err := crypto.DH(s.mySecret, s.theirPublic)
	if err != nil {
		return nil, err
	}
	key := deriveSessionKey(shared)
	defer key.Zero()

	nextPublic, nextSecret := crypto.GenerateDHKey(r)
	payload := make([]byte, 0, 32+len(plaintext))
	payload = append(payload, nextSecret.Bytes()...)
	payload = append(payload, plaintext...)

	var nonce [24]byte
	r.Bytes(nonce[:])

	ct, err := crypto.Seal(key, nonce, payload, nil)
	nextSecret.Zero()
	if err != nil {
		return nil, err
	}
	s.theirPublic = nextPublic
	return TwoPartyCiphertext(ct), nil
}

// ReceiverSession is the receiving side: mySecret rotates on every message
// (replaced by whatever the sender embedded), theirPublic (the sender's
// fixed key) never changes.
type ReceiverSession struct {
	mySecret    *crypto.Secret
	theirPublic [32]byte
}

// NewReceiverSession seeds a receiver session from the same shared X3DH
// secret, deriving the same initial pair NewSenderSession derived, from the
// recipient's perspective.
func NewReceiverSession(sessionKey *crypto.Secret) *ReceiverSession {
	mySecret := crypto.HKDF(sessionKey, nil, []byte("p2panda-2sm-init-receiver"), 32)
	senderSecret := crypto.HKDF(sessionKey, nil, []byte("p2panda-2sm-init-sender"), 32)
	theirPublic := crypto.PublicFromPrivate(senderSecret)
	senderSecret.Zero()
	return &ReceiverSession{mySecret: mySecret, theirPublic: theirPublic}
}

// Receive decrypts ct, adopts the embedded next private key (deleting the
// old one, giving forward secrecy), and returns the plaintext.
func (s *ReceiverSession) Receive(ct TwoPartyCiphertext) ([]byte, error) {
	shared, err := crypto.DH(s.mySecret, s.theirPublic)
	if err != nil {
		return nil, err
	}
	key := deriveSessionKey(shared)
	defer key.Zero()

	payload, err := crypto.Open(key, []byte(ct), nil)
	if err != nil {
		return nil, err
	}
	if len(payload) < 32 {
		return nil, ErrMalformedCiphertext
	}

	s.mySecret.Zero()
	s.mySecret = crypto.NewSecret(payload[:32])
	return payload[32:], nil
}
