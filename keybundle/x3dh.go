package keybundle

import (
	"github.com/p2panda/p2panda-go/crypto"
)

// x3dhInfo is the HKDF context string binding derived session keys to this
// protocol, so a derived secret can never be confused with one from a
// different key-agreement scheme.
var x3dhInfo = []byte("p2panda-x3dh")

// X3DHHeader accompanies the first ciphertext sent to a recipient: enough
// for them to recompute the shared secret.
type X3DHHeader struct {
	SenderIdentityKey  [32]byte
	SenderEphemeralKey [32]byte
	OneTimePrekeyID    *uint64
}

// InitiateX3DH runs the initiator side of X3DH against recipient's bundle
// (optionally including a one-time prekey), deriving the shared secret that
// seeds the resulting 2SM channel.
func InitiateX3DH(initiator *PrivateBundle, recipient LongTermBundle, oneTime *OneTimePrekey, r *crypto.Rand) (sessionKey *crypto.Secret, header X3DHHeader, err error) {
	ephemeralPub, ephemeralSecret := crypto.GenerateDHKey(r)

	dh1, err := crypto.DH(initiator.x25519IdentitySecret(), recipient.Prekey.Public)
	if err != nil {
		return nil, X3DHHeader{}, err
	}
	dh2, err := crypto.DH(ephemeralSecret, recipient.IdentityKey)
	if err != nil {
		return nil, X3DHHeader{}, err
	}
	dh3, err := crypto.DH(ephemeralSecret, recipient.Prekey.Public)
	if err != nil {
		return nil, X3DHHeader{}, err
	}

	material := make([]byte, 0, 4*32)
	material = append(material, dh1.Bytes()...)
	material = append(material, dh2.Bytes()...)
	material = append(material, dh3.Bytes()...)

	header = X3DHHeader{
		SenderIdentityKey:  initiator.x25519IdentityPublic,
		SenderEphemeralKey: ephemeralPub,
	}
	if oneTime != nil {
		dh4, err := crypto.DH(ephemeralSecret, oneTime.Public)
		if err != nil {
			return nil, X3DHHeader{}, err
		}
		material = append(material, dh4.Bytes()...)
		id := oneTime.ID
		header.OneTimePrekeyID = &id
	}

	return crypto.HKDFBytes(material, nil, x3dhInfo, 32), header, nil
}

// RespondX3DH runs the responder side: given the sender's header and this
// bundle owner's private material, recomputes the same shared secret.
// If header names a one-time prekey, the caller is responsible for calling
// PrivateBundle.MarkConsumed afterwards — RespondX3DH does not mutate state.
func RespondX3DH(responder *PrivateBundle, header X3DHHeader) (sessionKey *crypto.Secret, err error) {
	dh1, err := crypto.DH(responder.currentPrekeySecret(), header.SenderIdentityKey)
	if err != nil {
		return nil, err
	}
	dh2, err := crypto.DH(responder.x25519IdentitySecret(), header.SenderEphemeralKey)
	if err != nil {
		return nil, err
	}
	dh3, err := crypto.DH(responder.currentPrekeySecret(), header.SenderEphemeralKey)
	if err != nil {
		return nil, err
	}

	material := make([]byte, 0, 4*32)
	material = append(material, dh1.Bytes()...)
	material = append(material, dh2.Bytes()...)
	material = append(material, dh3.Bytes()...)

	if header.OneTimePrekeyID != nil {
		secret, ok := responder.oneTimeSecret(*header.OneTimePrekeyID)
		if !ok {
			return nil, ErrOneTimePrekeyConsumed
		}
		dh4, err := crypto.DH(secret, header.SenderEphemeralKey)
		if err != nil {
			return nil, err
		}
		material = append(material, dh4.Bytes()...)
	}

	return crypto.HKDFBytes(material, nil, x3dhInfo, 32), nil
}
