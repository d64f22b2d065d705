package keybundle

import (
	"testing"
	"time"

	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/identity"
)

func testIdentity(seed byte) (identity.PublicKey, *identity.PrivateKey) {
	return identity.Generate(crypto.NewDeterministicRand([32]byte{seed}))
}

func TestVerifyLongTermAcceptsFreshBundle(t *testing.T) {
	_, id := testIdentity(1)
	defer id.Zero()
	r := crypto.NewDeterministicRand([32]byte{2})
	now := time.Unix(1_700_000_000, 0)

	b := NewPrivateBundle(id, r, now)
	lt := b.LongTermBundle()

	if err := VerifyLongTerm(lt, uint64(now.Unix())); err != nil {
		t.Fatalf("VerifyLongTerm: %v", err)
	}
}

func TestVerifyLongTermRejectsTamperedSignature(t *testing.T) {
	_, id := testIdentity(3)
	defer id.Zero()
	r := crypto.NewDeterministicRand([32]byte{4})
	now := time.Unix(1_700_000_000, 0)

	b := NewPrivateBundle(id, r, now)
	lt := b.LongTermBundle()
	lt.Prekey.Signature[0] ^= 1

	if err := VerifyLongTerm(lt, uint64(now.Unix())); err != ErrSignatureInvalid {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyLongTermRejectsExpired(t *testing.T) {
	_, id := testIdentity(5)
	defer id.Zero()
	r := crypto.NewDeterministicRand([32]byte{6})
	now := time.Unix(1_700_000_000, 0)

	b := NewPrivateBundle(id, r, now)
	lt := b.LongTermBundle()

	past := uint64(now.Add(-2 * LowerBoundSkew).Unix())
	if err := VerifyLongTerm(lt, past); err != ErrExpired {
		t.Fatalf("expected ErrExpired for a timestamp before the skew window, got %v", err)
	}

	future := uint64(now.Add(DefaultLifetime + time.Hour).Unix())
	if err := VerifyLongTerm(lt, future); err != ErrExpired {
		t.Fatalf("expected ErrExpired for a timestamp past NotAfter, got %v", err)
	}
}

func TestX3DHRoundTripWithoutOneTimePrekey(t *testing.T) {
	_, initiatorID := testIdentity(10)
	defer initiatorID.Zero()
	_, responderID := testIdentity(11)
	defer responderID.Zero()

	now := time.Unix(1_700_000_000, 0)
	initiator := NewPrivateBundle(initiatorID, crypto.NewDeterministicRand([32]byte{12}), now)
	responder := NewPrivateBundle(responderID, crypto.NewDeterministicRand([32]byte{13}), now)

	sendRand := crypto.NewDeterministicRand([32]byte{14})
	initiatorKey, header, err := InitiateX3DH(initiator, responder.LongTermBundle(), nil, sendRand)
	if err != nil {
		t.Fatalf("InitiateX3DH: %v", err)
	}

	responderKey, err := RespondX3DH(responder, header)
	if err != nil {
		t.Fatalf("RespondX3DH: %v", err)
	}

	if !initiatorKey.Equal(responderKey) {
		t.Fatal("initiator and responder derived different session keys")
	}
}

func TestX3DHRoundTripWithOneTimePrekey(t *testing.T) {
	_, initiatorID := testIdentity(20)
	defer initiatorID.Zero()
	_, responderID := testIdentity(21)
	defer responderID.Zero()

	now := time.Unix(1_700_000_000, 0)
	initiator := NewPrivateBundle(initiatorID, crypto.NewDeterministicRand([32]byte{22}), now)
	responder := NewPrivateBundle(responderID, crypto.NewDeterministicRand([32]byte{23}), now)

	oneTimes := responder.GenerateOneTimePrekeys(1, crypto.NewDeterministicRand([32]byte{24}))
	oneTime := oneTimes[0]

	sendRand := crypto.NewDeterministicRand([32]byte{25})
	initiatorKey, header, err := InitiateX3DH(initiator, responder.LongTermBundle(), &oneTime, sendRand)
	if err != nil {
		t.Fatalf("InitiateX3DH: %v", err)
	}
	if header.OneTimePrekeyID == nil || *header.OneTimePrekeyID != oneTime.ID {
		t.Fatal("header did not carry the one-time prekey id")
	}

	responderKey, err := RespondX3DH(responder, header)
	if err != nil {
		t.Fatalf("RespondX3DH: %v", err)
	}
	if !initiatorKey.Equal(responderKey) {
		t.Fatal("initiator and responder derived different session keys")
	}

	if err := responder.MarkConsumed(oneTime.ID); err != nil {
		t.Fatalf("MarkConsumed: %v", err)
	}
	if _, err := RespondX3DH(responder, header); err != ErrOneTimePrekeyConsumed {
		t.Fatalf("expected ErrOneTimePrekeyConsumed on reuse, got %v", err)
	}
	if err := responder.MarkConsumed(oneTime.ID); err != ErrOneTimePrekeyConsumed {
		t.Fatalf("expected ErrOneTimePrekeyConsumed on double MarkConsumed, got %v", err)
	}
	if err := responder.MarkConsumed(oneTime.ID + 1); err != ErrOneTimePrekeyUnknown {
		t.Fatalf("expected ErrOneTimePrekeyUnknown for an id never issued, got %v", err)
	}
}

func TestTwoPartySessionSendReceive(t *testing.T) {
	sessionKey := crypto.NewSecret([]byte("0123456789abcdef0123456789abcdef"[:32]))
	sender := NewSenderSession(sessionKey)
	receiver := NewReceiverSession(sessionKey)

	r := crypto.NewDeterministicRand([32]byte{30})

	ct1, err := sender.Send(r, []byte("first message"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	pt1, err := receiver.Receive(ct1)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(pt1) != "first message" {
		t.Fatalf("got %q, want %q", pt1, "first message")
	}

	ct2, err := sender.Send(r, []byte("second message"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	pt2, err := receiver.Receive(ct2)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(pt2) != "second message" {
		t.Fatalf("got %q, want %q", pt2, "second message")
	}
}

func TestTwoPartySessionRotatesKeyForwardSecrecy(t *testing.T) {
	sessionKey := crypto.NewSecret([]byte("0123456789abcdef0123456789abcdef"[:32]))
	sender := NewSenderSession(sessionKey)
	receiver := NewReceiverSession(sessionKey)
	r := crypto.NewDeterministicRand([32]byte{31})

	ct1, err := sender.Send(r, []byte("message one"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	staleSecret := receiver.mySecret
	if _, err := receiver.Receive(ct1); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	if receiver.mySecret == staleSecret {
		t.Fatal("receiver secret was not rotated")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the rotated-out secret to be wiped")
			}
		}()
		staleSecret.Bytes()
	}()

	ct2, err := sender.Send(r, []byte("message two"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := receiver.Receive(ct2); err != nil {
		t.Fatalf("second Receive should succeed with the rotated key: %v", err)
	}
}
