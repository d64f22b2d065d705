package spaces

import (
	"bytes"
	"testing"

	"github.com/p2panda/p2panda-go/authgraph"
	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
	"github.com/p2panda/p2panda-go/keybundle"
)

func testActor(seed byte) ActorID {
	pub, priv := identity.Generate(crypto.NewDeterministicRand([32]byte{seed}))
	priv.Zero()
	return pub
}

func testOpID(seed byte) OperationID {
	var h hash.Hash
	h[0] = seed
	return h
}

func pairedSessions(seed byte) (*keybundle.SenderSession, *keybundle.ReceiverSession) {
	key := crypto.NewSecret(bytes.Repeat([]byte{seed}, 32))
	return keybundle.NewSenderSession(key), keybundle.NewReceiverSession(key)
}

func TestCreateSpaceEmitsMembersAndEpoch(t *testing.T) {
	owner := testActor(1)
	alice := testActor(2)

	send, _ := pairedSessions(9)
	r := crypto.NewDeterministicRand([32]byte{10})

	m := NewManager[string](owner)
	mut, err := m.CreateSpace("notes", testOpID(1),
		[]ActorID{owner, alice}, []Access{authgraph.Manage, authgraph.Write},
		map[ActorID]*keybundle.SenderSession{alice: send}, r)
	if err != nil {
		t.Fatalf("CreateSpace: %v", err)
	}
	if len(mut.Events) != 3 {
		t.Fatalf("expected 3 events (2 members + epoch), got %d", len(mut.Events))
	}
	if mut.Control == nil || mut.Auth == nil {
		t.Fatal("expected both Auth and Control messages on CreateSpace")
	}
	if _, err := m.CreateSpace("notes", testOpID(2), nil, nil, nil, r); err != ErrSpaceExists {
		t.Fatalf("expected ErrSpaceExists, got %v", err)
	}
}

func TestAddRemoveDualMutation(t *testing.T) {
	owner := testActor(20)
	alice := testActor(21)
	bob := testActor(22)

	r := crypto.NewDeterministicRand([32]byte{30})

	m := NewManager[string](owner)
	if _, err := m.CreateSpace("notes", testOpID(20),
		[]ActorID{owner}, []Access{authgraph.Manage},
		nil, r); err != nil {
		t.Fatalf("CreateSpace: %v", err)
	}

	sendAlice, _ := pairedSessions(29)
	mut, err := m.Add("notes", testOpID(21), owner, alice, authgraph.Write, sendAlice, nil, r)
	if err != nil {
		t.Fatalf("Add alice: %v", err)
	}
	if len(mut.Events) != 2 || mut.Events[0].Kind() != KindMemberAdded || mut.Events[1].Kind() != KindEpochAdvanced {
		t.Fatalf("unexpected Add events: %#v", mut.Events)
	}

	st := m.spaces["notes"]
	if !st.auth.IsMember(alice) || !st.enc.IsMember(alice) {
		t.Fatal("alice missing from auth and/or encryption group after Add")
	}
	if st.enc.Epoch() != 1 {
		t.Fatalf("expected encryption epoch 1 after Add (Add always rotates), got %d", st.enc.Epoch())
	}

	sendBob, _ := pairedSessions(39)
	if _, err := m.Add("notes", testOpID(22), alice, bob, authgraph.Read, sendBob, nil, r); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized for non-manager actor, got %v", err)
	}

	mut, err = m.Remove("notes", testOpID(23), owner, alice, nil, r)
	if err != nil {
		t.Fatalf("Remove alice: %v", err)
	}
	if len(mut.Events) != 2 {
		t.Fatalf("expected MemberRemoved+EpochAdvanced, got %#v", mut.Events)
	}
	if st.auth.IsMember(alice) {
		t.Fatal("alice still a member of the auth graph after Remove")
	}
	if st.enc.IsMember(alice) {
		t.Fatal("alice still a member of the encryption group after Remove")
	}
	if st.enc.Epoch() != 2 {
		t.Fatalf("expected encryption epoch 2 after Add+Remove, got %d", st.enc.Epoch())
	}
}

func TestPromoteDemoteBelowReadDropsEncryptionMembership(t *testing.T) {
	owner := testActor(50)
	alice := testActor(51)

	r := crypto.NewDeterministicRand([32]byte{60})

	m := NewManager[string](owner)
	if _, err := m.CreateSpace("notes", testOpID(50), []ActorID{owner}, []Access{authgraph.Manage}, nil, r); err != nil {
		t.Fatalf("CreateSpace: %v", err)
	}
	sendAlice, _ := pairedSessions(59)
	if _, err := m.Add("notes", testOpID(51), owner, alice, authgraph.Write, sendAlice, nil, r); err != nil {
		t.Fatalf("Add alice: %v", err)
	}

	mut, err := m.Promote("notes", testOpID(52), owner, alice, authgraph.Manage)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if len(mut.Events) != 1 || mut.Events[0].Kind() != KindAccessChanged {
		t.Fatalf("unexpected Promote events: %#v", mut.Events)
	}
	if mut.Control != nil {
		t.Fatal("a pure Promote should not forge a DCGKA control message")
	}

	st := m.spaces["notes"]
	if !st.enc.IsMember(alice) {
		t.Fatal("alice dropped from encryption group on a pure Promote")
	}

	mut, err = m.Demote("notes", testOpID(53), owner, alice, authgraph.Pull, nil, r)
	if err != nil {
		t.Fatalf("Demote: %v", err)
	}
	if st.enc.IsMember(alice) {
		t.Fatal("alice still in encryption group after dropping below Read")
	}
	if !st.auth.IsMember(alice) {
		t.Fatal("alice should keep Pull-level auth membership after Demote")
	}

	foundEpoch := false
	for _, e := range mut.Events {
		if e.Kind() == KindEpochAdvanced {
			foundEpoch = true
		}
	}
	if !foundEpoch {
		t.Fatalf("expected an EpochAdvanced event among %#v", mut.Events)
	}
}

func TestProcessMessageRoundTrip(t *testing.T) {
	owner := testActor(70)
	alice := testActor(71)

	sendAlice, recvAlice := pairedSessions(79)
	r := crypto.NewDeterministicRand([32]byte{80})

	ownerMgr := NewManager[string](owner)
	mut, err := ownerMgr.CreateSpace("notes", testOpID(70), []ActorID{owner, alice},
		[]Access{authgraph.Manage, authgraph.Write},
		map[ActorID]*keybundle.SenderSession{alice: sendAlice}, r)
	if err != nil {
		t.Fatalf("CreateSpace: %v", err)
	}

	aliceMgr := NewManager[string](alice)
	if _, err := aliceMgr.Process("notes", InboundAuth{Message: mut.Auth}); err != nil {
		t.Fatalf("alice Process(auth create): %v", err)
	}
	if _, err := aliceMgr.Process("notes", InboundControl{Message: mut.Control, FromSender: recvAlice}); err != nil {
		t.Fatalf("alice Process(control create): %v", err)
	}

	ownerSt := ownerMgr.spaces["notes"]
	epoch, generation, ct, err := ownerSt.enc.Encrypt([]byte("hello space"), nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	events, err := aliceMgr.Process("notes", InboundCiphertext{Sender: owner, Epoch: epoch, Generation: generation, Ciphertext: ct})
	if err != nil {
		t.Fatalf("alice Process(ciphertext): %v", err)
	}
	if len(events) != 1 || events[0].Kind() != KindMessageDecrypted {
		t.Fatalf("unexpected events: %#v", events)
	}
	decrypted := events[0].(MessageDecrypted)
	if string(decrypted.Plaintext) != "hello space" {
		t.Fatalf("got %q, want %q", decrypted.Plaintext, "hello space")
	}
}
