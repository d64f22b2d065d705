package operation

import (
	"errors"
	"testing"

	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/identity"
)

func testKey(seed byte) *identity.PrivateKey {
	r := crypto.NewDeterministicRand([32]byte{seed})
	_, priv := identity.Generate(r)
	return priv
}

// TestSingleAuthorLog builds a two-entry log and confirms that tampering
// with seq_num while keeping the old backlink is caught at verification.
func TestSingleAuthorLog(t *testing.T) {
	priv := testKey(1)

	op0, err := SignAndBuild(priv, 0, nil, nil, 100, Body("hi"), nil)
	if err != nil {
		t.Fatalf("op0: %v", err)
	}
	if err := Verify(op0.Header); err != nil {
		t.Fatalf("verify op0: %v", err)
	}

	backlink := op0.Hash
	op1, err := SignAndBuild(priv, 1, &backlink, nil, 101, Body("ho"), nil)
	if err != nil {
		t.Fatalf("op1: %v", err)
	}
	if err := Verify(op1.Header); err != nil {
		t.Fatalf("verify op1: %v", err)
	}

	// Mutating seq_num to 0 while keeping the backlink must fail verification
	// with BacklinkUnexpected.
	mutated := op1.Header.Clone()
	mutated.SeqNum = 0
	if err := Verify(mutated); !errors.Is(err, ErrBacklinkUnexpected) {
		t.Fatalf("expected ErrBacklinkUnexpected, got %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	priv := testKey(2)
	op, err := SignAndBuild(priv, 0, nil, nil, 42, Body("payload"), []byte{0xa1, 0x61, 0x78, 0x01})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	encoded, err := Encode(op.Header)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := Verify(decoded); err != nil {
		t.Fatalf("verify decoded: %v", err)
	}

	reEncoded, err := Encode(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if string(reEncoded) != string(encoded) {
		t.Fatal("round trip did not preserve the encoded bytes")
	}
}

func TestDecodeUnverifiedStillTyped(t *testing.T) {
	// A header with a corrupted signature still decodes to a typed Header;
	// only Verify rejects it.
	priv := testKey(3)
	op, err := SignAndBuild(priv, 0, nil, nil, 1, Body("x"), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	op.Header.Signature[0] ^= 0xff

	encoded, err := Encode(op.Header)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode should succeed even with a bad signature: %v", err)
	}
	if decoded.SeqNum != 0 || decoded.PublicKey != op.Header.PublicKey {
		t.Fatal("decoded header fields do not match")
	}
	if err := Verify(decoded); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestInvariantViolations(t *testing.T) {
	priv := testKey(4)
	pub := priv.Public()

	cases := []struct {
		name string
		h    *Header
		want error
	}{
		{
			name: "payload hash missing",
			h:    &Header{Version: HeaderVersion, PublicKey: pub, PayloadSize: 3},
			want: ErrPayloadHashMissing,
		},
		{
			name: "payload hash unexpected",
			h: func() *Header {
				ph := Body("x").Hash()
				return &Header{Version: HeaderVersion, PublicKey: pub, PayloadHash: &ph}
			}(),
			want: ErrPayloadHashUnexpected,
		},
		{
			name: "backlink missing",
			h:    &Header{Version: HeaderVersion, PublicKey: pub, SeqNum: 1},
			want: ErrBacklinkMissing,
		},
		{
			name: "backlink unexpected",
			h: func() *Header {
				bl := Body("x").Hash()
				return &Header{Version: HeaderVersion, PublicKey: pub, Backlink: &bl}
			}(),
			want: ErrBacklinkUnexpected,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Sign(tc.h, priv); err != nil {
				t.Fatalf("sign: %v", err)
			}
			if err := Verify(tc.h); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVersionUnsupported(t *testing.T) {
	priv := testKey(5)
	h := &Header{Version: 2, PublicKey: priv.Public()}
	if err := Sign(h, priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	encoded, err := Encode(h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(encoded); !errors.Is(err, ErrVersionUnsupported) {
		t.Fatalf("expected ErrVersionUnsupported, got %v", err)
	}
}

func TestBodyMismatch(t *testing.T) {
	priv := testKey(6)
	h := NextHeader(priv.Public(), 0, nil, nil, 1, Body("correct"), nil)
	if err := Sign(h, priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := New(h, Body("corrupt")); !errors.Is(err, ErrPayloadHashMismatch) {
		t.Fatalf("expected ErrPayloadHashMismatch, got %v", err)
	}
}
