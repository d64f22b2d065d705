package identity

import (
	"testing"

	"github.com/p2panda/p2panda-go/crypto"
)

func TestGenerateSignVerify(t *testing.T) {
	r := crypto.NewDeterministicRand([32]byte{7})
	pub, priv := Generate(r)
	defer priv.Zero()

	msg := []byte("an operation header")
	sig := priv.Sign(msg)
	if err := Verify(pub, msg, sig); err != nil {
		t.Fatalf("verify: %v", err)
	}

	sig[0] ^= 1
	if err := Verify(pub, msg, sig); err == nil {
		t.Fatal("expected verification to fail for a tampered signature")
	}
}

func TestHexRoundTrip(t *testing.T) {
	r := crypto.NewDeterministicRand([32]byte{8})
	pub, priv := Generate(r)
	defer priv.Zero()

	parsed, err := FromHex(pub.String())
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if parsed != pub {
		t.Fatal("hex round trip did not preserve the public key")
	}
}
