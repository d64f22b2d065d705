package hash

import "testing"

func TestOfIsDeterministic(t *testing.T) {
	a := Of([]byte("hello"))
	b := Of([]byte("hello"))
	if a != b {
		t.Fatal("hashing the same bytes twice produced different hashes")
	}
	c := Of([]byte("hellp"))
	if a == c {
		t.Fatal("hashing different bytes produced the same hash")
	}
}

func TestHexRoundTrip(t *testing.T) {
	h := Of([]byte("round trip me"))
	parsed, err := FromHex(h.String())
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if parsed != h {
		t.Fatal("hex round trip did not preserve the hash")
	}
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	if _, err := FromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for a short byte slice")
	}
}

func TestIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Fatal("zero value should report IsZero")
	}
	if Of([]byte("x")).IsZero() {
		t.Fatal("a real hash should never be zero")
	}
}
