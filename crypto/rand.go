// Package crypto implements the primitive operations the rest of this module
// builds on: Ed25519 signing, X25519 Diffie-Hellman, HKDF-SHA256 key
// derivation, (X)ChaCha20-Poly1305 AEAD, and a zeroising secret container.
package crypto

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/chacha20"
)

// Rand is the single source of randomness for key generation across the
// module. Production code uses DefaultRand, seeded from the OS CSPRNG; tests
// substitute NewDeterministicRand so that key material (and therefore
// derived ciphertexts) is reproducible across runs.
type Rand struct {
	mu     sync.Mutex
	stream *chacha20.Cipher
}

// DefaultRand is the process-wide RNG. All key generation in this module
// goes through it (or an explicitly injected *Rand) so callers can seed
// determinism end to end.
var DefaultRand = NewOSRand()

// NewOSRand constructs a Rand seeded from the operating system CSPRNG.
func NewOSRand() *Rand {
	var seed [32]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		panic("crypto: failed to read OS randomness: " + err.Error())
	}
	return newRandFromSeed(seed)
}

// NewDeterministicRand constructs a Rand from a fixed 32-byte seed, for
// reproducible tests.
func NewDeterministicRand(seed [32]byte) *Rand {
	return newRandFromSeed(seed)
}

func newRandFromSeed(seed [32]byte) *Rand {
	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		panic("crypto: failed to initialise ChaCha20 stream: " + err.Error())
	}
	return &Rand{stream: stream}
}

// Bytes fills dst with random bytes drawn from the stream.
func (r *Rand) Bytes(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = 0
	}
	r.stream.XORKeyStream(dst, dst)
}

// Array32 returns 32 fresh random bytes, the shape most key material in this
// module takes (Ed25519 seeds, X25519 scalars, group secrets).
func (r *Rand) Array32() [32]byte {
	var out [32]byte
	r.Bytes(out[:])
	return out
}

// Uint64 returns a random uint64, used for non-cryptographic purposes such
// as varying test fixtures.
func (r *Rand) Uint64() uint64 {
	var b [8]byte
	r.Bytes(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
