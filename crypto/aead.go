package crypto

import (
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecryptionFailed is returned when an AEAD tag fails to verify.
var ErrDecryptionFailed = errors.New("crypto: aead decryption failed")

// Seal encrypts plaintext with XChaCha20-Poly1305 under key, authenticating
// additionalData. The returned ciphertext is nonce||ciphertext||tag.
func Seal(key *Secret, nonce [24]byte, plaintext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce[:]...)
	return aead.Seal(out, nonce[:], plaintext, additionalData), nil
}

// Open decrypts a XChaCha20-Poly1305 ciphertext produced by Seal.
func Open(key *Secret, ciphertext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, ErrDecryptionFailed
	}
	nonce := ciphertext[:aead.NonceSize()]
	body := ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, additionalData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// SealDeterministic encrypts with a caller-supplied 12-byte nonce using
// ChaCha20-Poly1305 (not the X-variant) — used by the per-sender ratchet,
// where each (sender, epoch, generation) already guarantees nonce
// uniqueness without needing the wider XChaCha nonce space.
func SealDeterministic(key *Secret, nonce [chacha20poly1305NonceSize]byte, plaintext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key.Bytes())
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce[:], plaintext, additionalData), nil
}

// OpenDeterministic decrypts data sealed by SealDeterministic.
func OpenDeterministic(key *Secret, nonce [chacha20poly1305NonceSize]byte, ciphertext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key.Bytes())
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, additionalData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

const chacha20poly1305NonceSize = chacha20poly1305.NonceSize
