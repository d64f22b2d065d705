package keybundle

import "errors"

var (
	// ErrSignatureInvalid is returned when a bundle's prekey signature does
	// not verify against its owner's identity key.
	ErrSignatureInvalid = errors.New("keybundle: prekey signature invalid")
	// ErrExpired is returned when verifying a bundle outside its lifetime
	// window (minus the lower-bound skew tolerance).
	ErrExpired = errors.New("keybundle: prekey outside its lifetime window")
	// ErrOneTimePrekeyUnknown is returned by MarkConsumed for an id this
	// bundle never generated.
	ErrOneTimePrekeyUnknown = errors.New("keybundle: unknown one-time prekey id")
	// ErrOneTimePrekeyConsumed is returned by MarkConsumed when the prekey
	// was already spent, and by consumers trying to reuse a spent prekey.
	ErrOneTimePrekeyConsumed = errors.New("keybundle: one-time prekey already consumed")
	// ErrMalformedCiphertext is returned when a 2SM ciphertext decrypts to
	// fewer bytes than the embedded next-secret requires.
	ErrMalformedCiphertext = errors.New("keybundle: 2sm ciphertext too short")
)
