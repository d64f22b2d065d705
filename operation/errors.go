package operation

import "errors"

// Decode/verify error taxonomy. Exact identities are part of the wire
// contract: callers (and the test suite) assert on these specific sentinels,
// not just "an error occurred".
var (
	// ErrVersionUnsupported is returned by Decode when the header's version
	// field is not a version this module understands.
	ErrVersionUnsupported = errors.New("operation: unsupported header version")

	// ErrPayloadHashMissing is returned by Verify when payload_size > 0 but
	// payload_hash is absent (log invariant 1).
	ErrPayloadHashMissing = errors.New("operation: payload_hash missing for non-empty payload")

	// ErrPayloadHashUnexpected is returned by Verify when payload_size == 0
	// but payload_hash is present (log invariant 1).
	ErrPayloadHashUnexpected = errors.New("operation: payload_hash present for empty payload")

	// ErrBacklinkMissing is returned by Verify when seq_num > 0 but backlink
	// is absent (log invariant 2).
	ErrBacklinkMissing = errors.New("operation: backlink missing for seq_num > 0")

	// ErrBacklinkUnexpected is returned by Verify when seq_num == 0 but
	// backlink is present (log invariant 2).
	ErrBacklinkUnexpected = errors.New("operation: backlink present for seq_num == 0")

	// ErrSignatureInvalid is returned by Verify when the header's signature
	// does not verify under its claimed public_key.
	ErrSignatureInvalid = errors.New("operation: signature invalid")

	// ErrSignatureMissing is returned by Verify when the header carries no
	// signature at all (it was never signed).
	ErrSignatureMissing = errors.New("operation: signature missing")

	// ErrPayloadHashMismatch is returned when a body's actual hash does not
	// match the header's declared payload_hash.
	ErrPayloadHashMismatch = errors.New("operation: body hash does not match payload_hash")

	// ErrPayloadSizeMismatch is returned when a body's actual length does
	// not match the header's declared payload_size.
	ErrPayloadSizeMismatch = errors.New("operation: body length does not match payload_size")
)
