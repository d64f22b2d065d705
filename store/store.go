// Package store defines a backend-agnostic operation store contract and
// ships one in-memory reference implementation. Concrete durable backends
// (SQLite, embedded KV, etc.) are out of scope here — callers plug in their
// own Store implementation.
package store

import (
	"context"
	"errors"

	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
	"github.com/p2panda/p2panda-go/operation"
)

// ErrNotFound is returned by Get/LogTip when no such operation/log exists.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyPruned is returned when a ranged read or tip lookup would need
// data that PruneLog already discarded.
var ErrAlreadyPruned = errors.New("store: requested range overlaps pruned prefix")

// LogID distinguishes multiple logs a single author may maintain (an
// application-defined discriminator, e.g. a schema or stream id).
type LogID = string

// LogTip identifies the most recent operation in a log.
type LogTip struct {
	Hash   hash.Hash
	SeqNum uint64
}

// Store is the contract every backend (in-memory, SQLite, ...) must honour.
// Its methods plus Tx's lifecycle methods are the only suspension points —
// nothing else in the core ever awaits I/O.
type Store interface {
	// Insert atomically appends op to the store. Re-inserting an already
	// known hash is a no-op success (idempotent), matching the causal
	// orderer's own "already seen" contract.
	Insert(ctx context.Context, op *operation.Operation) error

	// Get looks up an operation by its content hash.
	Get(ctx context.Context, h hash.Hash) (*operation.Operation, error)

	// LogTip returns the current head of (publicKey, logID), ErrNotFound if
	// the log is empty, or ErrAlreadyPruned if every entry has been pruned.
	LogTip(ctx context.Context, publicKey identity.PublicKey, logID LogID) (LogTip, error)

	// LogRange returns operations in (publicKey, logID) with
	// after < seq_num <= until, ascending by seq_num. after == nil means
	// "from the start of what remains after pruning"; until == nil means
	// "through the current tip".
	LogRange(ctx context.Context, publicKey identity.PublicKey, logID LogID, after, until *uint64) ([]*operation.Operation, error)

	// PruneLog discards entries with seq_num <= untilSeqNum from
	// (publicKey, logID). The store must remember the pruned prefix length
	// so future tip/range arithmetic stays correct even though the bytes
	// are gone.
	PruneLog(ctx context.Context, publicKey identity.PublicKey, logID LogID, untilSeqNum uint64) error

	// BeginTx opens a transaction permit: concurrent readers observe either
	// all of the transaction's writes or none of them.
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a transaction permit returned by Store.BeginTx. Writes made through
// a Tx are only visible to other readers after Commit.
type Tx interface {
	// ID uniquely identifies this transaction permit, for logging/tracing.
	ID() string

	// Insert stages op within the transaction.
	Insert(ctx context.Context, op *operation.Operation) error

	// PruneLog stages a prune within the transaction.
	PruneLog(ctx context.Context, publicKey identity.PublicKey, logID LogID, untilSeqNum uint64) error

	// Commit makes all staged writes visible atomically.
	Commit(ctx context.Context) error

	// Rollback discards all staged writes. Safe to call after Commit (no-op).
	Rollback(ctx context.Context) error
}
