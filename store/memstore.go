package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"

	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
	"github.com/p2panda/p2panda-go/operation"
)

// logKey identifies one author's log within the in-memory store.
type logKey struct {
	publicKey identity.PublicKey
	logID     LogID
}

type logState struct {
	// entries holds surviving operations ordered by seq_num ascending.
	entries []*operation.Operation
	// prunedUpTo is the highest seq_num ever discarded by PruneLog, or -1
	// if nothing has been pruned. Kept so tip/range arithmetic stays
	// correct even once the underlying entries are gone.
	prunedUpTo int64
}

// MemStore is an in-memory reference Store, the default backend for tests
// and the demo CLI. It is safe for concurrent use. An operation carries no
// log id, so Insert files every operation under the empty LogID; LogTip,
// LogRange and PruneLog find no log under any other LogID.
type MemStore struct {
	mu   sync.RWMutex
	ops  map[hash.Hash]*operation.Operation
	logs map[logKey]*logState
	tips *lru.Cache[logKey, LogTip]
}

// NewMemStore constructs an empty in-memory Store. tipCacheSize bounds the
// LRU cache used to speed up repeated LogTip lookups; it does not bound the
// store's actual capacity, which is unlimited.
func NewMemStore(tipCacheSize int) *MemStore {
	if tipCacheSize <= 0 {
		tipCacheSize = 1024
	}
	cache, err := lru.New[logKey, LogTip](tipCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which we just
		// guarded against.
		panic(err)
	}
	return &MemStore{
		ops:  make(map[hash.Hash]*operation.Operation),
		logs: make(map[logKey]*logState),
		tips: cache,
	}
}

func (m *MemStore) Insert(ctx context.Context, op *operation.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(op)
}

func (m *MemStore) insertLocked(op *operation.Operation) error {
	if _, ok := m.ops[op.Hash]; ok {
		return nil // idempotent re-insert
	}
	key := logKey{publicKey: op.Header.PublicKey}
	st, ok := m.logs[key]
	if !ok {
		st = &logState{prunedUpTo: -1}
		m.logs[key] = st
	}
	st.entries = append(st.entries, op)
	sort.Slice(st.entries, func(i, j int) bool {
		return st.entries[i].Header.SeqNum < st.entries[j].Header.SeqNum
	})
	m.ops[op.Hash] = op
	m.tips.Remove(key)
	return nil
}

func (m *MemStore) Get(ctx context.Context, h hash.Hash) (*operation.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	op, ok := m.ops[h]
	if !ok {
		return nil, ErrNotFound
	}
	return op, nil
}

func (m *MemStore) LogTip(ctx context.Context, publicKey identity.PublicKey, logID LogID) (LogTip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logTipLocked(publicKey, logID)
}

func (m *MemStore) logTipLocked(publicKey identity.PublicKey, logID LogID) (LogTip, error) {
	key := logKey{publicKey: publicKey, logID: logID}
	if tip, ok := m.tips.Get(key); ok {
		return tip, nil
	}
	st, ok := m.logs[key]
	if !ok || len(st.entries) == 0 {
		if ok && st.prunedUpTo >= 0 {
			return LogTip{}, ErrAlreadyPruned
		}
		return LogTip{}, ErrNotFound
	}
	last := st.entries[len(st.entries)-1]
	tip := LogTip{Hash: last.Hash, SeqNum: last.Header.SeqNum}
	m.tips.Add(key, tip)
	return tip, nil
}

func (m *MemStore) LogRange(ctx context.Context, publicKey identity.PublicKey, logID LogID, after, until *uint64) ([]*operation.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := logKey{publicKey: publicKey, logID: logID}
	st, ok := m.logs[key]
	if !ok {
		return nil, nil
	}
	if after != nil && int64(*after) < st.prunedUpTo {
		return nil, ErrAlreadyPruned
	}

	out := make([]*operation.Operation, 0, len(st.entries))
	for _, op := range st.entries {
		seq := op.Header.SeqNum
		if after != nil && seq <= *after {
			continue
		}
		if until != nil && seq > *until {
			continue
		}
		out = append(out, op)
	}
	return out, nil
}

func (m *MemStore) PruneLog(ctx context.Context, publicKey identity.PublicKey, logID LogID, untilSeqNum uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked(publicKey, logID, untilSeqNum)
}

func (m *MemStore) BeginTx(ctx context.Context) (Tx, error) {
	return &memTx{id: uuid.NewString(), store: m}, nil
}

// pendingWrite is either a staged insert or a staged prune.
type pendingWrite struct {
	insert *operation.Operation
	prune  *pendingPrune
}

type pendingPrune struct {
	publicKey   identity.PublicKey
	logID       LogID
	untilSeqNum uint64
}

// memTx buffers writes until Commit, at which point they are applied under
// a single lock acquisition so concurrent readers never observe a partial
// transaction.
type memTx struct {
	id     string
	store  *MemStore
	mu     sync.Mutex
	writes []pendingWrite
	done   bool
}

func (tx *memTx) ID() string { return tx.id }

func (tx *memTx) Insert(ctx context.Context, op *operation.Operation) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return fmt.Errorf("store: tx %s already finished", tx.id)
	}
	tx.writes = append(tx.writes, pendingWrite{insert: op})
	return nil
}

func (tx *memTx) PruneLog(ctx context.Context, publicKey identity.PublicKey, logID LogID, untilSeqNum uint64) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return fmt.Errorf("store: tx %s already finished", tx.id)
	}
	tx.writes = append(tx.writes, pendingWrite{prune: &pendingPrune{publicKey, logID, untilSeqNum}})
	return nil
}

func (tx *memTx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return nil
	}
	tx.done = true

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for _, w := range tx.writes {
		switch {
		case w.insert != nil:
			if err := tx.store.insertLocked(w.insert); err != nil {
				return err
			}
		case w.prune != nil:
			if err := tx.store.pruneLocked(w.prune.publicKey, w.prune.logID, w.prune.untilSeqNum); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.done = true
	tx.writes = nil
	return nil
}

// pruneLocked is the lock-already-held counterpart of PruneLog, used by
// Commit so it does not re-acquire the store's mutex.
func (m *MemStore) pruneLocked(publicKey identity.PublicKey, logID LogID, untilSeqNum uint64) error {
	key := logKey{publicKey: publicKey, logID: logID}
	st, ok := m.logs[key]
	if !ok {
		return ErrNotFound
	}
	kept := st.entries[:0:0]
	for _, op := range st.entries {
		if op.Header.SeqNum > untilSeqNum {
			kept = append(kept, op)
		} else {
			delete(m.ops, op.Hash)
		}
	}
	st.entries = kept
	if int64(untilSeqNum) > st.prunedUpTo {
		st.prunedUpTo = int64(untilSeqNum)
	}
	m.tips.Remove(key)
	return nil
}

var _ Store = (*MemStore)(nil)
var _ Tx = (*memTx)(nil)
