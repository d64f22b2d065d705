package store

import (
	"context"
	"errors"
	"testing"

	"github.com/p2panda/p2panda-go/crypto"
	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/identity"
	"github.com/p2panda/p2panda-go/operation"
)

func testKey(seed byte) *identity.PrivateKey {
	r := crypto.NewDeterministicRand([32]byte{seed})
	_, priv := identity.Generate(r)
	return priv
}

func TestMemStoreInsertGetTip(t *testing.T) {
	priv := testKey(1)
	ms := NewMemStore(16)
	ctx := context.Background()

	op0, err := operation.SignAndBuild(priv, 0, nil, nil, 100, operation.Body("a"), nil)
	if err != nil {
		t.Fatalf("build op0: %v", err)
	}
	if err := ms.Insert(ctx, op0); err != nil {
		t.Fatalf("insert op0: %v", err)
	}

	bl := op0.Hash
	op1, err := operation.SignAndBuild(priv, 1, &bl, nil, 101, operation.Body("b"), nil)
	if err != nil {
		t.Fatalf("build op1: %v", err)
	}
	if err := ms.Insert(ctx, op1); err != nil {
		t.Fatalf("insert op1: %v", err)
	}

	tip, err := ms.LogTip(ctx, priv.Public(), "")
	if err != nil {
		t.Fatalf("log tip: %v", err)
	}
	if tip.SeqNum != 1 || tip.Hash != op1.Hash {
		t.Fatalf("unexpected tip: %+v", tip)
	}

	got, err := ms.Get(ctx, op0.Hash)
	if err != nil {
		t.Fatalf("get op0: %v", err)
	}
	if got.Header.SeqNum != 0 {
		t.Fatalf("unexpected op0 seq num %d", got.Header.SeqNum)
	}

	if err := ms.Insert(ctx, op0); err != nil {
		t.Fatalf("re-insert should be idempotent: %v", err)
	}
}

func TestMemStoreLogRangeAndPrune(t *testing.T) {
	priv := testKey(2)
	ms := NewMemStore(16)
	ctx := context.Background()

	var ops []*operation.Operation
	var backlink *hash.Hash
	for i := 0; i < 5; i++ {
		op, err := operation.SignAndBuild(priv, uint64(i), backlink, nil, uint64(i), operation.Body("x"), nil)
		if err != nil {
			t.Fatalf("build op %d: %v", i, err)
		}
		if err := ms.Insert(ctx, op); err != nil {
			t.Fatalf("insert op %d: %v", i, err)
		}
		h := op.Hash
		backlink = &h
		ops = append(ops, op)
	}

	two := uint64(2)
	rng, err := ms.LogRange(ctx, priv.Public(), "", &two, nil)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(rng) != 2 {
		t.Fatalf("expected 2 entries after seq 2, got %d", len(rng))
	}
	if rng[0].Header.SeqNum != 3 || rng[1].Header.SeqNum != 4 {
		t.Fatalf("unexpected range %+v", rng)
	}

	if err := ms.PruneLog(ctx, priv.Public(), "", 2); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if _, err := ms.Get(ctx, ops[0].Hash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected pruned op to be gone, got %v", err)
	}
	one := uint64(1)
	if _, err := ms.LogRange(ctx, priv.Public(), "", &one, nil); !errors.Is(err, ErrAlreadyPruned) {
		t.Fatalf("expected ErrAlreadyPruned, got %v", err)
	}

	tip, err := ms.LogTip(ctx, priv.Public(), "")
	if err != nil {
		t.Fatalf("tip after prune: %v", err)
	}
	if tip.SeqNum != 4 {
		t.Fatalf("expected tip seq 4 after prune, got %d", tip.SeqNum)
	}
}

func TestMemStoreTransactionAtomicity(t *testing.T) {
	priv := testKey(3)
	ms := NewMemStore(16)
	ctx := context.Background()

	op0, err := operation.SignAndBuild(priv, 0, nil, nil, 1, operation.Body("a"), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	bl := op0.Hash
	op1, err := operation.SignAndBuild(priv, 1, &bl, nil, 2, operation.Body("b"), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	tx, err := ms.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := tx.Insert(ctx, op0); err != nil {
		t.Fatalf("tx insert op0: %v", err)
	}
	if err := tx.Insert(ctx, op1); err != nil {
		t.Fatalf("tx insert op1: %v", err)
	}

	// Before commit, neither write is visible.
	if _, err := ms.Get(ctx, op0.Hash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected op0 invisible before commit, got %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := ms.Get(ctx, op0.Hash); err != nil {
		t.Fatalf("expected op0 visible after commit: %v", err)
	}
	if _, err := ms.Get(ctx, op1.Hash); err != nil {
		t.Fatalf("expected op1 visible after commit: %v", err)
	}
}

func TestMemStoreRollback(t *testing.T) {
	priv := testKey(4)
	ms := NewMemStore(16)
	ctx := context.Background()

	op0, err := operation.SignAndBuild(priv, 0, nil, nil, 1, operation.Body("a"), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	tx, err := ms.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := tx.Insert(ctx, op0); err != nil {
		t.Fatalf("tx insert: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if _, err := ms.Get(ctx, op0.Hash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected rolled back op absent, got %v", err)
	}
}
