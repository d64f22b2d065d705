// Package orderer implements the causal orderer (C5): a processor that
// buffers operations with unmet dependencies and yields them back out in an
// order compatible with the partial order induced by backlink/previous.
package orderer

import (
	"context"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/p2panda/p2panda-go/hash"
	"github.com/p2panda/p2panda-go/operation"
)

// pendingEntry is an operation waiting on one or more unmet dependencies.
type pendingEntry struct {
	op    *operation.Operation
	unmet mapset.Set[hash.Hash]
}

// Processor is the core is single-threaded cooperative — it lives on one
// goroutine and is not safe for concurrent Process/Next calls from
// different goroutines. A re-entrancy guard turns a violation into a panic
// rather than silent corruption.
type Processor struct {
	entered atomic.Bool

	mu sync.Mutex
	// readyHashes/delivered both count as "met" for a later dependant's
	// unmet calculation; readyHashes additionally backs FIFO popping.
	readyHashes mapset.Set[hash.Hash]
	delivered   mapset.Set[hash.Hash]
	ready       []*operation.Operation

	pending map[hash.Hash]*pendingEntry
	// reverse maps an unmet dependency hash to the set of pending operation
	// hashes still waiting on it.
	reverse map[hash.Hash]mapset.Set[hash.Hash]

	// signal is closed and replaced every time an item is pushed to ready,
	// waking any goroutine parked in Next.
	signal chan struct{}
}

// New constructs an empty Processor.
func New() *Processor {
	return &Processor{
		readyHashes: mapset.NewSet[hash.Hash](),
		delivered:   mapset.NewSet[hash.Hash](),
		pending:     make(map[hash.Hash]*pendingEntry),
		reverse:     make(map[hash.Hash]mapset.Set[hash.Hash]),
		signal:      make(chan struct{}),
	}
}

func (p *Processor) enter() {
	if !p.entered.CompareAndSwap(false, true) {
		panic("orderer: Processor re-entered from a second goroutine")
	}
}

func (p *Processor) leave() { p.entered.Store(false) }

// Process ingests op. If op's dependencies are all already ready or
// delivered, it (and any now-unblocked pending operations) is pushed
// straight onto the ready queue. Otherwise it is buffered in pending. This
// never rejects an operation for having unmet dependencies — that is not an
// error, it is the orderer's ordinary buffering behaviour. Process is
// idempotent: re-processing an already-known hash is a no-op.
func (p *Processor) Process(op *operation.Operation) {
	p.enter()
	defer p.leave()

	p.mu.Lock()
	defer p.mu.Unlock()

	h := op.Hash
	if p.delivered.Contains(h) || p.readyHashes.Contains(h) {
		return
	}
	if _, known := p.pending[h]; known {
		return
	}

	unmet := mapset.NewSet[hash.Hash]()
	for _, dep := range op.Header.Dependencies() {
		if p.delivered.Contains(dep) || p.readyHashes.Contains(dep) {
			continue
		}
		unmet.Add(dep)
	}

	if unmet.Cardinality() == 0 {
		p.promote(op)
		return
	}

	p.pending[h] = &pendingEntry{op: op, unmet: unmet}
	for dep := range unmet.Iter() {
		waiters, ok := p.reverse[dep]
		if !ok {
			waiters = mapset.NewSet[hash.Hash]()
			p.reverse[dep] = waiters
		}
		waiters.Add(h)
	}
}

// promote pushes op onto ready and cascades: any pending operation whose
// unmet set now contains op.Hash has that dependency cleared, and is itself
// promoted once its unmet set becomes empty. Bounded by len(pending).
func (p *Processor) promote(op *operation.Operation) {
	queue := []*operation.Operation{op}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		h := cur.Hash
		p.readyHashes.Add(h)
		p.ready = append(p.ready, cur)

		waiters, ok := p.reverse[h]
		if !ok {
			continue
		}
		delete(p.reverse, h)
		for waitingHash := range waiters.Iter() {
			entry, ok := p.pending[waitingHash]
			if !ok {
				continue
			}
			entry.unmet.Remove(h)
			if entry.unmet.Cardinality() == 0 {
				delete(p.pending, waitingHash)
				queue = append(queue, entry.op)
			}
		}
	}
	p.wakeLocked()
}

// wakeLocked must be called with mu held; it notifies any Next waiters.
func (p *Processor) wakeLocked() {
	close(p.signal)
	p.signal = make(chan struct{})
}

// Next blocks until an operation is ready, then pops and returns it,
// marking it delivered. It is cancellation-safe: if ctx is cancelled while
// waiting, no item is lost — it stays at the head of ready for a future
// Next call.
func (p *Processor) Next(ctx context.Context) (*operation.Operation, error) {
	p.enter()
	defer p.leave()

	for {
		p.mu.Lock()
		if len(p.ready) > 0 {
			op := p.ready[0]
			p.ready = p.ready[1:]
			p.readyHashes.Remove(op.Hash)
			p.delivered.Add(op.Hash)
			p.mu.Unlock()
			return op, nil
		}
		wait := p.signal
		p.mu.Unlock()

		select {
		case <-wait:
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len reports the number of operations currently buffered (not yet ready).
func (p *Processor) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// ReadyLen reports the number of operations waiting to be popped by Next.
func (p *Processor) ReadyLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ready)
}
