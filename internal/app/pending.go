package app

import (
	"log"
	"sync"
	"time"

	"daybook/api/internal/planner"
)

// pendingWrites coalesces rapid entry saves the way the client's autosave
// debounce would: each Put replaces the pending document for its (owner,
// date) and reschedules the flush, so a burst of edits lands as one store
// write. Reads flush first, which keeps the store and the pending state
// indistinguishable to callers. Last write wins; there is no merge.
type pendingWrites struct {
	mu      sync.Mutex
	delay   time.Duration
	persist func(ownerID, date string, doc planner.Document) error
	docs    map[pendingKey]*pendingDoc
}

type pendingKey struct {
	ownerID string
	date    string
}

type pendingDoc struct {
	doc   planner.Document
	timer *time.Timer
}

func newPendingWrites(delay time.Duration, persist func(ownerID, date string, doc planner.Document) error) *pendingWrites {
	return &pendingWrites{
		delay:   delay,
		persist: persist,
		docs:    make(map[pendingKey]*pendingDoc),
	}
}

// Put stores the document as the pending write for (ownerID, date) and
// restarts the flush timer. A zero delay flushes synchronously, which keeps
// tests deterministic.
func (p *pendingWrites) Put(ownerID, date string, doc planner.Document) error {
	if p.delay <= 0 {
		return p.persist(ownerID, date, doc)
	}

	key := pendingKey{ownerID: ownerID, date: date}
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.docs[key]; ok {
		existing.timer.Stop()
		existing.doc = doc
		existing.timer = p.scheduleFlush(key)
		return nil
	}
	p.docs[key] = &pendingDoc{doc: doc, timer: p.scheduleFlush(key)}
	return nil
}

func (p *pendingWrites) scheduleFlush(key pendingKey) *time.Timer {
	return time.AfterFunc(p.delay, func() {
		if err := p.flushKey(key); err != nil {
			log.Printf("autosave flush failed for %s/%s: %v", key.ownerID, key.date, err)
		}
	})
}

// Flush persists the pending write for (ownerID, date), if any.
func (p *pendingWrites) Flush(ownerID, date string) error {
	return p.flushKey(pendingKey{ownerID: ownerID, date: date})
}

// FlushOwner persists every pending write for the owner. Called when the
// owner navigates dates so nothing is left behind the read.
func (p *pendingWrites) FlushOwner(ownerID string) error {
	p.mu.Lock()
	keys := make([]pendingKey, 0, len(p.docs))
	for key := range p.docs {
		if key.ownerID == ownerID {
			keys = append(keys, key)
		}
	}
	p.mu.Unlock()

	for _, key := range keys {
		if err := p.flushKey(key); err != nil {
			return err
		}
	}
	return nil
}

// FlushAll persists everything still pending. Called on shutdown.
func (p *pendingWrites) FlushAll() {
	p.mu.Lock()
	keys := make([]pendingKey, 0, len(p.docs))
	for key := range p.docs {
		keys = append(keys, key)
	}
	p.mu.Unlock()

	for _, key := range keys {
		if err := p.flushKey(key); err != nil {
			log.Printf("shutdown flush failed for %s/%s: %v", key.ownerID, key.date, err)
		}
	}
}

func (p *pendingWrites) flushKey(key pendingKey) error {
	p.mu.Lock()
	entry, ok := p.docs[key]
	if ok {
		entry.timer.Stop()
		delete(p.docs, key)
	}
	p.mu.Unlock()

	if !ok {
		return nil
	}
	return p.persist(key.ownerID, key.date, entry.doc)
}
