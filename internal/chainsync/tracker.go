package chainsync

import (
	"fmt"
	"sync"
)

// BlockRangeConsumer is the downstream, asynchronous block pipeline. It must
// assign a unique, monotonically increasing ElementID per accepted range and
// guarantee that completion fires exactly once, even after the tracker's
// owning Synchronizer has been torn down. onComplete must not be invoked
// synchronously from within Consume: Tracker.Add holds the tracker's mutex
// across Consume, so a completion fired from another goroutine waits until
// the returned id has been recorded.
type BlockRangeConsumer interface {
	Consume(r BlockRange, onComplete func(ElementID, CompletionStatus)) ElementID
}

// Tracker bounds the memory footprint of block ranges currently being
// processed downstream, and enforces single-sync-in-flight plus failure
// quarantine. It is safe for concurrent use: every method takes the mutex
// once, and Add holds it across the call into the downstream consumer so
// that recording an element and handing it downstream are one step.
//
// Go's sync.Mutex already fast-paths the uncontended case with a single
// atomic compare-and-swap, so it serves the reference's "spin mutex, favor
// low contention" guidance directly; see DESIGN.md.
type Tracker struct {
	mu sync.Mutex

	consumer BlockRangeConsumer
	maxBytes int

	numBytes       int
	elements       []elementInfo
	hasPendingSync bool
	dirty          bool
}

// NewTracker creates a Tracker wired to consumer, capped at maxBytes
// resident bytes (the caller passes 3*Configuration.MaxChainBytesPerSyncAttempt).
func NewTracker(consumer BlockRangeConsumer, maxBytes int) *Tracker {
	return &Tracker{
		consumer: consumer,
		maxBytes: maxBytes,
	}
}

// Empty reports whether no bytes are currently resident.
func (t *Tracker) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numBytes == 0
}

// NumBytes returns the current resident byte count.
func (t *Tracker) NumBytes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numBytes
}

// MaxBytes returns the configured resident byte cap.
func (t *Tracker) MaxBytes() int {
	return t.maxBytes
}

// MaxHeight returns the end height of the most recently enqueued element, or
// 0 if no element is resident.
func (t *Tracker) MaxHeight() Height {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.elements) == 0 {
		return 0
	}
	return t.elements[len(t.elements)-1].endHeight
}

// ShouldStartSync attempts to claim the single pending-sync slot. It returns
// true and marks a sync pending iff resident bytes are under the cap, no
// sync is already pending, and the tracker is not quarantined. Otherwise it
// leaves state untouched and returns false.
func (t *Tracker) ShouldStartSync() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.numBytes >= t.maxBytes || t.hasPendingSync || t.dirty {
		return false
	}
	t.hasPendingSync = true
	return true
}

// Add hands r to the downstream consumer and records its bookkeeping entry.
// It returns false without touching state if the tracker is quarantined.
func (t *Tracker) Add(r BlockRange) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dirty {
		return false
	}

	endHeight := r.LastHeight()
	numBytes := r.TotalSize()

	id := t.consumer.Consume(r, func(id ElementID, status CompletionStatus) {
		t.remove(id, status)
	})

	t.elements = append(t.elements, elementInfo{id: id, endHeight: endHeight, numBytes: numBytes})
	t.numBytes += numBytes
	return true
}

// remove is invoked by the downstream consumer's completion callback. The
// front element's id must equal id; a mismatch is an unrecoverable
// programming error in the downstream pipeline.
func (t *Tracker) remove(id ElementID, status CompletionStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.elements) == 0 {
		panic(fmt.Sprintf("chainsync: element completion %d received with no outstanding elements", id))
	}
	front := t.elements[0]
	if front.id != id {
		panic(fmt.Sprintf("chainsync: unexpected element id on completion: got %d, want %d", id, front.id))
	}

	t.elements = t.elements[1:]
	t.numBytes -= front.numBytes

	if t.hasPendingOperation() && status != CompletionNormal {
		t.dirty = true
	}
}

// ClearPendingSync releases the pending-sync slot, automatically clearing
// the dirty quarantine if no outstanding work remains.
func (t *Tracker) ClearPendingSync() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasPendingSync = false
	if t.dirty {
		t.dirty = t.hasPendingOperation()
	}
}

func (t *Tracker) hasPendingOperation() bool {
	return t.numBytes != 0 || t.hasPendingSync
}
