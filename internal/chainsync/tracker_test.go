package chainsync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	mu       sync.Mutex
	nextID   ElementID
	received []BlockRange
}

func (c *fakeConsumer) Consume(r BlockRange, onComplete func(ElementID, CompletionStatus)) ElementID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.received = append(c.received, r)
	_ = onComplete
	return id
}

func oneBlockRange(height Height, size int) BlockRange {
	return NewBlockRange([]Block{{Height: height, Size: size}})
}

func TestTracker_ShouldStartSync_SingleSlot(t *testing.T) {
	tr := NewTracker(&fakeConsumer{}, 1000)

	require.True(t, tr.ShouldStartSync())
	assert.False(t, tr.ShouldStartSync(), "a second concurrent claim must be rejected")

	tr.ClearPendingSync()
	assert.True(t, tr.ShouldStartSync(), "the slot is free again after ClearPendingSync")
}

func TestTracker_ShouldStartSync_RespectsByteCap(t *testing.T) {
	consumer := &fakeConsumer{}
	tr := NewTracker(consumer, 10)

	require.True(t, tr.ShouldStartSync())
	require.True(t, tr.Add(oneBlockRange(1, 10)))
	tr.ClearPendingSync()

	assert.False(t, tr.ShouldStartSync(), "a full tracker must refuse new syncs")
}

func TestTracker_Add_AccumulatesBytesAndHeight(t *testing.T) {
	consumer := &fakeConsumer{}
	tr := NewTracker(consumer, 1000)

	require.True(t, tr.Add(oneBlockRange(5, 100)))
	assert.Equal(t, 100, tr.NumBytes())
	assert.Equal(t, Height(5), tr.MaxHeight())

	require.True(t, tr.Add(oneBlockRange(6, 50)))
	assert.Equal(t, 150, tr.NumBytes())
	assert.Equal(t, Height(6), tr.MaxHeight())
}

func TestTracker_CompletionRemovesElementAndFreesBytes(t *testing.T) {
	var onComplete func(ElementID, CompletionStatus)
	consumer := &fakeConsumerCapture{capture: &onComplete}
	tr := NewTracker(consumer, 1000)

	require.True(t, tr.Add(oneBlockRange(1, 64)))
	require.NotNil(t, onComplete)

	onComplete(consumer.lastID, CompletionNormal)

	assert.True(t, tr.Empty())
	assert.Equal(t, 0, tr.NumBytes())
}

type fakeConsumerCapture struct {
	mu      sync.Mutex
	nextID  ElementID
	lastID  ElementID
	capture *func(ElementID, CompletionStatus)
}

func (c *fakeConsumerCapture) Consume(r BlockRange, onComplete func(ElementID, CompletionStatus)) ElementID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.lastID = c.nextID
	*c.capture = onComplete
	return c.nextID
}

func TestTracker_AbnormalCompletionQuarantines(t *testing.T) {
	var onComplete func(ElementID, CompletionStatus)
	consumer := &fakeConsumerCapture{capture: &onComplete}
	tr := NewTracker(consumer, 1000)

	require.True(t, tr.ShouldStartSync())
	require.True(t, tr.Add(oneBlockRange(1, 64)))

	onComplete(consumer.lastID, CompletionAborted)

	// the pending sync slot is still held, so hasPendingOperation() is true
	// at the moment of the abnormal completion: the tracker quarantines
	// until ClearPendingSync runs.
	assert.False(t, tr.Add(oneBlockRange(2, 32)), "a quarantined tracker must refuse new elements while the pending sync is still held")

	// once the pending sync is cleared, no outstanding work remains (the
	// completed element already freed its bytes), so dirty recomputes to
	// false and a fresh ShouldStartSync succeeds.
	tr.ClearPendingSync()
	assert.True(t, tr.ShouldStartSync(), "the quarantine clears once no work is outstanding at ClearPendingSync")
}

func TestTracker_NormalCompletionAfterPendingSyncClearedDoesNotQuarantine(t *testing.T) {
	var onComplete func(ElementID, CompletionStatus)
	consumer := &fakeConsumerCapture{capture: &onComplete}
	tr := NewTracker(consumer, 1000)

	require.True(t, tr.Add(oneBlockRange(1, 64)))
	onComplete(consumer.lastID, CompletionNormal)

	assert.True(t, tr.ShouldStartSync())
}
