package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idleOutbox builds an outbox whose writer never runs, so the queue can be
// inspected after each push.
func idleOutbox(limit int) *Outbox {
	return &Outbox{
		limit: limit,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func queuedEvents(o *Outbox) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	events := make([]string, len(o.queue))
	for i, f := range o.queue {
		events[i] = f.Event
	}
	return events
}

func TestOutbox_DropsOldestSnapshotWhenFull(t *testing.T) {
	o := idleOutbox(3)

	for i := 0; i < 5; i++ {
		o.Push(Frame{Event: EventGameState, Data: i})
	}

	require.Equal(t, []string{EventGameState, EventGameState, EventGameState}, queuedEvents(o))

	// The oldest snapshots were dropped: the survivors are the newest three.
	o.mu.Lock()
	first := o.queue[0].Data.(int)
	o.mu.Unlock()
	assert.Equal(t, 2, first)
}

func TestOutbox_CriticalFramesGrowPastBound(t *testing.T) {
	o := idleOutbox(2)

	o.Push(Frame{Event: EventGameEnd})
	o.Push(Frame{Event: EventError})
	o.Push(Frame{Event: EventGameStart})

	assert.Equal(t, []string{EventGameEnd, EventError, EventGameStart}, queuedEvents(o))
}

func TestOutbox_SnapshotDiscardedWhenFullOfCritical(t *testing.T) {
	o := idleOutbox(2)

	o.Push(Frame{Event: EventGameEnd})
	o.Push(Frame{Event: EventError})
	o.Push(Frame{Event: EventGameState})

	assert.Equal(t, []string{EventGameEnd, EventError}, queuedEvents(o))
}

func TestOutbox_CriticalEvictsOldestSnapshot(t *testing.T) {
	o := idleOutbox(2)

	o.Push(Frame{Event: EventGameState})
	o.Push(Frame{Event: EventGameCountdown})
	o.Push(Frame{Event: EventGameEnd})

	assert.Equal(t, []string{EventGameCountdown, EventGameEnd}, queuedEvents(o))
}

func TestOutbox_PushAfterCloseIsNoop(t *testing.T) {
	o := idleOutbox(2)
	o.Close()
	o.Push(Frame{Event: EventGameEnd})
	assert.Empty(t, queuedEvents(o))

	// Close is idempotent.
	o.Close()
}
