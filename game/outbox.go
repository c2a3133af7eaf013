package game

import (
	"fmt"
	"sync"

	"golang.org/x/net/websocket"
)

// FrameSink receives outbound frames for one connection. Push must never
// block the caller; the tick loop depends on it.
type FrameSink interface {
	Push(frame Frame)
}

// Outbox is the bounded outbound queue in front of one websocket. Periodic
// frames (game:state, game:countdown) are droppable: when the queue is full
// the oldest droppable frame makes room, and a periodic frame that finds no
// room is discarded. Everything else is delivered even if the queue has to
// grow past its bound.
type Outbox struct {
	ws    *websocket.Conn
	limit int

	mu     sync.Mutex
	queue  []Frame
	closed bool
	wake   chan struct{}
	done   chan struct{}

	dropped int // dropped snapshots, logged on close
}

// NewOutbox wraps a websocket connection and starts its writer goroutine.
func NewOutbox(ws *websocket.Conn, limit int) *Outbox {
	o := &Outbox{
		ws:    ws,
		limit: limit,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go o.writeLoop()
	return o
}

func droppable(event string) bool {
	return event == EventGameState || event == EventGameCountdown
}

// Push enqueues a frame for delivery. Safe for concurrent use.
func (o *Outbox) Push(frame Frame) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if len(o.queue) >= o.limit {
		if idx := o.oldestDroppableLocked(); idx >= 0 {
			o.queue = append(o.queue[:idx], o.queue[idx+1:]...)
			o.dropped++
		} else if droppable(frame.Event) {
			// Queue full of undroppable frames; discard the new one.
			o.dropped++
			o.mu.Unlock()
			return
		}
		// Undroppable frames grow the queue past the bound.
	}
	o.queue = append(o.queue, frame)
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *Outbox) oldestDroppableLocked() int {
	for i, f := range o.queue {
		if droppable(f.Event) {
			return i
		}
	}
	return -1
}

// Close stops the writer. It does not close the underlying socket; the
// endpoint owns that.
func (o *Outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	dropped := o.dropped
	o.mu.Unlock()

	close(o.done)
	if dropped > 0 {
		fmt.Printf("Outbox: closed, %d periodic frames dropped over lifetime\n", dropped)
	}
}

func (o *Outbox) writeLoop() {
	for {
		select {
		case <-o.done:
			return
		case <-o.wake:
		}

		for {
			o.mu.Lock()
			if o.closed || len(o.queue) == 0 {
				o.mu.Unlock()
				break
			}
			frame := o.queue[0]
			o.queue = o.queue[1:]
			o.mu.Unlock()

			if err := websocket.JSON.Send(o.ws, frame); err != nil {
				// Socket gone; the read loop notices and triggers
				// disconnect handling. Stop writing.
				o.Close()
				return
			}
		}
	}
}
