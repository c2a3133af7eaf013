package bollywood

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

const defaultMailboxSize = 1024

// messageEnvelope wraps a message with its delivery metadata.
type messageEnvelope struct {
	Sender    *PID
	Message   interface{}
	requestID string           // non-empty for Ask deliveries
	replyCh   chan interface{} // buffered(1) reply channel for Ask
}

// process represents the running instance of an actor, including its state and mailbox.
type process struct {
	engine  *Engine
	pid     *PID
	actor   Actor
	mailbox chan *messageEnvelope
	props   *Props
	stopCh  chan struct{} // Signal to stop the run loop
	stopped atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, defaultMailboxSize),
		stopCh:  make(chan struct{}),
	}
}

// sendMessage sends a message to the actor's mailbox.
func (p *process) sendMessage(envelope *messageEnvelope) {
	// Don't bother queueing user messages if already stopped/stopping.
	// Allow system messages (Stopping, Stopped) through.
	_, isStopping := envelope.Message.(Stopping)
	_, isStopped := envelope.Message.(Stopped)
	if p.stopped.Load() && !isStopping && !isStopped {
		return
	}

	// Non-blocking send with a fallback to report if the mailbox is full
	select {
	case p.mailbox <- envelope:
	default:
		fmt.Printf("Actor %s mailbox full, dropping message type %T\n", p.pid.ID, envelope.Message)
	}
}

// run is the main loop for the actor process.
func (p *process) run() {
	// Defer cleanup and removal from engine
	defer func() {
		p.stopped.Store(true)
		if p.actor != nil {
			func() {
				defer func() {
					if r := recover(); r != nil {
						fmt.Printf("Actor %s panicked during Stopped processing: %v\n", p.pid.ID, r)
					}
				}()
				p.invokeReceive(&messageEnvelope{Message: Stopped{}})
			}()
		}
		// Remove from engine *after* Stopped is processed
		p.engine.remove(p.pid)
	}()

	// Defer panic recovery for the main loop
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Actor %s panicked: %v\nStack trace:\n%s\n", p.pid.ID, r, string(debug.Stack()))
			p.stopped.Store(true)
			select {
			case <-p.stopCh: // Already closed
			default:
				close(p.stopCh)
			}
		}
	}()

	p.actor = p.props.Produce()
	if p.actor == nil {
		panic(fmt.Sprintf("Actor %s producer returned nil actor", p.pid.ID))
	}

	// Main message processing loop
	for {
		select {
		case <-p.stopCh:
			// Stop signal received directly (engine.Stop or panic recovery)
			if p.stopped.CompareAndSwap(false, true) {
				p.invokeReceive(&messageEnvelope{Message: Stopping{}})
			}
			return

		case envelope, ok := <-p.mailbox:
			if !ok {
				fmt.Printf("Actor %s mailbox closed unexpectedly.\n", p.pid.ID)
				p.stopped.Store(true)
				select {
				case <-p.stopCh:
				default:
					close(p.stopCh)
				}
				return
			}

			_, isStopping := envelope.Message.(Stopping)
			_, isStoppedMsg := envelope.Message.(Stopped)
			if p.stopped.Load() && !isStopping && !isStoppedMsg {
				continue
			}

			switch envelope.Message.(type) {
			case Started:
				p.invokeReceive(envelope)
			case Stopping:
				if p.stopped.CompareAndSwap(false, true) { // Process only once
					p.invokeReceive(envelope)
					select {
					case <-p.stopCh: // Already closed by engine.Stop?
					default:
						close(p.stopCh)
					}
				}
			case Stopped:
				fmt.Printf("Actor %s received unexpected Stopped message via mailbox.\n", p.pid.ID)
			default:
				p.invokeReceive(envelope)
			}
		}
	}
}

// invokeReceive calls the actor's Receive method within a protected context.
func (p *process) invokeReceive(envelope *messageEnvelope) {
	ctx := &context{
		engine:    p.engine,
		self:      p.pid,
		sender:    envelope.Sender,
		message:   envelope.Message,
		requestID: envelope.requestID,
		replyCh:   envelope.replyCh,
	}

	// Call the actor's Receive method, recovering from panics within it
	func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("Actor %s panicked during Receive(%T): %v\nStack trace:\n%s\n", p.pid.ID, envelope.Message, r, string(debug.Stack()))
			}
		}()
		p.actor.Receive(ctx)
	}()
}
