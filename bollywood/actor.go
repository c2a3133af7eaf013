package bollywood

// Actor is the behaviour contract. Receive is invoked serially by the
// actor's process goroutine, one message at a time.
type Actor interface {
	Receive(Context)
}

// Producer creates a fresh actor instance when a process starts.
type Producer func() Actor

// Props describes how to build an actor.
type Props struct {
	producer Producer
}

// NewProps creates Props from a producer.
func NewProps(producer Producer) *Props {
	return &Props{producer: producer}
}

// Produce builds the actor instance.
func (p *Props) Produce() Actor {
	if p.producer == nil {
		return nil
	}
	return p.producer()
}

// PID identifies a running actor process.
type PID struct {
	ID string
}

func (p *PID) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.ID
}

// Lifecycle messages delivered by the engine.
type (
	// Started is the first message every actor receives.
	Started struct{}
	// Stopping is delivered when a stop was requested, before the mailbox drains.
	Stopping struct{}
	// Stopped is the last message, delivered after the process loop exits.
	Stopped struct{}
)
