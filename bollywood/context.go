package bollywood

// Context carries a single message delivery to an actor's Receive.
type Context interface {
	// Message returns the delivered message.
	Message() interface{}
	// Self returns the PID of the receiving actor.
	Self() *PID
	// Sender returns the PID of the sender, or nil.
	Sender() *PID
	// Engine returns the engine that delivered the message.
	Engine() *Engine
	// RequestID is non-empty when the message arrived via Ask and a
	// Reply is expected.
	RequestID() string
	// Reply answers an Ask request. No-op for plain Send deliveries.
	Reply(response interface{})
}

type context struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
	replyCh   chan interface{}
}

func (c *context) Message() interface{} { return c.message }
func (c *context) Self() *PID           { return c.self }
func (c *context) Sender() *PID         { return c.sender }
func (c *context) Engine() *Engine      { return c.engine }
func (c *context) RequestID() string    { return c.requestID }

func (c *context) Reply(response interface{}) {
	if c.replyCh == nil {
		return
	}
	// Non-blocking: the asker may already have timed out and gone away.
	select {
	case c.replyCh <- response:
	default:
	}
}
