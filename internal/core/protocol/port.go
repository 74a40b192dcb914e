package protocol

import (
	"sync"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
)

// DefaultPipeBuffer is the per-direction buffer of a Pipe.
const DefaultPipeBuffer = 64

// Port is one end of the bidirectional channel between a session and a worker.
//
// Send transfers ownership of the message: the sender must not read or
// write any byte slice reachable from msg after Send returns.
//
// Receive never closes. Readers select on Receive and Done together;
// once Done is closed the port has failed or been closed, Err reports
// why, and every later Send fails.
type Port interface {
	Send(msg Message) error
	Receive() <-chan Message
	Done() <-chan struct{}
	Err() error
	Close() error
}

// pipeState is shared by both ends of a pipe.
type pipeState struct {
	done chan struct{}
	once sync.Once
	err  error
}

func (s *pipeState) fail(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// Endpoint is one end of an in-process Pipe.
type Endpoint struct {
	in    <-chan Message
	out   chan<- Message
	state *pipeState
}

// Pipe returns two connected endpoints. Messages sent on one are received
// on the other. Closing or failing either end terminates both.
func Pipe(buffer int) (*Endpoint, *Endpoint) {
	if buffer < 0 {
		buffer = 0
	}
	ab := make(chan Message, buffer)
	ba := make(chan Message, buffer)
	state := &pipeState{done: make(chan struct{})}

	return &Endpoint{in: ba, out: ab, state: state},
		&Endpoint{in: ab, out: ba, state: state}
}

// Send delivers msg to the other end, blocking while its buffer is full.
func (e *Endpoint) Send(msg Message) error {
	select {
	case <-e.state.done:
		return e.state.err
	default:
	}

	select {
	case e.out <- msg:
		return nil
	case <-e.state.done:
		return e.state.err
	}
}

// Receive returns the inbound message stream.
func (e *Endpoint) Receive() <-chan Message {
	return e.in
}

// Done is closed when the pipe is closed or fails.
func (e *Endpoint) Done() <-chan struct{} {
	return e.state.done
}

// Err returns the reason the pipe terminated, or nil while it is open.
func (e *Endpoint) Err() error {
	select {
	case <-e.state.done:
		return e.state.err
	default:
		return nil
	}
}

// Close terminates the pipe with ErrChannelClosed.
func (e *Endpoint) Close() error {
	e.state.fail(domain.ErrChannelClosed)
	return nil
}

// Fail terminates the pipe with a transport failure caused by err.
func (e *Endpoint) Fail(err error) {
	e.state.fail(domain.ErrChannelClosed.Wrap(err))
}
