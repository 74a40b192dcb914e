package worker

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/yndnr/cryptogen-go/internal/core/pool"
	"github.com/yndnr/cryptogen-go/internal/core/protocol"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
)

// Context is the state shared by the handlers of one worker.
type Context struct {
	Pool   *pool.Pool
	Port   protocol.Port
	Logger logger.Logger
}

// reply sends msg to the session.
func (c *Context) reply(msg protocol.Message) error {
	return c.Port.Send(msg)
}

// HandlerFunc processes one message that passed the handler's guard.
type HandlerFunc func(ctx context.Context, hctx *Context, msg protocol.Message) error

// Handler binds a message kind to its type guard and handler function.
type Handler struct {
	Kind   string
	Guard  func(protocol.Message) bool
	Handle HandlerFunc
}

// Dispatcher routes inbound messages to handlers by kind.
type Dispatcher struct {
	hctx     *Context
	handlers map[string]Handler
}

// NewDispatcher creates a dispatcher over an explicit handler set. A later
// handler for the same kind replaces an earlier one.
func NewDispatcher(hctx *Context, handlers ...Handler) *Dispatcher {
	if hctx.Logger == nil {
		hctx.Logger = logger.Default()
	}
	d := &Dispatcher{
		hctx:     hctx,
		handlers: make(map[string]Handler, len(handlers)),
	}
	for _, h := range handlers {
		d.handlers[h.Kind] = h
	}
	return d
}

// Context returns the handler context.
func (d *Dispatcher) Context() *Context {
	return d.hctx
}

// Dispatch runs the handler registered for msg.Type.
//
// Unknown kinds and messages that fail the guard are ignored. Handler
// errors and panics are logged and never reach the caller. A panic while
// serving a request is also answered with a request-scoped error so the
// request still resolves.
func (d *Dispatcher) Dispatch(ctx context.Context, msg protocol.Message) {
	log := d.hctx.Logger

	h, ok := d.handlers[msg.Type]
	if !ok {
		log.Debug("ignoring message", "type", msg.Type)
		return
	}
	if h.Guard != nil && !h.Guard(msg) {
		log.Warn("ignoring malformed message", "type", msg.Type)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic recovered",
				"type", msg.Type,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			d.replyPanic(msg, r)
		}
	}()

	if err := h.Handle(ctx, d.hctx, msg); err != nil {
		log.Warn("handler failed", "type", msg.Type, "error", err)
	}
}

func (d *Dispatcher) replyPanic(msg protocol.Message, r any) {
	id, ok := protocol.RequestID(msg)
	if !ok || d.hctx.Port == nil {
		return
	}
	if err := d.hctx.reply(protocol.NewRequestError(id, fmt.Sprintf("handler panic: %v", r))); err != nil {
		d.hctx.Logger.Warn("panic reply failed", "request_id", id, "error", err)
	}
}
