// Package worker runs the generator side of a session.
//
// A worker owns one token pool and one end of a protocol.Port. Run emits
// the ready message, then dispatches every inbound message to its handler
// in a separate goroutine so that slow requests do not hold up others.
//
// Handlers:
//
//	token-request  count sequential pool reads, timed, answered with
//	               token-response or a request-scoped error
//	configure      applies maxSize / tokenByteLength to the pool
//
// Spawn wires a pool, a dispatcher and an in-process pipe together and
// returns the caller's end.
package worker
