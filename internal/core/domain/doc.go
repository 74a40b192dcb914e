// Package domain defines the coded errors used across cryptogen.
//
// Every failure surfaced to a caller is a DomainError (possibly wrapped),
// so callers can branch with errors.Is regardless of which layer failed:
//
//   - ErrInvalidArgument: rejected before any message is sent
//   - ErrRefillFailed: the fill primitive failed; the pool self-heals
//   - ErrRequestFailed: the worker failed one request
//   - ErrWorkerError: the worker reported an untargeted error
//   - ErrChannelClosed: the port failed; terminal for the session
//   - ErrInitFailed: the worker never became ready
package domain
