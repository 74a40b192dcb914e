// Package pool implements the token pool owned by the worker.
//
// The pool keeps up to MaxSize tokens of TokenByteLength bytes each and
// refills itself in the background:
//
//   - construction starts an eager refill to MaxSize
//   - GetToken pops immediately when stock exists, otherwise it joins
//     (or starts) the single in-flight refill and retries
//   - SetMaxSize grows eagerly and shrinks lazily
//   - SetTokenByteLength discards stock and refills at the new length
//
// Refill failures are delivered to every waiter of that refill and do
// not poison the pool.
package pool
