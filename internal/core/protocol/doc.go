// Package protocol defines the messages exchanged between a session and
// its worker, the id correlator, and the in-process port carrying them.
//
// Message kinds:
//
//	ready               worker -> session  no payload, sent once
//	token-request       session -> worker  {id, count}
//	token-response      worker -> session  {id, tokens, duration}
//	configure           session -> worker  {id, maxSize?, tokenByteLength?}
//	configure-response  worker -> session  {id, maxSize, tokenByteLength}
//	error               worker -> session  error=true, text payload, meta.id?
//
// A response or request-scoped error resolves only the request with the
// same id. An error without meta.id, or a failure of the port itself,
// terminates every outstanding request.
package protocol
