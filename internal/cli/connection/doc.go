// Package connection is the client side of the cryptogen HTTP API.
//
// The CLI uses it when --server points at a running "cryptogen run":
// tokens and pool settings then come from the remote session instead of
// a local one. HTTPS servers are verified against the system roots or a
// CA file given with --tls-ca.
package connection
