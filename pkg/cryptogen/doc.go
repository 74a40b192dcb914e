// Package cryptogen issues cryptographically secure random tokens without
// blocking the caller on generation.
//
// A Session owns a worker goroutine that keeps a pool of pre-generated
// tokens topped up. Requests travel to the worker as id-tagged messages
// and each caller receives only the response carrying its own id:
//
//	s, err := cryptogen.Create(ctx)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	tokens, took, err := s.Get(ctx, 5)
//
// Tokens are raw bytes. Encoding them for display or storage is left to
// the caller.
package cryptogen
