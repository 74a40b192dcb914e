// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT/SIGTERM (or a programmatic Trigger), then
// runs the registered hooks in reverse order of registration under a
// shared timeout.
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("session", func(ctx context.Context) error { return sess.Close() })
//	err := h.Wait()
package shutdown
