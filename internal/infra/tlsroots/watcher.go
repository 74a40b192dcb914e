package tlsroots

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/yndnr/cryptogen-go/internal/infra/confloader"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
)

// DefaultDebounce waits out a cert and key written back to back.
const DefaultDebounce = 500 * time.Millisecond

// Watcher holds the current key pair and reloads it when the
// certificate or key file changes. A failed reload keeps the previous
// pair in service.
type Watcher struct {
	certFile string
	keyFile  string
	debounce time.Duration
	logger   logger.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	files *confloader.Watcher
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher loads the key pair. Call Start to follow file changes.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: DefaultDebounce,
		logger:   logger.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return w, nil
}

// Start watches the certificate and key files in the background.
func (w *Watcher) Start() error {
	files, err := confloader.NewWatcher(
		confloader.WithWatcherLogger(w.logger),
		confloader.WithDebounce(w.debounce),
	)
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	for _, path := range []string{w.certFile, w.keyFile} {
		if err := files.Watch(path); err != nil {
			files.Stop()
			return fmt.Errorf("tlsroots: watch %s: %w", path, err)
		}
	}
	files.OnChange(func(path string) {
		if err := w.Reload(); err != nil {
			w.logger.Error("certificate reload failed",
				"file", path,
				"error", err,
			)
		}
	})

	w.mu.Lock()
	w.files = files
	w.mu.Unlock()

	files.StartAsync()
	w.logger.Info("certificate watcher started",
		"cert_file", w.certFile,
		"key_file", w.keyFile,
	)
	return nil
}

// Stop stops following file changes. The loaded pair stays in service.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	files := w.files
	w.files = nil
	w.mu.Unlock()

	if files == nil {
		return nil
	}
	return files.Stop()
}

// Reload reads the key pair from disk.
func (w *Watcher) Reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	w.mu.Lock()
	w.cert = &cert
	w.mu.Unlock()

	if cert.Leaf != nil {
		w.logger.Info("certificate loaded",
			"cert_file", w.certFile,
			"not_after", cert.Leaf.NotAfter,
		)
	}
	return nil
}

// GetCertificate returns the current key pair. It implements
// tls.Config.GetCertificate.
func (w *Watcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert, nil
}
