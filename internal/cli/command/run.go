package command

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/cryptogen-go/internal/config"
	"github.com/yndnr/cryptogen-go/internal/infra/confloader"
	"github.com/yndnr/cryptogen-go/internal/infra/shutdown"
	"github.com/yndnr/cryptogen-go/internal/infra/tlsroots"
	"github.com/yndnr/cryptogen-go/internal/server/httpserver"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
	"github.com/yndnr/cryptogen-go/internal/telemetry/metric"
	"github.com/yndnr/cryptogen-go/pkg/cryptogen"
)

// reloadTimeout bounds the configure round trip of a hot reload.
const reloadTimeout = 5 * time.Second

// RunCommand returns the run command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Serve tokens over HTTP until interrupted",
		Description: "Keeps one session warm and serves GET /v1/tokens, GET|PUT /v1/pool,\n" +
			"/health, /ready and Prometheus metrics. Pool settings and the log level\n" +
			"are reloaded when the configuration file changes.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.addr)",
			},
			&cli.IntFlag{
				Name:  "max-tokens",
				Usage: "Largest count accepted per request (0 = default)",
			},
		},
		Action: runServer,
	}
}

func runServer(c *cli.Context) error {
	extra := map[string]any{}
	if c.IsSet("addr") {
		extra["server.addr"] = c.String("addr")
	}
	cfg, err := loadConfig(c, extra)
	if err != nil {
		return err
	}
	log, err := setupLogger(c, cfg)
	if err != nil {
		return err
	}

	d, err := newDaemon(c.Context, daemonOptions{
		cfg:        cfg,
		configPath: c.String("config"),
		overrides:  mergeOverrides(ParseGlobalFlags(c).overrides(), extra),
		maxTokens:  c.Int("max-tokens"),
		log:        log,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		d.close(context.Background())
		return err
	}

	h := shutdown.NewHandler(cfg.Server.ShutdownTimeout, shutdown.WithLogger(log))
	h.OnShutdown("cryptogen", d.close)

	d.start(ln, func(err error) {
		log.Error("http server failed", "error", err)
		h.Trigger("http server failed")
	})
	log.Info("cryptogen running",
		"addr", ln.Addr().String(),
		"session_id", d.session.ID(),
		"metrics", cfg.Metrics.Enabled,
		"tls", cfg.Server.TLSEnabled(),
	)

	return h.WaitContext(c.Context)
}

func mergeOverrides(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// daemonOptions configures a daemon.
type daemonOptions struct {
	cfg        *config.Config
	configPath string
	overrides  map[string]any
	maxTokens  int
	log        logger.Logger
}

// daemon is the long-running state of the run command.
type daemon struct {
	opts      daemonOptions
	log       logger.Logger
	session   *cryptogen.Session
	registry  *metric.Registry
	server    *httpserver.Server
	watcher   *confloader.Watcher
	certs     *tlsroots.Watcher
	tlsConfig *tls.Config

	mu  sync.Mutex
	cfg *config.Config
}

func newDaemon(ctx context.Context, opts daemonOptions) (*daemon, error) {
	d := &daemon{
		opts: opts,
		log:  opts.log,
		cfg:  opts.cfg,
	}

	if opts.cfg.Server.TLSEnabled() {
		if err := d.setupTLS(); err != nil {
			return nil, err
		}
	}

	if opts.cfg.Metrics.Enabled {
		d.registry = metric.NewRegistry()
	}

	sess, err := newSession(ctx, opts.cfg, opts.log, d.registry)
	if err != nil {
		return nil, err
	}
	d.session = sess

	routerCfg := &httpserver.RouterConfig{
		Session:             sess,
		Logger:              opts.log,
		MaxTokensPerRequest: opts.maxTokens,
	}
	if d.registry != nil {
		routerCfg.Metrics = d.registry.Handler()
		routerCfg.MetricsPath = opts.cfg.Metrics.Path
	}
	d.server = httpserver.New(opts.cfg.Server.Addr, httpserver.NewRouter(routerCfg))

	if opts.configPath != "" {
		w, err := confloader.NewWatcher(confloader.WithWatcherLogger(opts.log))
		if err != nil {
			sess.Close()
			return nil, err
		}
		if err := w.Watch(opts.configPath); err != nil {
			w.Stop()
			sess.Close()
			return nil, err
		}
		w.OnChange(d.reload)
		d.watcher = w
	}
	return d, nil
}

// setupTLS loads the serving key pair and the optional client CA pool.
func (d *daemon) setupTLS() error {
	srv := d.opts.cfg.Server
	certs, err := tlsroots.NewWatcher(srv.TLSCertFile, srv.TLSKeyFile, tlsroots.WithLogger(d.log))
	if err != nil {
		return err
	}

	var clients *tlsroots.Pool
	if srv.TLSClientCAFile != "" {
		if clients, err = tlsroots.LoadPool(srv.TLSClientCAFile); err != nil {
			return err
		}
	}

	cfg, err := tlsroots.ServerConfig(certs, clients)
	if err != nil {
		return err
	}
	d.certs = certs
	d.tlsConfig = cfg
	return nil
}

// start serves on ln and starts the file watchers. onError is called
// if the server stops for any reason other than shutdown.
func (d *daemon) start(ln net.Listener, onError func(error)) {
	if d.tlsConfig != nil {
		ln = tls.NewListener(ln, d.tlsConfig)
		if err := d.certs.Start(); err != nil {
			d.log.Warn("certificate hot reload disabled", "error", err)
		}
	}
	go func() {
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			onError(err)
		}
	}()
	if d.watcher != nil {
		d.watcher.StartAsync()
	}
}

// reload re-reads the configuration and applies what can change live:
// the log level and the pool settings. Other changes need a restart.
func (d *daemon) reload(path string) {
	cfg, err := config.Load(path, d.opts.overrides)
	if err != nil {
		d.log.Warn("configuration reload rejected", "file", path, "error", err)
		return
	}

	d.mu.Lock()
	prev := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if cfg.Log.Level != prev.Log.Level {
		logger.SetLevel(cfg.Log.Level)
		d.log.Info("log level changed", "level", logger.GetLevel())
	}

	var update cryptogen.PoolUpdate
	if cfg.Pool.MaxSize != prev.Pool.MaxSize {
		update.MaxSize = &cfg.Pool.MaxSize
	}
	if cfg.Pool.TokenByteLength != prev.Pool.TokenByteLength {
		update.TokenByteLength = &cfg.Pool.TokenByteLength
	}
	if update.MaxSize != nil || update.TokenByteLength != nil {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		settings, err := d.session.Configure(ctx, update)
		if err != nil {
			d.log.Error("pool reconfiguration failed", "error", err)
		} else {
			d.log.Info("pool reconfigured",
				"max_size", settings.MaxSize,
				"token_byte_length", settings.TokenByteLength,
			)
		}
	}

	if cfg.Pool.Source != prev.Pool.Source || cfg.Session != prev.Session ||
		cfg.Server != prev.Server || cfg.Metrics != prev.Metrics || cfg.Log.Format != prev.Log.Format {
		d.log.Warn("configuration changes outside pool and log.level need a restart", "file", path)
	}
}

// config returns the configuration currently in force.
func (d *daemon) config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// close stops the watchers, drains the server, then closes the session.
func (d *daemon) close(ctx context.Context) error {
	var errs []error
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.certs != nil {
		if err := d.certs.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := d.session.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
