package cryptogen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/core/pool"
	"github.com/yndnr/cryptogen-go/internal/core/protocol"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
	"github.com/yndnr/cryptogen-go/internal/telemetry/metric"
	"github.com/yndnr/cryptogen-go/internal/worker"
	"github.com/yndnr/cryptogen-go/pkg/cmap"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// Request kinds used for metrics and logs.
const (
	requestToken     = "token"
	requestConfigure = "configure"
)

// PoolSettings reports the worker pool settings.
type PoolSettings struct {
	MaxSize         int `json:"max_size" yaml:"max_size"`
	TokenByteLength int `json:"token_byte_length" yaml:"token_byte_length"`
}

// PoolUpdate changes worker pool settings. Nil fields are left unchanged.
type PoolUpdate struct {
	MaxSize         *int
	TokenByteLength *int
}

// outcome resolves one pending request.
type outcome struct {
	msg protocol.Message
	err error
}

// Session is the caller-side handle to a token worker.
// It is safe for concurrent use.
type Session struct {
	id      ulid.ULID
	port    protocol.Port
	ids     *protocol.IDGenerator
	pending *cmap.Map[int64, chan outcome]

	sem     *semaphore.Weighted
	limiter *rate.Limiter

	log     logger.Logger
	metrics *metric.Registry

	closing   atomic.Bool
	closeOnce sync.Once
	demuxDone chan struct{}

	mu  sync.Mutex
	err error // terminal error, set when the port terminates
}

// Create spawns a worker and waits for it to become ready.
//
// Any outcome other than the ready message (a worker error, a transport
// failure, the init timeout or ctx) closes the port and returns an error
// wrapping ErrInitFailed.
func Create(ctx context.Context, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ids, err := protocol.NewIDGenerator(o.idStart)
	if err != nil {
		return nil, err
	}

	spawn := o.spawn
	if spawn == nil {
		spawn = defaultSpawn(o)
	}

	s := &Session{
		id:        ulid.Make(),
		ids:       ids,
		pending:   cmap.New[int64, chan outcome](),
		metrics:   o.metrics,
		demuxDone: make(chan struct{}),
	}
	s.log = o.log.With("session_id", s.id.String())
	if o.maxInFlight > 0 {
		s.sem = semaphore.NewWeighted(o.maxInFlight)
	}
	if o.rateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(o.rateLimit), max(o.burst, 1))
	}

	initCtx := ctx
	if o.initTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, o.initTimeout)
		defer cancel()
	}

	port, err := spawn(initCtx)
	if err != nil {
		return nil, domain.ErrInitFailed.Wrap(err)
	}
	if err := awaitReady(initCtx, port); err != nil {
		_ = port.Close()
		s.log.Warn("worker initialization failed", "error", err)
		return nil, domain.ErrInitFailed.Wrap(err)
	}
	s.port = port

	go s.demux()

	s.log.Debug("session created", "id_start", ids.Start())
	return s, nil
}

func defaultSpawn(o options) SpawnFunc {
	cfg := worker.Config{
		Pool: pool.Options{
			MaxSize:         o.pool.MaxSize,
			TokenByteLength: o.pool.TokenByteLength,
		},
		Source: o.pool.Source,
	}
	wopts := []worker.SpawnOption{worker.WithLogger(o.log)}
	if o.metrics != nil {
		wopts = append(wopts, worker.WithMetrics(o.metrics))
	}
	return worker.Spawn(cfg, wopts...)
}

// awaitReady waits for the worker's readiness outcome. Messages of other
// kinds are skipped.
func awaitReady(ctx context.Context, port protocol.Port) error {
	for {
		select {
		case msg := <-port.Receive():
			switch {
			case protocol.IsReady(msg):
				return nil
			case protocol.IsWorkerError(msg):
				return domain.ErrWorkerError.WithDetails(protocol.ErrorText(msg))
			}
		case <-port.Done():
			return port.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id.String()
}

// Pending returns the number of requests awaiting a response.
func (s *Session) Pending() int {
	return s.pending.Count()
}

// Get requests count tokens. It returns the tokens and the time the worker
// spent generating them. count must be at least 1; an invalid count fails
// without contacting the worker.
func (s *Session) Get(ctx context.Context, count int) ([]token.Token, time.Duration, error) {
	if count < 1 {
		return nil, 0, domain.InvalidArgument("count must be greater than or equal to 1, got %d", count)
	}

	var reqID int64
	msg, err := s.roundTrip(ctx, requestToken, func(id int64) protocol.Message {
		reqID = id
		return protocol.NewTokenRequest(id, count)
	})
	if err != nil {
		return nil, 0, err
	}
	if !protocol.IsTokenResponse(msg, reqID) {
		return nil, 0, domain.ErrRequestFailed.WithDetails(fmt.Sprintf("unexpected %q response", msg.Type))
	}

	resp := msg.Payload.(protocol.TokenResponse)
	tokens := make([]token.Token, len(resp.Tokens))
	for i, b := range resp.Tokens {
		tokens[i] = token.Token(b)
	}
	took := time.Duration(resp.Duration * float64(time.Millisecond))

	if s.metrics != nil {
		s.metrics.ObserveGeneration(took)
	}
	return tokens, took, nil
}

// GetOne requests a single token.
func (s *Session) GetOne(ctx context.Context) (token.Token, error) {
	tokens, _, err := s.Get(ctx, 1)
	if err != nil {
		return nil, err
	}
	return tokens[0], nil
}

// Configure changes the worker pool settings and returns the settings in
// effect afterwards.
func (s *Session) Configure(ctx context.Context, update PoolUpdate) (PoolSettings, error) {
	if update.MaxSize != nil && *update.MaxSize < 0 {
		return PoolSettings{}, domain.InvalidArgument("max size must be greater than or equal to zero, got %d", *update.MaxSize)
	}
	if update.TokenByteLength != nil && *update.TokenByteLength < 0 {
		return PoolSettings{}, domain.InvalidArgument("token byte length must be greater than or equal to zero, got %d", *update.TokenByteLength)
	}

	var reqID int64
	msg, err := s.roundTrip(ctx, requestConfigure, func(id int64) protocol.Message {
		reqID = id
		return protocol.NewConfigure(protocol.ConfigureRequest{
			ID:              id,
			MaxSize:         update.MaxSize,
			TokenByteLength: update.TokenByteLength,
		})
	})
	if err != nil {
		return PoolSettings{}, err
	}
	if !protocol.IsConfigureResponse(msg, reqID) {
		return PoolSettings{}, domain.ErrRequestFailed.WithDetails(fmt.Sprintf("unexpected %q response", msg.Type))
	}

	resp := msg.Payload.(protocol.ConfigureResponse)
	return PoolSettings{MaxSize: resp.MaxSize, TokenByteLength: resp.TokenByteLength}, nil
}

// roundTrip sends the message built for a fresh id and waits for the
// response or error carrying that id. The pending entry is removed on
// every exit path.
func (s *Session) roundTrip(ctx context.Context, kind string, build func(id int64) protocol.Message) (msg protocol.Message, err error) {
	if s.metrics != nil {
		start := time.Now()
		defer func() {
			s.metrics.ObserveRequest(kind, err, time.Since(start))
		}()
	}

	if err := s.check(); err != nil {
		return msg, err
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return msg, err
		}
	}
	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return msg, err
		}
		defer s.sem.Release(1)
	}

	id, ch := s.register()
	defer s.pending.Delete(id)

	if s.metrics != nil {
		s.metrics.RequestsInFlight.Inc()
		defer s.metrics.RequestsInFlight.Dec()
	}

	log := logger.L(logger.WithRequestID(logger.WithLogger(ctx, s.log), id)).With("kind", kind)
	if err := s.port.Send(build(id)); err != nil {
		log.Debug("send failed", "error", err)
		return msg, s.terminalError(err)
	}

	select {
	case out := <-ch:
		return out.msg, out.err
	case <-ctx.Done():
		log.Debug("request abandoned", "error", ctx.Err())
		return msg, ctx.Err()
	case <-s.demuxDone:
		// The demux fails everything pending before exiting; prefer that.
		select {
		case out := <-ch:
			return out.msg, out.err
		default:
			return msg, s.terminalError(nil)
		}
	}
}

// register allocates an id and its one-shot result channel.
func (s *Session) register() (int64, chan outcome) {
	ch := make(chan outcome, 1)
	for {
		// Skip ids still pending after a wraparound.
		id := s.ids.Next()
		if s.pending.SetIfAbsent(id, ch) {
			return id, ch
		}
	}
}

func (s *Session) check() error {
	if s.closing.Load() {
		return domain.ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) terminalError(fallback error) error {
	if s.closing.Load() {
		return domain.ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if fallback != nil {
		return fallback
	}
	return domain.ErrChannelClosed
}

// demux routes inbound messages to pending requests until the port
// terminates, then fails whatever is still pending.
func (s *Session) demux() {
	defer close(s.demuxDone)

	for {
		select {
		case msg := <-s.port.Receive():
			s.route(msg)
		case <-s.port.Done():
			// Deliver what arrived before the failure.
			for drained := false; !drained; {
				select {
				case msg := <-s.port.Receive():
					s.route(msg)
				default:
					drained = true
				}
			}

			err := s.port.Err()
			if s.closing.Load() {
				err = domain.ErrSessionClosed
			} else {
				s.log.Error("worker channel failed", "error", err)
			}
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()

			s.failAll(err)
			return
		}
	}
}

func (s *Session) route(msg protocol.Message) {
	if protocol.IsWorkerError(msg) {
		text := protocol.ErrorText(msg)
		if id, ok := protocol.ErrorID(msg); ok {
			s.deliver(id, outcome{err: domain.ErrRequestFailed.WithDetails(text)})
			return
		}
		s.log.Warn("worker reported an error", "error", text)
		s.failAll(domain.ErrWorkerError.WithDetails(text))
		return
	}

	id, ok := protocol.ResponseID(msg)
	if !ok {
		s.log.Debug("ignoring message", "type", msg.Type)
		return
	}
	s.deliver(id, outcome{msg: msg})
}

func (s *Session) deliver(id int64, out outcome) {
	ch, ok := s.pending.Pop(id)
	if !ok {
		s.log.Debug("dropping response for unknown request", "request_id", id)
		return
	}
	ch <- out
}

func (s *Session) failAll(err error) {
	for _, ch := range s.pending.Drain() {
		ch <- outcome{err: err}
	}
}

// Close terminates the worker. Pending and later requests fail with
// ErrSessionClosed. Close is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		_ = s.port.Close()
		<-s.demuxDone
		s.log.Debug("session closed")
	})
	return nil
}

// Err returns the terminal error of a failed session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(s.err, domain.ErrSessionClosed) {
		return nil
	}
	return s.err
}
