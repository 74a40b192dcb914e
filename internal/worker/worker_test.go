package worker

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/core/pool"
	"github.com/yndnr/cryptogen-go/internal/core/protocol"
	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
	"github.com/yndnr/cryptogen-go/internal/telemetry/metric"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// recv returns the next message on port or fails the test.
func recv(t *testing.T, port protocol.Port) protocol.Message {
	t.Helper()
	select {
	case msg := <-port.Receive():
		return msg
	case <-port.Done():
		t.Fatalf("port terminated: %v", port.Err())
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
	return protocol.Message{}
}

// startWorker runs a worker over a fresh pipe and returns the caller end
// after consuming the ready message.
func startWorker(t *testing.T, opts pool.Options, handlers ...Handler) (*protocol.Endpoint, *pool.Pool, <-chan error) {
	t.Helper()

	p, err := pool.New(opts, pool.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("pool.New() error = %v", err)
	}
	if len(handlers) == 0 {
		handlers = DefaultHandlers()
	}

	caller, end := protocol.Pipe(protocol.DefaultPipeBuffer)
	d := NewDispatcher(&Context{Pool: p, Port: end, Logger: logger.Discard()}, handlers...)

	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), d) }()
	t.Cleanup(func() { caller.Close() })

	if msg := recv(t, caller); !protocol.IsReady(msg) {
		t.Fatalf("first message = %+v, want ready", msg)
	}
	return caller, p, done
}

func TestTokenRequest_ReturnsCountTokens(t *testing.T) {
	caller, _, _ := startWorker(t, pool.Options{MaxSize: 3, TokenByteLength: 24})

	if err := caller.Send(protocol.NewTokenRequest(42, 5)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msg := recv(t, caller)
	if !protocol.IsTokenResponse(msg, 42) {
		t.Fatalf("response = %+v, want token-response for 42", msg)
	}
	resp := msg.Payload.(protocol.TokenResponse)
	if len(resp.Tokens) != 5 {
		t.Errorf("len(Tokens) = %d, want 5", len(resp.Tokens))
	}
	for i, tok := range resp.Tokens {
		if len(tok) != 24 {
			t.Errorf("token %d length = %d, want 24", i, len(tok))
		}
	}
	if resp.Duration < 0 {
		t.Errorf("Duration = %v, want >= 0", resp.Duration)
	}
}

func TestTokenRequest_InvalidCount(t *testing.T) {
	caller, _, _ := startWorker(t, pool.Options{MaxSize: 1, TokenByteLength: 8})

	for _, count := range []int{0, -3} {
		if err := caller.Send(protocol.NewTokenRequest(9, count)); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		msg := recv(t, caller)
		id, ok := protocol.ErrorID(msg)
		if !ok || id != 9 {
			t.Fatalf("count %d: response = %+v, want request error for 9", count, msg)
		}
		if !strings.Contains(protocol.ErrorText(msg), domain.ErrInvalidArgument.Code) {
			t.Errorf("error text = %q, want invalid-argument code", protocol.ErrorText(msg))
		}
	}
}

func TestTokenRequest_RefillFailure(t *testing.T) {
	cause := errors.New("entropy unavailable")
	filler := token.FillFunc(func(int) ([]byte, error) { return nil, cause })
	caller, _, _ := startWorker(t, pool.Options{MaxSize: 2, TokenByteLength: 8, Filler: filler})

	if err := caller.Send(protocol.NewTokenRequest(3, 1)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msg := recv(t, caller)
	if id, ok := protocol.ErrorID(msg); !ok || id != 3 {
		t.Fatalf("response = %+v, want request error for 3", msg)
	}
	text := protocol.ErrorText(msg)
	if !strings.Contains(text, domain.ErrRefillFailed.Code) || !strings.Contains(text, cause.Error()) {
		t.Errorf("error text = %q, want refill failure with cause", text)
	}
}

func TestTokenRequest_ScopedErrorOnlyHitsItsRequest(t *testing.T) {
	caller, _, _ := startWorker(t, pool.Options{MaxSize: 4, TokenByteLength: 8})

	if err := caller.Send(protocol.NewTokenRequest(7, 0)); err != nil {
		t.Fatal(err)
	}
	if err := caller.Send(protocol.NewTokenRequest(8, 2)); err != nil {
		t.Fatal(err)
	}

	var gotErr7, gotResp8 bool
	for i := 0; i < 2; i++ {
		msg := recv(t, caller)
		switch {
		case protocol.IsTokenResponse(msg, 8):
			gotResp8 = true
		case protocol.IsWorkerError(msg):
			id, ok := protocol.ErrorID(msg)
			if !ok || id != 7 {
				t.Fatalf("error for id %d (ok=%v), want 7", id, ok)
			}
			gotErr7 = true
		default:
			t.Fatalf("unexpected message %+v", msg)
		}
	}
	if !gotErr7 || !gotResp8 {
		t.Errorf("gotErr7=%v gotResp8=%v, want both", gotErr7, gotResp8)
	}
}

func TestConfigure(t *testing.T) {
	caller, p, _ := startWorker(t, pool.Options{MaxSize: 2, TokenByteLength: 8})

	maxSize, length := 5, 16
	req := protocol.ConfigureRequest{ID: 1, MaxSize: &maxSize, TokenByteLength: &length}
	if err := caller.Send(protocol.NewConfigure(req)); err != nil {
		t.Fatal(err)
	}

	msg := recv(t, caller)
	if !protocol.IsConfigureResponse(msg, 1) {
		t.Fatalf("response = %+v, want configure-response for 1", msg)
	}
	resp := msg.Payload.(protocol.ConfigureResponse)
	if resp.MaxSize != 5 || resp.TokenByteLength != 16 {
		t.Errorf("response = %+v, want max 5 length 16", resp)
	}
	if p.MaxSize() != 5 || p.TokenByteLength() != 16 {
		t.Errorf("pool = (%d, %d), want (5, 16)", p.MaxSize(), p.TokenByteLength())
	}

	if err := caller.Send(protocol.NewTokenRequest(2, 1)); err != nil {
		t.Fatal(err)
	}
	tokens := recv(t, caller).Payload.(protocol.TokenResponse).Tokens
	if len(tokens[0]) != 16 {
		t.Errorf("token length after configure = %d, want 16", len(tokens[0]))
	}
}

func TestConfigure_InvalidLeavesPoolUnchanged(t *testing.T) {
	caller, p, _ := startWorker(t, pool.Options{MaxSize: 2, TokenByteLength: 8})

	maxSize, length := 10, -1
	req := protocol.ConfigureRequest{ID: 4, MaxSize: &maxSize, TokenByteLength: &length}
	if err := caller.Send(protocol.NewConfigure(req)); err != nil {
		t.Fatal(err)
	}

	msg := recv(t, caller)
	if id, ok := protocol.ErrorID(msg); !ok || id != 4 {
		t.Fatalf("response = %+v, want request error for 4", msg)
	}
	if p.MaxSize() != 2 || p.TokenByteLength() != 8 {
		t.Errorf("pool = (%d, %d), want unchanged (2, 8)", p.MaxSize(), p.TokenByteLength())
	}
}

func TestDispatcher_IgnoresUnknownAndMalformed(t *testing.T) {
	var calls atomic.Int64
	counting := Handler{
		Kind:  protocol.KindTokenRequest,
		Guard: protocol.IsTokenRequest,
		Handle: func(context.Context, *Context, protocol.Message) error {
			calls.Add(1)
			return nil
		},
	}
	d := NewDispatcher(&Context{Logger: logger.Discard()}, counting)

	d.Dispatch(context.Background(), protocol.Message{Type: "shutdown"})
	d.Dispatch(context.Background(), protocol.Message{Type: protocol.KindTokenRequest, Payload: "five"})
	d.Dispatch(context.Background(), protocol.NewTokenRequest(1, 1))

	if got := calls.Load(); got != 1 {
		t.Errorf("handler calls = %d, want 1", got)
	}
}

func TestDispatcher_RecoversPanicAndSwallowsErrors(t *testing.T) {
	d := NewDispatcher(&Context{Logger: logger.Discard()},
		Handler{
			Kind: protocol.KindTokenRequest,
			Handle: func(context.Context, *Context, protocol.Message) error {
				panic("handler bug")
			},
		},
		Handler{
			Kind: protocol.KindConfigure,
			Handle: func(context.Context, *Context, protocol.Message) error {
				return errors.New("rejected")
			},
		},
	)

	d.Dispatch(context.Background(), protocol.NewTokenRequest(1, 1))
	d.Dispatch(context.Background(), protocol.NewConfigure(protocol.ConfigureRequest{ID: 2}))
}

func TestDispatcher_LaterHandlerReplaces(t *testing.T) {
	var first, second atomic.Bool
	d := NewDispatcher(&Context{Logger: logger.Discard()},
		Handler{Kind: protocol.KindReady, Handle: func(context.Context, *Context, protocol.Message) error {
			first.Store(true)
			return nil
		}},
		Handler{Kind: protocol.KindReady, Handle: func(context.Context, *Context, protocol.Message) error {
			second.Store(true)
			return nil
		}},
	)

	d.Dispatch(context.Background(), protocol.NewReady())
	if first.Load() || !second.Load() {
		t.Errorf("first=%v second=%v, want only the later handler", first.Load(), second.Load())
	}
}

func TestRun_PanickingHandlerDoesNotStopWorker(t *testing.T) {
	boom := Handler{
		Kind: protocol.KindConfigure,
		Handle: func(context.Context, *Context, protocol.Message) error {
			panic("boom")
		},
	}
	caller, _, _ := startWorker(t, pool.Options{MaxSize: 1, TokenByteLength: 8}, TokenRequestHandler(), boom)

	if err := caller.Send(protocol.NewConfigure(protocol.ConfigureRequest{ID: 1})); err != nil {
		t.Fatal(err)
	}
	if err := caller.Send(protocol.NewTokenRequest(2, 1)); err != nil {
		t.Fatal(err)
	}

	var gotError, gotTokens bool
	for i := 0; i < 2; i++ {
		msg := recv(t, caller)
		switch {
		case protocol.IsTokenResponse(msg, 2):
			gotTokens = true
		case protocol.IsWorkerError(msg):
			if id, ok := protocol.ErrorID(msg); !ok || id != 1 {
				t.Errorf("error = %+v, want request error for 1", msg)
			}
			gotError = true
		default:
			t.Errorf("unexpected message %+v", msg)
		}
	}
	if !gotError || !gotTokens {
		t.Errorf("gotError=%v gotTokens=%v, want both", gotError, gotTokens)
	}
}

func TestDispatcher_PanicAnswersRequest(t *testing.T) {
	caller, end := protocol.Pipe(2)
	d := NewDispatcher(&Context{Port: end, Logger: logger.Discard()},
		Handler{
			Kind:  protocol.KindTokenRequest,
			Guard: protocol.IsTokenRequest,
			Handle: func(context.Context, *Context, protocol.Message) error {
				panic("makeslice: cap out of range")
			},
		},
	)

	d.Dispatch(context.Background(), protocol.NewTokenRequest(17, 3))

	msg := recv(t, caller)
	if id, ok := protocol.ErrorID(msg); !ok || id != 17 {
		t.Fatalf("response = %+v, want request error for 17", msg)
	}
	if text := protocol.ErrorText(msg); !strings.Contains(text, "makeslice") {
		t.Errorf("error text = %q, want the panic value", text)
	}
}

func TestTokenRequest_ExceedsBatchLimit(t *testing.T) {
	caller, _, _ := startWorker(t, pool.Options{MaxSize: 2, TokenByteLength: 32})

	for _, count := range []int{math.MaxInt, batchLimit(32) + 1} {
		if err := caller.Send(protocol.NewTokenRequest(5, count)); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		msg := recv(t, caller)
		if id, ok := protocol.ErrorID(msg); !ok || id != 5 {
			t.Fatalf("count %d: response = %+v, want request error for 5", count, msg)
		}
		if !strings.Contains(protocol.ErrorText(msg), domain.ErrInvalidArgument.Code) {
			t.Errorf("count %d: error text = %q, want invalid-argument code", count, protocol.ErrorText(msg))
		}
	}

	// A batch larger than the pool is served through repeated refills.
	if err := caller.Send(protocol.NewTokenRequest(6, 50)); err != nil {
		t.Fatal(err)
	}
	if msg := recv(t, caller); !protocol.IsTokenResponse(msg, 6) || len(msg.Payload.(protocol.TokenResponse).Tokens) != 50 {
		t.Errorf("response = %+v, want 50 tokens for 6", msg)
	}
}

func TestBatchLimit(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{0, MaxBatchBytes / sliceHeaderBytes},
		{32, MaxBatchBytes / (32 + sliceHeaderBytes)},
		{MaxBatchBytes, 0},
	}
	for _, tt := range tests {
		if got := batchLimit(tt.length); got != tt.want {
			t.Errorf("batchLimit(%d) = %d, want %d", tt.length, got, tt.want)
		}
	}
}

func TestTokenRequest_LengthChangeMidBatch(t *testing.T) {
	gate := make(chan struct{})
	var calls atomic.Int64
	filler := token.FillFunc(func(n int) ([]byte, error) {
		if calls.Add(1) > 1 {
			<-gate
		}
		return token.GenerateBytes(n)
	})
	caller, p, _ := startWorker(t, pool.Options{MaxSize: 1, TokenByteLength: 8, Filler: filler})

	if err := caller.Send(protocol.NewTokenRequest(3, 3)); err != nil {
		t.Fatal(err)
	}

	// The first token has been drawn at 8 bytes and the next refill is parked.
	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("second fill never started")
		}
		time.Sleep(time.Millisecond)
	}
	if err := p.SetTokenByteLength(16); err != nil {
		t.Fatalf("SetTokenByteLength() error = %v", err)
	}
	close(gate)

	msg := recv(t, caller)
	if !protocol.IsTokenResponse(msg, 3) {
		t.Fatalf("response = %+v, want token-response for 3", msg)
	}
	resp := msg.Payload.(protocol.TokenResponse)
	if len(resp.Tokens) != 3 {
		t.Fatalf("len(Tokens) = %d, want 3", len(resp.Tokens))
	}
	for i, tok := range resp.Tokens {
		if len(tok) != 16 {
			t.Errorf("token %d length = %d, want 16", i, len(tok))
		}
	}
}

func TestRun_ReturnsWhenPortCloses(t *testing.T) {
	caller, _, done := startWorker(t, pool.Options{MaxSize: 1, TokenByteLength: 8})

	caller.Close()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrChannelClosed) {
			t.Errorf("Run() error = %v, want ErrChannelClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after the port closed")
	}
}

func TestSpawn(t *testing.T) {
	spawn := Spawn(DefaultConfig(), WithLogger(logger.Discard()))

	port, err := spawn(context.Background())
	if err != nil {
		t.Fatalf("spawn() error = %v", err)
	}
	defer port.Close()

	if msg := recv(t, port); !protocol.IsReady(msg) {
		t.Fatalf("first message = %+v, want ready", msg)
	}
	if err := port.Send(protocol.NewTokenRequest(0, 2)); err != nil {
		t.Fatal(err)
	}
	msg := recv(t, port)
	if !protocol.IsTokenResponse(msg, 0) {
		t.Fatalf("response = %+v, want token-response for 0", msg)
	}
	for _, tok := range msg.Payload.(protocol.TokenResponse).Tokens {
		if len(tok) != token.DefaultLength {
			t.Errorf("token length = %d, want %d", len(tok), token.DefaultLength)
		}
	}
}

func TestSpawn_ChaCha20Source(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = token.SourceChaCha20
	port, err := Spawn(cfg, WithLogger(logger.Discard()))(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer port.Close()

	if msg := recv(t, port); !protocol.IsReady(msg) {
		t.Fatalf("first message = %+v, want ready", msg)
	}
}

func TestSpawn_InitFailureSendsUntargetedError(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown source", Config{Pool: pool.Options{MaxSize: 1, TokenByteLength: 8}, Source: "dev-random"}},
		{"negative max size", Config{Pool: pool.Options{MaxSize: -1, TokenByteLength: 8}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, err := Spawn(tt.cfg, WithLogger(logger.Discard()))(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			defer port.Close()

			msg := recv(t, port)
			if !protocol.IsWorkerError(msg) {
				t.Fatalf("first message = %+v, want error", msg)
			}
			if _, ok := protocol.ErrorID(msg); ok {
				t.Error("init error must be untargeted")
			}
		})
	}
}

func TestSpawn_WithMetrics(t *testing.T) {
	reg := metric.NewRegistry()
	cfg := DefaultConfig()
	cfg.Pool.MaxSize = 7

	port, err := Spawn(cfg, WithLogger(logger.Discard()), WithMetrics(reg))(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer port.Close()
	recv(t, port)

	if err := port.Send(protocol.NewTokenRequest(1, 1)); err != nil {
		t.Fatal(err)
	}
	recv(t, port)

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		"cryptogen_pool_max_size 7",
		"cryptogen_pool_token_byte_length 32",
		"cryptogen_pool_tokens_served_total 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %s", want)
		}
	}
}
