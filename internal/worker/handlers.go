package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/internal/core/protocol"
)

// DefaultHandlers returns the handlers every worker serves.
func DefaultHandlers() []Handler {
	return []Handler{TokenRequestHandler(), ConfigureHandler()}
}

// TokenRequestHandler answers token-request messages.
func TokenRequestHandler() Handler {
	return Handler{
		Kind:   protocol.KindTokenRequest,
		Guard:  protocol.IsTokenRequest,
		Handle: handleTokenRequest,
	}
}

// ConfigureHandler answers configure messages.
func ConfigureHandler() Handler {
	return Handler{
		Kind:   protocol.KindConfigure,
		Guard:  protocol.IsConfigure,
		Handle: handleConfigure,
	}
}

// MaxBatchBytes bounds the memory one token-request may ask for. Each
// token is charged its byte length plus the slice header holding it.
const MaxBatchBytes = 64 << 20

const sliceHeaderBytes = 24

// handleTokenRequest draws Count tokens from the pool. A token byte length
// change in the middle of a batch restarts the batch, so every token in
// one response has the same length.
func handleTokenRequest(ctx context.Context, hctx *Context, msg protocol.Message) error {
	req := msg.Payload.(protocol.TokenRequest)

	if req.Count < 1 {
		err := domain.InvalidArgument("count must be greater than or equal to 1, got %d", req.Count)
		return hctx.replyError(req.ID, err)
	}
	if limit := batchLimit(hctx.Pool.TokenByteLength()); req.Count > limit {
		err := domain.InvalidArgument("count %d exceeds the batch limit of %d tokens", req.Count, limit)
		return hctx.replyError(req.ID, err)
	}

	tokens := make([][]byte, 0, min(req.Count, max(hctx.Pool.MaxSize(), 1)))
	start := time.Now()
	for len(tokens) < req.Count {
		tok, err := hctx.Pool.GetToken(ctx)
		if err != nil {
			return hctx.replyError(req.ID, err)
		}
		if len(tokens) > 0 && len(tok) != len(tokens[0]) {
			hctx.Logger.Debug("token length changed mid batch, restarting",
				"request_id", req.ID,
				"discarded", len(tokens),
			)
			tokens = tokens[:0]
		}
		tokens = append(tokens, tok)
	}
	elapsed := time.Since(start)

	hctx.Logger.Debug("token request served",
		"request_id", req.ID,
		"count", req.Count,
		"duration", elapsed,
	)

	// tokens belongs to the receiver from here on
	return hctx.reply(protocol.NewTokenResponse(req.ID, tokens, durationMS(elapsed)))
}

// batchLimit returns the largest count served for tokens of n bytes.
func batchLimit(n int) int {
	return MaxBatchBytes / (n + sliceHeaderBytes)
}

func handleConfigure(_ context.Context, hctx *Context, msg protocol.Message) error {
	req := msg.Payload.(protocol.ConfigureRequest)

	if req.MaxSize != nil && *req.MaxSize < 0 {
		return hctx.replyError(req.ID,
			domain.InvalidArgument("max size must be greater than or equal to zero, got %d", *req.MaxSize))
	}
	if req.TokenByteLength != nil && *req.TokenByteLength < 0 {
		return hctx.replyError(req.ID,
			domain.InvalidArgument("token byte length must be greater than or equal to zero, got %d", *req.TokenByteLength))
	}

	if req.MaxSize != nil {
		if err := hctx.Pool.SetMaxSize(*req.MaxSize); err != nil {
			return hctx.replyError(req.ID, err)
		}
	}
	if req.TokenByteLength != nil {
		if err := hctx.Pool.SetTokenByteLength(*req.TokenByteLength); err != nil {
			return hctx.replyError(req.ID, err)
		}
	}

	hctx.Logger.Info("pool reconfigured",
		"request_id", req.ID,
		"max_size", hctx.Pool.MaxSize(),
		"token_byte_length", hctx.Pool.TokenByteLength(),
	)

	return hctx.reply(protocol.NewConfigureResponse(protocol.ConfigureResponse{
		ID:              req.ID,
		MaxSize:         hctx.Pool.MaxSize(),
		TokenByteLength: hctx.Pool.TokenByteLength(),
	}))
}

// replyError reports cause to the session as a request-scoped error and
// returns it for logging. A failed send is reported instead.
func (c *Context) replyError(id int64, cause error) error {
	if err := c.reply(protocol.NewRequestError(id, cause.Error())); err != nil {
		return fmt.Errorf("reply to request %d: %w", id, err)
	}
	return cause
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
