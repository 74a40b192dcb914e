// Package protocol defines the messages exchanged between a session and
// its worker, the id correlator, and the in-process port carrying them.
package protocol

// Message kinds.
const (
	KindReady             = "ready"
	KindTokenRequest      = "token-request"
	KindTokenResponse     = "token-response"
	KindConfigure         = "configure"
	KindConfigureResponse = "configure-response"
	KindError             = "error"
)

// Message is the envelope for everything sent over a Port.
//
// Error messages carry the message text as a string payload; Meta holds
// the originating request id when the error is request scoped.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Error   bool   `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta is the metadata envelope of a message.
type Meta struct {
	ID *int64 `json:"id,omitempty"`
}

// TokenRequest asks the worker for Count tokens.
type TokenRequest struct {
	ID    int64 `json:"id"`
	Count int   `json:"count"`
}

// TokenResponse carries the tokens produced for request ID.
// Duration is the generation time in milliseconds.
type TokenResponse struct {
	ID       int64    `json:"id"`
	Tokens   [][]byte `json:"tokens"`
	Duration float64  `json:"duration"`
}

// ConfigureRequest changes pool settings. Nil fields are left unchanged.
type ConfigureRequest struct {
	ID              int64 `json:"id"`
	MaxSize         *int  `json:"maxSize,omitempty"`
	TokenByteLength *int  `json:"tokenByteLength,omitempty"`
}

// ConfigureResponse reports the pool settings after a ConfigureRequest.
type ConfigureResponse struct {
	ID              int64 `json:"id"`
	MaxSize         int   `json:"maxSize"`
	TokenByteLength int   `json:"tokenByteLength"`
}

// NewReady returns the readiness message.
func NewReady() Message {
	return Message{Type: KindReady}
}

// NewTokenRequest returns a token-request message.
func NewTokenRequest(id int64, count int) Message {
	return Message{Type: KindTokenRequest, Payload: TokenRequest{ID: id, Count: count}}
}

// NewTokenResponse returns a token-response message.
func NewTokenResponse(id int64, tokens [][]byte, durationMS float64) Message {
	return Message{
		Type:    KindTokenResponse,
		Payload: TokenResponse{ID: id, Tokens: tokens, Duration: durationMS},
	}
}

// NewConfigure returns a configure message.
func NewConfigure(req ConfigureRequest) Message {
	return Message{Type: KindConfigure, Payload: req}
}

// NewConfigureResponse returns a configure-response message.
func NewConfigureResponse(resp ConfigureResponse) Message {
	return Message{Type: KindConfigureResponse, Payload: resp}
}

// NewError returns an untargeted error message.
func NewError(text string) Message {
	return Message{Type: KindError, Error: true, Payload: text}
}

// NewRequestError returns an error message scoped to request id.
func NewRequestError(id int64, text string) Message {
	return Message{Type: KindError, Error: true, Payload: text, Meta: &Meta{ID: &id}}
}
