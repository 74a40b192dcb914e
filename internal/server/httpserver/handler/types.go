package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// TokensResponse is the response body for GET /v1/tokens.
type TokensResponse struct {
	Tokens       []string `json:"tokens"`
	Encoding     string   `json:"encoding"`
	Count        int      `json:"count"`
	DurationMS   float64  `json:"duration_ms"`
	Fingerprints []string `json:"fingerprints,omitempty"`
}

// PoolResponse is the response body for GET and PUT /v1/pool.
type PoolResponse struct {
	MaxSize         int `json:"max_size"`
	TokenByteLength int `json:"token_byte_length"`
}

// ConfigurePoolRequest is the request body for PUT /v1/pool.
// Omitted fields are left unchanged.
type ConfigurePoolRequest struct {
	MaxSize         *int `json:"max_size,omitempty"`
	TokenByteLength *int `json:"token_byte_length,omitempty"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Time      string `json:"time"`
	Error     string `json:"error,omitempty"`
}
