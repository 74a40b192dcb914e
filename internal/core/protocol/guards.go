package protocol

// IsReady reports whether msg is the readiness message.
func IsReady(msg Message) bool {
	return msg.Type == KindReady && !msg.Error
}

// IsWorkerError reports whether msg is an error notification.
func IsWorkerError(msg Message) bool {
	if !msg.Error {
		return false
	}
	_, ok := msg.Payload.(string)
	return ok
}

// ErrorText returns the message text of an error notification.
func ErrorText(msg Message) string {
	text, _ := msg.Payload.(string)
	return text
}

// ErrorID returns the request id of a request-scoped error.
// ok is false for untargeted errors.
func ErrorID(msg Message) (id int64, ok bool) {
	if !IsWorkerError(msg) || msg.Meta == nil || msg.Meta.ID == nil {
		return 0, false
	}
	return *msg.Meta.ID, true
}

// IsTokenRequest reports whether msg is a well-formed token request.
func IsTokenRequest(msg Message) bool {
	if msg.Type != KindTokenRequest || msg.Error {
		return false
	}
	_, ok := msg.Payload.(TokenRequest)
	return ok
}

// IsTokenResponse reports whether msg is a token response for id.
func IsTokenResponse(msg Message, id int64) bool {
	if msg.Type != KindTokenResponse || msg.Error {
		return false
	}
	resp, ok := msg.Payload.(TokenResponse)
	return ok && resp.ID == id
}

// IsConfigure reports whether msg is a well-formed configure request.
func IsConfigure(msg Message) bool {
	if msg.Type != KindConfigure || msg.Error {
		return false
	}
	_, ok := msg.Payload.(ConfigureRequest)
	return ok
}

// IsConfigureResponse reports whether msg is a configure response for id.
func IsConfigureResponse(msg Message, id int64) bool {
	if msg.Type != KindConfigureResponse || msg.Error {
		return false
	}
	resp, ok := msg.Payload.(ConfigureResponse)
	return ok && resp.ID == id
}

// ResponseID returns the request id a response or request-scoped error
// belongs to. ok is false for messages that carry no id.
func ResponseID(msg Message) (id int64, ok bool) {
	if msg.Error {
		return ErrorID(msg)
	}
	switch p := msg.Payload.(type) {
	case TokenResponse:
		return p.ID, msg.Type == KindTokenResponse
	case ConfigureResponse:
		return p.ID, msg.Type == KindConfigureResponse
	}
	return 0, false
}

// RequestID returns the id of an inbound token-request or configure
// message. ok is false for messages that carry no request id.
func RequestID(msg Message) (id int64, ok bool) {
	switch p := msg.Payload.(type) {
	case TokenRequest:
		return p.ID, msg.Type == KindTokenRequest
	case ConfigureRequest:
		return p.ID, msg.Type == KindConfigure
	}
	return 0, false
}
