// Package provider contains summarization provider adapters. Each adapter
// wraps one external model API behind the same Summarizer contract so the
// fallback chain can traverse them interchangeably.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/watchtowerhq/watchtower/internal/prompt"
)

// Request is a normalized summarization request: the clustered headline text
// plus optional surrounding context (source feeds, entities, locations).
type Request struct {
	Text    string
	Context string
}

// Summarizer is the uniform call contract for one external provider.
// Implementations own their wire protocol and translate failures into
// classified *Error values.
type Summarizer interface {
	// Name returns the provider name used in breaker state, logs and the
	// response source tag (e.g. "openai")
	Name() string

	// Summarize produces a short summary of the request text. The context
	// carries the per-attempt deadline.
	Summarize(ctx context.Context, req Request) (string, error)
}

// ErrorKind classifies a provider failure. The fallback chain and circuit
// breakers treat the classes differently: transient kinds count against the
// breaker and trigger fallback, InvalidInput is terminal for the request,
// QuotaExceeded holds the provider out until its quota resets.
type ErrorKind int

const (
	// KindUpstream is a transient provider-side failure (5xx, decode error)
	KindUpstream ErrorKind = iota
	// KindTimeout is a deadline exceeded talking to the provider
	KindTimeout
	// KindQuotaExceeded is an explicit quota/rate rejection from the provider
	KindQuotaExceeded
	// KindInvalidInput is a client-input rejection; retrying elsewhere is futile
	KindInvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindUpstream:
		return "upstream"
	case KindTimeout:
		return "timeout"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is a classified provider failure
type Error struct {
	Provider string
	Kind     ErrorKind
	Status   int // HTTP status if the provider responded, 0 otherwise
	Message  string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// KindOf returns the classification of err, or KindUpstream if err is not a
// provider error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUpstream
}

// IsInvalidInput reports whether err is a terminal client-input rejection
func IsInvalidInput(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindInvalidInput
}

// IsQuotaExceeded reports whether err is an explicit quota rejection
func IsQuotaExceeded(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindQuotaExceeded
}

// userPrompt renders the user turn sent to every provider
func userPrompt(req Request) string {
	return prompt.User(req.Text, req.Context)
}

// classifyStatus maps a provider HTTP status to an error kind. Auth failures
// (401/403) deliberately classify as upstream: they are gateway
// misconfiguration, not caller input, and the next provider may still work.
func classifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return KindQuotaExceeded
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return KindInvalidInput
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindUpstream
	}
}

// statusError builds a classified error from a provider HTTP response
func statusError(name string, status int, body []byte) *Error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &Error{Provider: name, Kind: classifyStatus(status), Status: status, Message: msg}
}

// transportError classifies a transport-level failure: deadline expiry is a
// timeout for breaker purposes, everything else is upstream trouble.
func transportError(name string, err error) *Error {
	kind := KindUpstream
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Provider: name, Kind: kind, Message: err.Error()}
}
