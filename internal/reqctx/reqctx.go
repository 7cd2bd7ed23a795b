// Package reqctx carries a per-invocation request id through contexts so
// every log line and error of one command can be correlated.
package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type key int

const requestKey key = 0

// RequestContext identifies one command invocation
type RequestContext struct {
	RequestID string
	Command   string
	StartTime time.Time
}

// Elapsed returns the time since the request started
func (rc *RequestContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}

// WithRequestContext attaches a new request id for command to ctx
func WithRequestContext(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, requestKey, &RequestContext{
		RequestID: generateID(),
		Command:   command,
		StartTime: time.Now(),
	})
}

// GetRequestContext returns the request attached to ctx, or one with id
// "unknown" when there is none.
func GetRequestContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{
		RequestID: "unknown",
		StartTime: time.Now(),
	}
}

func generateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// RequestError wraps an error with request context
type RequestError struct {
	RequestID string
	Command   string
	Err       error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("[%s] %s: %v", e.RequestID, e.Command, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.RequestID, e.Err)
}

// Unwrap returns the underlying error
func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError tags err with the request in ctx. nil stays nil.
func NewRequestError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	rc := GetRequestContext(ctx)
	return &RequestError{
		RequestID: rc.RequestID,
		Command:   rc.Command,
		Err:       err,
	}
}
