// Package logging tags each query execution with a short request ID so
// the retry ladder's log lines can be matched back to the API call that
// started them.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type contextKey string

const requestIDKey contextKey = "workbenchRequestID"

// GenerateRequestID returns a random 8-character hex ID for one query
// execution.
func GenerateRequestID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// WithRequestID stores the request ID on the context for the duration
// of one execution.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID stored on the context, or "" when
// the execution was started outside the query handler.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
