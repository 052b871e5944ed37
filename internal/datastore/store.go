package datastore

import (
	"context"
	"encoding/json"
)

// Args are the values substituted into an endpoint template. For writes they
// are also the JSON request body.
type Args map[string]any

// Store fetches and writes resources addressed by endpoint templates.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Fetch reads the resource at the interpolated template.
	Fetch(ctx context.Context, template string, args Args) (json.RawMessage, error)

	// Write sends args to the interpolated template.
	Write(ctx context.Context, template string, args Args) error
}

// Logger is the logging interface used by stores.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
