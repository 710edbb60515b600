package toolmcp

import (
	"context"
	"encoding/json"
)

// Transport defines the interface for MCP transports. It covers exactly
// the request/response shape tools/list and tools/call need; server-push
// notifications and server-initiated requests (used by MCP resources,
// prompts, and sampling) have no place in this interface since nothing in
// this runtime consumes them.
type Transport interface {
	// Connect establishes the transport connection.
	Connect(ctx context.Context) error

	// Close closes the transport connection.
	Close() error

	// Call sends a request and waits for a response.
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)

	// Notify sends a notification (no response expected).
	Notify(ctx context.Context, method string, params any) error

	// Connected returns whether the transport is connected.
	Connected() bool
}

// NewTransport creates a new transport based on the server configuration.
func NewTransport(cfg *ServerConfig) Transport {
	switch cfg.Transport {
	case TransportHTTP:
		return NewHTTPTransport(cfg)
	default:
		return NewStdioTransport(cfg)
	}
}
