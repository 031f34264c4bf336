package logging

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	itemIDKey    contextKey = "item_id"
	commandKey   contextKey = "command"
)

// WithRequestID tags the context with an HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithItemID tags the context with the technology being operated on.
func WithItemID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// WithCommand tags the context with the CLI command name.
func WithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandKey, name)
}

// GetRequestID returns the request id, or "" when absent.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// GetItemID returns the item id, or "" when absent.
func GetItemID(ctx context.Context) string {
	return stringValue(ctx, itemIDKey)
}

// GetCommand returns the command name, or "" when absent.
func GetCommand(ctx context.Context) string {
	return stringValue(ctx, commandKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
