package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies request_id, item_id and command from the event's
// context onto the log event.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	if id := GetRequestID(ctx); id != "" {
		e.Str(string(requestIDKey), id)
	}
	if id := GetItemID(ctx); id != "" {
		e.Str(string(itemIDKey), id)
	}
	if cmd := GetCommand(ctx); cmd != "" {
		e.Str(string(commandKey), cmd)
	}
}
