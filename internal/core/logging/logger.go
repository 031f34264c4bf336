package logging

import (
	"github.com/rs/zerolog"
)

// Component derives the logger a component writes with. Every event is
// tagged with the component name, and events logged through Ctx pick up the
// request, item and command ids stored on that context.
func Component(parent zerolog.Logger, name string) zerolog.Logger {
	return parent.With().Str("component", name).Logger().Hook(ContextHook{})
}
