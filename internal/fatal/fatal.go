// Package fatal is the abort path for configuration errors and broken
// allocator invariants. These signal programmer error or prior memory
// corruption, so the default handler halts instead of returning.
package fatal

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/memkit/internal/logger"
)

// Error is the panic value raised by the default handler.
type Error struct {
	Kind    string // "config" or "invariant"
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

const (
	KindConfig    = "config"
	KindInvariant = "invariant"
)

// Handler receives fatal conditions. A handler must not return normally;
// callers treat the state that triggered it as unusable.
type Handler func(e *Error)

// Default logs the error and panics with it.
func Default(log *slog.Logger) Handler {
	return func(e *Error) {
		logger.Or(log).Error("fatal", "kind", e.Kind, "msg", e.Message)
		panic(e)
	}
}

// Config reports a configuration error through h.
func Config(h Handler, format string, args ...any) {
	h(&Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)})
	panic("fatal: handler returned")
}

// Verify reports an invariant violation through h when cond is false.
func Verify(h Handler, cond bool, format string, args ...any) {
	if cond {
		return
	}
	h(&Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)})
	panic("fatal: handler returned")
}
