package guard

import (
	"log/slog"

	"github.com/joshuapare/memkit/config"
	"github.com/joshuapare/memkit/internal/pages"
)

// Options configures an Allocator. A nil *Options selects the defaults.
type Options struct {
	// ProtectPages makes the header page and trailing guard page of every
	// block inaccessible, turning stray accesses into immediate faults.
	// Default: false (detect on Free by canary comparison)
	ProtectPages bool

	// Logger receives allocation lines (Info) and corruption reports (Error).
	// Default: the package-global memkit logger, which discards until initialized.
	Logger *slog.Logger

	// Heap serves Alloc and non-guarded Free calls.
	// Default: the Go heap.
	Heap Heap

	// Registry tracks live guarded blocks. Allocators sharing a Registry must
	// share a page provider too.
	// Default: a fresh registry owned by the allocator.
	Registry *Registry

	// Pages supplies the mappings.
	// Default: the operating system.
	Pages pages.Provider
}

// OptionsFromConfig translates the shared runtime configuration.
func OptionsFromConfig(c config.Config) *Options {
	return &Options{ProtectPages: c.ProtectPages}
}
