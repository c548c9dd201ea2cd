package pool

import (
	"log/slog"

	"github.com/joshuapare/memkit/config"
)

// DefaultCapacity is a reasonable slot count when the caller has no better estimate.
const DefaultCapacity = 4096

// Options configures a Pool. A nil *Options selects the defaults.
type Options struct {
	// CheckDoubleRelease scans the free chain before relinking a released slot
	// and returns ErrDoubleRelease instead of corrupting the chain.
	// Default: false
	CheckDoubleRelease bool

	// Logger receives allocation traces (Debug) and double-release reports (Error).
	// Default: the package-global memkit logger, which discards until initialized.
	Logger *slog.Logger

	// OnFatal receives configuration errors and invariant violations. It must
	// not return; if it does, the pool panics anyway.
	// Default: log the error and panic with it.
	OnFatal func(err error)
}

// OptionsFromConfig translates the shared runtime configuration.
func OptionsFromConfig(c config.Config) *Options {
	return &Options{CheckDoubleRelease: c.CheckDoubleRelease}
}
