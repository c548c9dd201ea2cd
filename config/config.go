// Package config holds the runtime toggles shared by the pool and guard
// allocators and loads them from MEMKIT_* environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix read by Load.
const Prefix = "MEMKIT"

// Config is the recognized configuration surface.
type Config struct {
	// CheckDoubleRelease scans the pool's free chain before every release and
	// rejects slots that are already free. O(free slots) per release.
	// Env: MEMKIT_CHECK_DOUBLE_RELEASE. Default: false
	CheckDoubleRelease bool `envconfig:"CHECK_DOUBLE_RELEASE" default:"false"`

	// ProtectPages makes the leading and trailing guard pages of every guarded
	// block inaccessible, so stray accesses fault immediately instead of being
	// found by the canary check at free time.
	// Env: MEMKIT_PROTECT_PAGES. Default: false
	ProtectPages bool `envconfig:"PROTECT_PAGES" default:"false"`

	// LogLevel is the minimum diagnostic level (debug, info, warn, error).
	// Env: MEMKIT_LOG_LEVEL. Default: info
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogAlloc enables the diagnostic sink at all. When false output is discarded.
	// Env: MEMKIT_LOG_ALLOC. Default: false
	LogAlloc bool `envconfig:"LOG_ALLOC" default:"false"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{LogLevel: "info"}
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}
