package forkly

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
	"github.com/viant/forkly/internal/envexpr"
	"gopkg.in/yaml.v3"
)

// SlotsEnvKey names the environment variable supplying the default slot
// layout when neither configuration nor options declare one.
const SlotsEnvKey = "FORKLY_SLOTS"

// Config is a serialisable representation of a run configuration. It can be
// populated from YAML or JSON; the zero value inherits package defaults.
type Config struct {
	// Slots is the textual slot layout, e.g. "4" or "2,worker1:/data".
	Slots       string       `json:"slots" yaml:"slots"`
	KeepGoing   bool         `json:"keepGoing" yaml:"keepGoing"`
	Verbose     bool         `json:"verbose" yaml:"verbose"`
	SkipProbe   bool         `json:"skipProbe" yaml:"skipProbe"`
	RemoteShell string       `json:"remoteShell" yaml:"remoteShell"`
	Secrets     string       `json:"secrets" yaml:"secrets"`
	Trace       string       `json:"trace" yaml:"trace"`
	Mirror      MirrorConfig `json:"mirror" yaml:"mirror"`
}

// MirrorConfig controls the best-effort working-directory sync around a run.
type MirrorConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir" yaml:"dir"`
}

// DefaultConfig returns a Config populated with the package defaults. The
// slot layout falls back to the FORKLY_SLOTS environment variable; callers
// may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	config := &Config{
		RemoteShell: "ssh",
		Mirror:      MirrorConfig{Dir: "."},
	}
	if value := os.Getenv(SlotsEnvKey); value != "" {
		config.Slots = value
	}
	return config
}

// LoadConfig reads a YAML configuration document from the given URL,
// layered over the package defaults. ${env.KEY} references expand before
// parsing.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load config from %s: %v", ErrInvalidConfig, URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(envexpr.Expand(string(data))), config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config from %s: %v", ErrInvalidConfig, URL, err)
	}
	return config, nil
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.RemoteShell == "" {
		return fmt.Errorf("%w: remoteShell must not be empty", ErrInvalidConfig)
	}
	if c.Mirror.Enabled && c.Mirror.Dir == "" {
		return fmt.Errorf("%w: mirror.dir must not be empty", ErrInvalidConfig)
	}
	return nil
}
