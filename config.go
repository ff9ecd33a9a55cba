package controllerim

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the scope options.
type Config struct {
	ChangeDetection ChangeDetection `yaml:"change_detection"`
	TestMode        bool            `yaml:"test_mode"`
	IDs             IDConfig        `yaml:"ids"`
}

// IDConfig selects the identifier service.
type IDConfig struct {
	// Kind is "uuid" (default) or "sequence".
	Kind string `yaml:"kind"`
	// Prefix is used by the sequence generator.
	Prefix string `yaml:"prefix"`
}

func DefaultConfig() Config {
	return Config{
		ChangeDetection: DetectSnapshot,
		IDs:             IDConfig{Kind: "uuid"},
	}
}

// LoadConfig decodes YAML from r on top of DefaultConfig. Unknown fields
// are rejected. An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.ChangeDetection.valid() {
		return fmt.Errorf("invalid change_detection %q: want %q or %q", c.ChangeDetection, DetectSnapshot, DetectFineGrained)
	}
	switch c.IDs.Kind {
	case "", "uuid", "sequence":
	default:
		return fmt.Errorf("invalid ids.kind %q: want \"uuid\" or \"sequence\"", c.IDs.Kind)
	}
	return nil
}

// Options converts the config into scope options.
func (c Config) Options() []ScopeOption {
	opts := []ScopeOption{WithChangeDetection(c.ChangeDetection)}
	if c.TestMode {
		opts = append(opts, WithTestMode())
	}
	if c.IDs.Kind == "sequence" {
		opts = append(opts, WithIDGenerator(NewSequenceGenerator(c.IDs.Prefix)))
	}
	return opts
}
