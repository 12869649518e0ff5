package config

import (
	"fmt"
	"time"
)

// Config represents a restitch.yaml configuration file.
// All values are optional and act as defaults for restitch replay flags.
// CLI flags always override config values.
type Config struct {
	RIC     string        `yaml:"ric"`
	Service string        `yaml:"service"`
	Store   StoreConfig   `yaml:"store"`
	Archive ArchiveConfig `yaml:"archive"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// StoreConfig holds fragment store defaults from the config file.
type StoreConfig struct {
	Backend       string   `yaml:"backend"` // memory or redis
	URL           string   `yaml:"url"`
	KeyPrefix     string   `yaml:"key_prefix,omitempty"`
	MaxAge        Duration `yaml:"max_age,omitempty"`
	MaxEntries    int      `yaml:"max_entries,omitempty"`
	SweepInterval Duration `yaml:"sweep_interval,omitempty"`
}

// ArchiveConfig holds story archive defaults from the config file.
type ArchiveConfig struct {
	Backend     string `yaml:"backend"` // fs or s3
	Path        string `yaml:"path"`    // fs: directory, s3: bucket/prefix
	Region      string `yaml:"region,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	S3PathStyle bool   `yaml:"s3_path_style,omitempty"`
}

// AdapterConfig holds downstream adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"` // redis or webhook
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "30s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "30s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
