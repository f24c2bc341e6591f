// Package config loads the optional hexdis configuration file. Values in the
// file act as defaults that command-line flags override.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// EnvConfig names a config file used when --config is not given.
const EnvConfig = "HEXDIS_CONFIG"

// Config mirrors the decode flags.
type Config struct {
	Mode      string `yaml:"mode,omitempty" json:"mode,omitempty" jsonschema:"title=Mode,description=Default mode token,default=x64"`
	Address   string `yaml:"address,omitempty" json:"address,omitempty" jsonschema:"title=Address,description=Default base address literal (decimal or hex)"`
	Detail    bool   `yaml:"detail,omitempty" json:"detail,omitempty" jsonschema:"title=Detail,description=Request per-operand detail from the decoder"`
	Verbosity int    `yaml:"verbosity,omitempty" json:"verbosity,omitempty" jsonschema:"title=Verbosity,description=Output tier: 0 text and 1 adds addresses and 2 adds bytes,minimum=0"`
	Color     string `yaml:"color,omitempty" json:"color,omitempty" jsonschema:"title=Color,enum=auto,enum=always,enum=never,default=auto"`
	Style     string `yaml:"style,omitempty" json:"style,omitempty" jsonschema:"title=Style,enum=solid,enum=syntax,default=solid"`
	JSON      bool   `yaml:"json,omitempty" json:"json,omitempty" jsonschema:"title=JSON,description=Write a JSON document instead of text"`
	Debug     bool   `yaml:"debug,omitempty" json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mode:  "x64",
		Color: "auto",
		Style: "solid",
	}
}

// Path picks the config file: the explicit path, else $HEXDIS_CONFIG.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(EnvConfig)
}

// Load reads the file at path over Default. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode unmarshals YAML into cfg, rejecting unknown keys.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.Validate()
}

// Validate checks the enumerated fields. Mode tokens are checked later
// against the engine's mode table.
func (c Config) Validate() error {
	if c.Verbosity < 0 {
		return fmt.Errorf("verbosity must not be negative, got %d", c.Verbosity)
	}
	if c.Color != "" && !slices.Contains([]string{"auto", "always", "never"}, c.Color) {
		return fmt.Errorf("invalid color %q", c.Color)
	}
	if c.Style != "" && !slices.Contains([]string{"solid", "syntax"}, c.Style) {
		return fmt.Errorf("invalid style %q", c.Style)
	}
	return nil
}
