package polysine

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Config holds the settings shared by the command line tools. The defaults
// come from the embedded config.yml and can be overridden by a config.yml in
// the user config directory.
type Config struct {
	SampleRate int
	BlockSize  int
	Channels   int
	Smooth     float64
	Gain       float64
	// MIDIInput is the name prefix of the MIDI input to open; empty opens
	// the first input available.
	MIDIInput string `yaml:",omitempty"`
}

//go:embed config.yml
var defaultConfigYaml []byte

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	var config Config
	err := yaml.UnmarshalStrict(defaultConfigYaml, &config)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return config
}

// LoadConfig returns the defaults overridden by <UserConfigDir>/polysine/config.yml,
// if such a file exists.
func LoadConfig() (Config, error) {
	config := DefaultConfig()
	configDir, err := os.UserConfigDir()
	if err != nil {
		return config, nil
	}
	path := filepath.Join(configDir, "polysine", "config.yml")
	if err := config.ReadFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, err
	}
	return config, nil
}

// ReadFile overrides the fields of the config found in the given yml file.
func (c *Config) ReadFile(path string) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(bytes, c); err != nil {
		return fmt.Errorf("could not parse config %v: %w", path, err)
	}
	return nil
}

// Params returns the parameter values of the config.
func (c Config) Params() Params {
	return Params{Smooth: c.Smooth, Gain: c.Gain}
}

// Validate checks that the config values are usable.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %v", c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("invalid block size %v", c.BlockSize)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid number of channels %v", c.Channels)
	}
	if c.Smooth <= 0 || c.Smooth > 1 {
		return fmt.Errorf("smooth should be in (0, 1], was %v", c.Smooth)
	}
	if c.Gain < 0 || c.Gain > 1 {
		return fmt.Errorf("gain should be in [0, 1], was %v", c.Gain)
	}
	return nil
}
