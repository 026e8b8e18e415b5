// Package cmd holds the configuration and logging setup shared by the opsix
// commands.
package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	// Config is the player configuration. Flags given on the command line
	// override the values read from the file.
	Config struct {
		SampleRate int           `yaml:"samplerate"`
		Latency    time.Duration `yaml:"latency"`
		// Preset is the name of the preset loaded at start.
		Preset string       `yaml:"preset,omitempty"`
		MIDI   MIDIConfig   `yaml:"midi"`
		Serial SerialConfig `yaml:"serial"`
		// MeterInterval is how often the meters are refreshed.
		MeterInterval time.Duration `yaml:"meterinterval"`
	}

	MIDIConfig struct {
		// Input is a prefix of the input port name. An empty input disables
		// MIDI.
		Input   string `yaml:"input,omitempty"`
		Channel int    `yaml:"channel"` // 0-15, or -1 for omni
	}

	SerialConfig struct {
		Port string `yaml:"port,omitempty"`
		Baud int    `yaml:"baud"`
	}
)

var ErrConfigNotFound = errors.New("config file not found")

func DefaultConfig() Config {
	return Config{
		SampleRate:    48000,
		Latency:       20 * time.Millisecond,
		MIDI:          MIDIConfig{Channel: -1},
		Serial:        SerialConfig{Baud: 115200},
		MeterInterval: 50 * time.Millisecond,
	}
}

// LoadConfig reads the file on top of the default configuration. Fields
// missing from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return cfg, fmt.Errorf("cannot read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample rate %d out of range 8000..192000", c.SampleRate)
	}
	if c.MIDI.Channel < -1 || c.MIDI.Channel > 15 {
		return fmt.Errorf("midi channel %d out of range -1..15", c.MIDI.Channel)
	}
	if c.Latency < 0 || c.MeterInterval <= 0 {
		return errors.New("latency and meter interval must be positive")
	}
	return nil
}
