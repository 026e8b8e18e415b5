package cmd_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opsix/opsix/cmd"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opsix.yml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	cfg, err := cmd.LoadConfig(writeConfig(t, "samplerate: 44100\nlatency: 40ms\nmidi:\n  input: Launchkey\n  channel: 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SampleRate != 44100 || cfg.Latency != 40*time.Millisecond {
		t.Fatalf("unexpected audio settings %+v", cfg)
	}
	if cfg.MIDI.Input != "Launchkey" || cfg.MIDI.Channel != 2 {
		t.Fatalf("unexpected midi settings %+v", cfg.MIDI)
	}
	if cfg.Serial.Baud != 115200 || cfg.MeterInterval != 50*time.Millisecond {
		t.Fatalf("missing fields should keep their defaults, got %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := cmd.LoadConfig(filepath.Join(t.TempDir(), "missing.yml")); !errors.Is(err, cmd.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
	for name, data := range map[string]string{
		"unknown field": "samplerte: 48000\n",
		"sample rate":   "samplerate: 100\n",
		"channel":       "midi: {channel: 16}\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := cmd.LoadConfig(writeConfig(t, data)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := cmd.NewLogger(&buf, "warn")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "count", 3)
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "count=3") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
	if _, err := cmd.NewLogger(&buf, "loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
