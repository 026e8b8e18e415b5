package control_test

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/opsix/opsix"
	"github.com/opsix/opsix/control"
)

func TestMeterFollowsLevels(t *testing.T) {
	m := control.NewMeter()
	var s opsix.Snapshot
	s.Voices[3].Level = 0.5
	for i := 0; i < 100; i++ {
		m.Update(&s, 100*time.Millisecond)
	}
	want := 20 * math.Log10(0.5)
	if math.Abs(m.Voices[3]-want) > 0.01 {
		t.Fatalf("voice 3 level %v dB, want %v dB", m.Voices[3], want)
	}
	if m.Voices[0] != m.Min {
		t.Fatalf("silent voice should stay at the minimum, got %v", m.Voices[0])
	}
	if math.Abs(m.Master-want) > 0.01 {
		t.Fatalf("master level %v dB, want %v dB", m.Master, want)
	}
	if i, level := m.Loudest(); i != 3 || level != m.Voices[3] {
		t.Fatalf("loudest voice %d at %v", i, level)
	}
}

func TestMeterAttackAndRelease(t *testing.T) {
	m := control.NewMeter()
	m.Attack, m.Release = 0.01, 1
	var s opsix.Snapshot
	s.Voices[0].Level = 1
	m.Update(&s, 50*time.Millisecond)
	if m.Voices[0] < -1 {
		t.Fatalf("fast attack should almost reach 0 dB, got %v", m.Voices[0])
	}
	s.Voices[0].Level = 0
	m.Update(&s, 50*time.Millisecond)
	if m.Voices[0] < -5 {
		t.Fatalf("slow release should fall slowly, got %v", m.Voices[0])
	}
}

func TestMeterIgnoresNaN(t *testing.T) {
	m := control.NewMeter()
	var s opsix.Snapshot
	s.Voices[0].Level = float32(math.NaN())
	m.Update(&s, 10*time.Millisecond)
	if math.IsNaN(m.Voices[0]) || math.IsNaN(m.Master) {
		t.Fatal("NaN leaked into the meter")
	}
}

type fixedSnapshot opsix.Snapshot

func (f *fixedSnapshot) ReadSnapshot(dst *opsix.Snapshot) {
	*dst = opsix.Snapshot(*f)
}

func TestMonitorLogsDrops(t *testing.T) {
	var log bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&log, nil))
	src := &fixedSnapshot{}
	m := control.NewMonitor(src, time.Millisecond, logger)
	updates := 0
	m.OnUpdate = func(*opsix.Snapshot, *control.Meter) { updates++ }
	m.Poll(time.Millisecond)
	if log.Len() != 0 {
		t.Fatalf("nothing should be logged without drops: %s", log.String())
	}
	src.Dropped = 3
	m.Poll(time.Millisecond)
	m.Poll(time.Millisecond)
	if n := strings.Count(log.String(), "engine dropped commands"); n != 1 {
		t.Fatalf("expected one warning, got %d:\n%s", n, log.String())
	}
	if !strings.Contains(log.String(), "count=3") {
		t.Fatalf("warning should include the count:\n%s", log.String())
	}
	if updates != 3 {
		t.Fatalf("expected 3 updates, got %d", updates)
	}
}
