package control

import (
	"context"
	"log/slog"
	"time"

	"github.com/opsix/opsix"
)

type (
	// SnapshotReader gives access to the latest engine state. *fm.Engine
	// implements it.
	SnapshotReader interface {
		ReadSnapshot(dst *opsix.Snapshot)
	}

	// Monitor polls snapshots on a ticker, keeps a Meter up to date and logs
	// when the engine reports dropped commands or clamped values.
	Monitor struct {
		Meter *Meter
		// OnUpdate, if not nil, is called from the monitor goroutine after
		// each poll. The snapshot and the meter must not be retained.
		OnUpdate func(*opsix.Snapshot, *Meter)

		source   SnapshotReader
		interval time.Duration
		logger   *slog.Logger

		snapshot opsix.Snapshot
		dropped  uint64
		clamped  uint64
	}
)

func NewMonitor(source SnapshotReader, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{Meter: NewMeter(), source: source, interval: interval, logger: logger}
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Poll(now.Sub(last))
			last = now
		}
	}
}

// Poll reads one snapshot and updates the meter as if elapsed had passed
// since the previous poll.
func (m *Monitor) Poll(elapsed time.Duration) {
	m.source.ReadSnapshot(&m.snapshot)
	s := &m.snapshot
	m.Meter.Update(s, elapsed)
	if s.Dropped > m.dropped {
		m.logger.Warn("engine dropped commands", "count", s.Dropped-m.dropped, "total", s.Dropped)
		m.dropped = s.Dropped
	}
	if s.Clamped > m.clamped {
		m.logger.Debug("engine clamped values", "count", s.Clamped-m.clamped, "total", s.Clamped)
		m.clamped = s.Clamped
	}
	if m.OnUpdate != nil {
		m.OnUpdate(s, m.Meter)
	}
}
