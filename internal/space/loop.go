package space

import (
	"context"
	"time"

	"github.com/vogiaan1904/spacehost/internal/models"
)

// Run drives the control loop until ctx is done. The first tick fires
// immediately; each tick picks the delay before the next one.
func (m *Manager) Run(ctx context.Context) error {
	t := time.NewTimer(0)
	defer t.Stop()

	m.l.Infof(ctx, "space.Manager.Run: control loop started (max_speakers=%d hosting=%t)",
		m.opts.MaxSpeakers, m.opts.EnableSessionHosting)

	for {
		select {
		case <-ctx.Done():
			m.l.Info(ctx, "space.Manager.Run: control loop stopped")
			return nil
		case <-t.C:
			t.Reset(m.tick(ctx))
		}
	}
}

func (m *Manager) tick(ctx context.Context) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case models.SessionStatusIdle:
		if m.shuttingDown || !m.opts.EnableSessionHosting {
			break
		}
		if !m.shouldLaunchLocked() {
			m.l.Debug(ctx, "space.Manager.tick: cooldown active, staying idle")
			break
		}
		if err := m.startSpaceLocked(ctx); err != nil {
			m.l.Errorf(ctx, "space.Manager.tick: %v", err)
		}
	case models.SessionStatusHosting:
		m.manageLocked(ctx)
	}

	if m.status == models.SessionStatusIdle {
		return m.cfg.IdlePollInterval
	}
	return m.cfg.ManageInterval
}

func (m *Manager) shouldLaunchLocked() bool {
	if m.lastSessionEndedAt.IsZero() {
		return true
	}
	return m.clock.Now().Sub(m.lastSessionEndedAt) >= m.opts.MinIntervalBetweenSessions()
}
