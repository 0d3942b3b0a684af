package space

import (
	"context"
	"fmt"

	"github.com/vogiaan1904/spacehost/internal/filler"
	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/internal/plugins"
	"github.com/vogiaan1904/spacehost/internal/room"
)

const fallbackTitle = "Open discussion"

// StartSpace opens a space right away, ignoring the cooldown.
func (m *Manager) StartSpace(ctx context.Context) (*models.SpaceSnapshot, error) {
	m.mu.Lock()

	if m.shuttingDown {
		m.mu.Unlock()
		return nil, ErrShuttingDown
	}
	if !m.opts.EnableSessionHosting {
		m.mu.Unlock()
		return nil, ErrHostingDisabled
	}
	if err := m.startSpaceLocked(ctx); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	snap := m.Snapshot()
	return &snap, nil
}

func (m *Manager) generateSpaceConfigLocked(ctx context.Context) room.Config {
	topics := m.rt.Character().Topics
	if len(topics) == 0 {
		topics = m.filler.GenerateTopicsIfEmpty(ctx, m.rt)
	}

	title := fallbackTitle
	if len(topics) > 0 {
		title = topics[m.intn(len(topics))]
	}

	return room.Config{
		Record:      m.opts.EnableRecording,
		Mode:        room.ModeInteractive,
		Title:       title,
		Description: "Discussion about " + title,
		Languages:   []string{"en"},
	}
}

func (m *Manager) startSpaceLocked(ctx context.Context) error {
	if m.status != models.SessionStatusIdle {
		return ErrNotIdle
	}

	cfg := m.generateSpaceConfigLocked(ctx)

	m.active = nil
	m.queue = nil
	m.updateGaugesLocked()

	session := m.rooms.NewSession()
	broadcast, err := session.Initialize(ctx, cfg)
	if err != nil {
		m.status = models.SessionStatusIdle
		metricLaunchFailures.Inc()
		return fmt.Errorf("%w: %w", ErrSpaceLaunch, err)
	}

	now := m.clock.Now()
	m.status = models.SessionStatusHosting
	m.spaceID = broadcast.SessionID
	m.title = cfg.Title
	m.session = session
	m.startedAt = now
	metricSpacesStarted.Inc()

	m.l.Infof(ctx, "space.Manager.startSpace: hosting %s %q at %s", m.spaceID, cfg.Title, broadcast.ShareURL)

	m.hostSpeech = m.attachSpeechLocked(ctx, session, plugins.AttachContext{
		SessionID: m.spaceID,
		Role:      models.RoleHost,
		Runtime:   m.rt,
	})
	if m.opts.EnableIdleMonitor {
		m.attachIdleMonitorLocked(ctx, session, m.spaceID)
	}

	if m.history != nil {
		rec := models.SpaceRecord{SpaceID: m.spaceID, Title: cfg.Title, AgentID: m.rt.AgentID(), StartedAt: now}
		if err := m.history.RecordStarted(ctx, rec); err != nil {
			m.l.Warnf(ctx, "space.Manager.startSpace: record start of %s: %v", m.spaceID, err)
		}
	}

	if m.announcer != nil {
		err := m.announcer.AnnounceSpace(ctx, models.SpaceAnnouncement{
			SpaceID:   m.spaceID,
			Title:     cfg.Title,
			ShareURL:  broadcast.ShareURL,
			AgentID:   m.rt.AgentID(),
			StartedAt: now,
		})
		if err != nil {
			m.l.Warnf(ctx, "space.Manager.startSpace: announce %s: %v", m.spaceID, err)
		}
	}

	m.emitLocked(ctx, models.SpaceEvent{Type: models.SpaceEventStarted, SpaceID: m.spaceID})

	go m.pumpEvents(context.WithoutCancel(ctx), session)

	m.speakLocked(ctx, m.hostSpeech, filler.KindWelcome, 0)
	return nil
}

// pumpEvents feeds room events into the manager until the session closes
// its event channel.
func (m *Manager) pumpEvents(ctx context.Context, session room.Session) {
	for ev := range session.Events() {
		m.dispatch(ctx, session, ev)
	}
}

func (m *Manager) dispatch(ctx context.Context, session room.Session, ev room.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != session {
		return
	}

	switch ev.Type {
	case room.EventOccupancyUpdate:
		m.l.Debugf(ctx, "space.Manager.dispatch: space %s occupancy=%d speakers=%d", m.spaceID, ev.Occupancy, ev.Speakers)
	case room.EventSpeakerRequest:
		m.handleSpeakerRequestLocked(ctx, models.SpeakerRequest{
			UserID:    ev.UserID,
			RequestID: ev.RequestID,
			Username:  ev.Username,
		})
	case room.EventIdleTimeout:
		m.l.Infof(ctx, "space.Manager.dispatch: space %s idle for %dms", m.spaceID, ev.IdleMs)
		m.speakLocked(ctx, m.hostSpeech, filler.KindIdleEnding, 0)
		m.stopLocked(ctx, "idle")
	default:
		m.l.Warnf(ctx, "space.Manager.dispatch: unknown room event %q", ev.Type)
	}
}
