package space

import (
	"context"
	"slices"
	"time"

	"github.com/vogiaan1904/spacehost/internal/filler"
	"github.com/vogiaan1904/spacehost/internal/models"
)

// ManageCurrentSession runs one management pass over the hosted space.
func (m *Manager) ManageCurrentSession(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != models.SessionStatusHosting {
		return
	}
	m.manageLocked(ctx)
}

// manageLocked evicts, backfills, trims and finally considers closing. A
// failing step never prevents the next one from running.
func (m *Manager) manageLocked(ctx context.Context) {
	if m.session == nil {
		return
	}

	m.evictExpiredLocked(ctx)
	m.admitFromQueueLocked(ctx)
	m.trimCapacityLocked(ctx)
	m.autoCloseLocked(ctx)
}

func (m *Manager) isKnownLocked(userID string) bool {
	match := func(id string) bool { return id == userID }
	return slices.ContainsFunc(m.active, func(s models.ActiveSpeaker) bool { return match(s.UserID) }) ||
		slices.ContainsFunc(m.queue, func(r models.SpeakerRequest) bool { return match(r.UserID) })
}

func (m *Manager) handleSpeakerRequestLocked(ctx context.Context, req models.SpeakerRequest) {
	if m.isKnownLocked(req.UserID) {
		m.l.Debugf(ctx, "space.Manager.handleSpeakerRequest: %s already active or queued", req.UserID)
		return
	}

	speakers := len(m.active)
	info, err := m.session.GetSessionByID(ctx, m.spaceID)
	if err != nil {
		m.l.Warnf(ctx, "space.Manager.handleSpeakerRequest: read space %s: %v", m.spaceID, err)
	} else if len(info.Speakers) > speakers {
		speakers = len(info.Speakers)
	}

	if speakers < m.opts.MaxSpeakers {
		m.admitLocked(ctx, req)
		return
	}

	m.queue = append(m.queue, req)
	m.updateGaugesLocked()
	metricSpeakersQueued.Inc()
	m.emitLocked(ctx, models.SpaceEvent{
		Type:     models.SpaceEventSpeakerQueued,
		SpaceID:  m.spaceID,
		UserID:   req.UserID,
		Username: req.Username,
	})
	m.l.Infof(ctx, "space.Manager.handleSpeakerRequest: queued %s (position %d)", req.Username, len(m.queue))
}

// admitLocked approves a request. A request the room refuses is dropped.
func (m *Manager) admitLocked(ctx context.Context, req models.SpeakerRequest) bool {
	m.speakLocked(ctx, m.hostSpeech, filler.KindPreAccept, 0)

	if err := m.session.ApproveSpeaker(ctx, req.UserID, req.RequestID); err != nil {
		m.l.Errorf(ctx, "space.Manager.admit: approve %s in %s: %v", req.UserID, m.spaceID, err)
		return false
	}

	m.active = append(m.active, models.ActiveSpeaker{
		UserID:    req.UserID,
		RequestID: req.RequestID,
		Username:  req.Username,
		StartTime: m.clock.Now(),
	})
	m.updateGaugesLocked()
	metricSpeakersAdmitted.Inc()
	m.emitLocked(ctx, models.SpaceEvent{
		Type:     models.SpaceEventSpeakerAdmitted,
		SpaceID:  m.spaceID,
		UserID:   req.UserID,
		Username: req.Username,
	})
	m.l.Infof(ctx, "space.Manager.admit: %s is now speaking in %s", req.Username, m.spaceID)
	return true
}

func (m *Manager) admitFromQueueLocked(ctx context.Context) {
	for len(m.queue) > 0 && len(m.active) < m.opts.MaxSpeakers {
		next := m.queue[0]
		m.queue = m.queue[1:]
		m.updateGaugesLocked()
		m.admitLocked(ctx, next)
	}
}

func (m *Manager) evictExpiredLocked(ctx context.Context) {
	now := m.clock.Now()
	limit := m.opts.SpeakerMaxDuration()

	for i := len(m.active) - 1; i >= 0; i-- {
		sp := m.active[i]
		if now.Sub(sp.StartTime) <= limit {
			continue
		}

		// The slot is freed even if the room refuses; a speaker who already
		// left would otherwise hold it forever.
		if err := m.session.RemoveSpeaker(ctx, sp.UserID); err != nil {
			m.l.Errorf(ctx, "space.Manager.evictExpired: remove %s from %s: %v", sp.UserID, m.spaceID, err)
		}

		m.active = slices.Delete(m.active, i, i+1)
		m.updateGaugesLocked()
		m.speakerRemovedLocked(ctx, sp.UserID, sp.Username, "duration")
		m.speakLocked(ctx, m.hostSpeech, filler.KindSpeakerLeft, 0)
	}
}

// trimCapacityLocked keeps the first MaxSpeakers speakers in room order and
// removes the rest.
func (m *Manager) trimCapacityLocked(ctx context.Context) {
	info, err := m.session.GetSessionByID(ctx, m.spaceID)
	if err != nil {
		m.l.Errorf(ctx, "space.Manager.trimCapacity: read space %s: %v", m.spaceID, err)
		return
	}
	if len(info.Speakers) <= m.opts.MaxSpeakers {
		return
	}

	for _, extra := range info.Speakers[m.opts.MaxSpeakers:] {
		if err := m.session.RemoveSpeaker(ctx, extra.UserID); err != nil {
			m.l.Errorf(ctx, "space.Manager.trimCapacity: remove %s from %s: %v", extra.UserID, m.spaceID, err)
			continue
		}

		m.active = slices.DeleteFunc(m.active, func(s models.ActiveSpeaker) bool { return s.UserID == extra.UserID })
		m.updateGaugesLocked()
		m.speakerRemovedLocked(ctx, extra.UserID, extra.Username, "capacity")
	}
}

func (m *Manager) autoCloseLocked(ctx context.Context) {
	elapsed := m.clock.Now().Sub(m.startedAt)

	reason := ""
	switch {
	case elapsed > m.opts.TypicalDuration():
		reason = "duration"
	case elapsed > EmptySpaceGracePeriod:
		info, err := m.session.GetSessionByID(ctx, m.spaceID)
		if err != nil {
			m.l.Errorf(ctx, "space.Manager.autoClose: read space %s: %v", m.spaceID, err)
			return
		}
		if len(info.Speakers) == 0 && len(info.Listeners) == 0 {
			reason = "empty"
		}
	}

	if reason == "" {
		return
	}

	m.l.Infof(ctx, "space.Manager.autoClose: closing %s after %s (%s)", m.spaceID, elapsed.Round(time.Second), reason)
	m.speakLocked(ctx, m.hostSpeech, filler.KindClosing, m.cfg.ClosingDelay)
	m.stopLocked(ctx, reason)
}

func (m *Manager) speakerRemovedLocked(ctx context.Context, userID, username, reason string) {
	metricSpeakersRemoved.WithLabelValues(reason).Inc()
	m.emitLocked(ctx, models.SpaceEvent{
		Type:     models.SpaceEventSpeakerRemoved,
		SpaceID:  m.spaceID,
		UserID:   userID,
		Username: username,
		Reason:   reason,
	})
}
