package space

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/internal/plugins"
	"github.com/vogiaan1904/spacehost/internal/room"
)

// JoinSpace joins another space as a listener and then asks to speak. A nil
// result means the agent did not end up on stage; if the speaker negotiation
// failed it is still in the space as a listener.
func (m *Manager) JoinSpace(ctx context.Context, spaceID string) (*models.Participation, error) {
	if spaceID == "" {
		return nil, ErrEmptySpaceID
	}

	m.mu.Lock()
	if m.shuttingDown {
		m.mu.Unlock()
		return nil, ErrShuttingDown
	}
	if m.status != models.SessionStatusIdle {
		status := m.status
		m.mu.Unlock()
		m.l.Warnf(ctx, "space.Manager.JoinSpace: refusing to join %s while %s", spaceID, status)
		return nil, ErrNotIdle
	}

	if m.participant == nil {
		m.participant = m.rooms.NewParticipant()
	}
	p := m.participant

	if err := p.JoinAsListener(ctx, spaceID); err != nil {
		m.mu.Unlock()
		m.l.Errorf(ctx, "space.Manager.JoinSpace: join %s: %v", spaceID, err)
		return nil, fmt.Errorf("join %s as listener: %w", spaceID, err)
	}

	m.status = models.SessionStatusParticipating
	m.spaceID = spaceID
	m.startedAt = m.clock.Now()
	m.emitLocked(ctx, models.SpaceEvent{
		Type:    models.SpaceEventParticipantJoined,
		SpaceID: spaceID,
		Reason:  string(models.RoleListener),
	})
	m.mu.Unlock()

	if err := m.negotiateSpeaker(ctx, p); err != nil {
		m.l.Warnf(ctx, "space.Manager.JoinSpace: speaker negotiation in %s: %v", spaceID, err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != models.SessionStatusParticipating || m.spaceID != spaceID {
		return nil, ErrNotParticipating
	}

	m.participantSpeech = m.attachSpeechLocked(ctx, p, plugins.AttachContext{
		SessionID: spaceID,
		Role:      models.RoleSpeaker,
		Runtime:   m.rt,
	})
	m.emitLocked(ctx, models.SpaceEvent{
		Type:    models.SpaceEventParticipantJoined,
		SpaceID: spaceID,
		Reason:  string(models.RoleSpeaker),
	})
	m.l.Infof(ctx, "space.Manager.JoinSpace: speaking in %s", spaceID)

	return &models.Participation{SpaceID: spaceID, Role: models.RoleSpeaker}, nil
}

// Leave ends participation in a joined space.
func (m *Manager) Leave(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != models.SessionStatusParticipating {
		return ErrNotParticipating
	}
	m.leaveLocked(ctx)
	return nil
}

func (m *Manager) leaveLocked(ctx context.Context) {
	spaceID := m.spaceID
	if m.participant != nil {
		if err := m.participant.Leave(ctx); err != nil {
			m.l.Warnf(ctx, "space.Manager.leave: leave %s: %v", spaceID, err)
		}
	}

	m.status = models.SessionStatusIdle
	m.spaceID = ""
	m.startedAt = time.Time{}
	m.participantSpeech = nil

	m.emitLocked(ctx, models.SpaceEvent{Type: models.SpaceEventParticipantLeft, SpaceID: spaceID})
	m.l.Infof(ctx, "space.Manager.leave: left %s", spaceID)
}

func (m *Manager) negotiateSpeaker(ctx context.Context, p room.Participant) error {
	requestID, err := p.RequestSpeaker(ctx)
	if err != nil {
		return fmt.Errorf("request speaker: %w", err)
	}

	start := time.Now()
	err = waitForApproval(ctx, p, requestID, m.cfg.JoinApprovalTimeout)
	if err == nil {
		metricApprovalWait.WithLabelValues("accepted").Observe(time.Since(start).Seconds())
		return nil
	}
	metricApprovalWait.WithLabelValues("failed").Observe(time.Since(start).Seconds())

	if cerr := p.CancelSpeakerRequest(ctx); cerr != nil {
		m.l.Warnf(ctx, "space.Manager.negotiateSpeaker: cancel request %s: %v", requestID, cerr)
	}
	return err
}

// waitForApproval waits for the acceptance of requestID and then finalizes
// the promotion. The accept handler is unsubscribed exactly once whichever
// way the wait ends. A non-positive timeout means DefaultApprovalTimeout.
func waitForApproval(ctx context.Context, p room.Participant, requestID string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultApprovalTimeout
	}

	accepted := make(chan struct{})
	var settle sync.Once
	unsubscribe := p.OnRequestAccepted(func(ev room.RequestAccepted) {
		if ev.RequestID != requestID {
			return
		}
		settle.Do(func() { close(accepted) })
	})

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-accepted:
		unsubscribe()
		if err := p.BecomeSpeaker(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrSpeakerFinalize, err)
		}
		return nil
	case <-t.C:
		unsubscribe()
		return fmt.Errorf("%w: request %s after %s", ErrApprovalTimeout, requestID, timeout)
	case <-ctx.Done():
		unsubscribe()
		return ctx.Err()
	}
}
