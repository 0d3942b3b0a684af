package space

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/vogiaan1904/spacehost/internal/agent"
	"github.com/vogiaan1904/spacehost/internal/filler"
	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/internal/plugins"
	"github.com/vogiaan1904/spacehost/internal/room"
	"github.com/vogiaan1904/spacehost/pkg/logger"
)

const (
	DefaultIdlePollInterval    = 5 * time.Minute
	DefaultManageInterval      = 5 * time.Second
	DefaultApprovalTimeout     = 10 * time.Second
	DefaultJoinApprovalTimeout = 15 * time.Second
	DefaultClosingDelay        = 3 * time.Second
	IdleMonitorCheckInterval   = 10 * time.Second
	EmptySpaceGracePeriod      = 5 * time.Minute
)

// Config tunes the control loop. Zero values fall back to the defaults above.
type Config struct {
	IdlePollInterval    time.Duration
	ManageInterval      time.Duration
	JoinApprovalTimeout time.Duration
	ClosingDelay        time.Duration
	SpeechPlugin        string
	IdleMonitorPlugin   string
}

func (c Config) withDefaults() Config {
	if c.IdlePollInterval <= 0 {
		c.IdlePollInterval = DefaultIdlePollInterval
	}
	if c.ManageInterval <= 0 {
		c.ManageInterval = DefaultManageInterval
	}
	if c.JoinApprovalTimeout <= 0 {
		c.JoinApprovalTimeout = DefaultJoinApprovalTimeout
	}
	if c.ClosingDelay <= 0 {
		c.ClosingDelay = DefaultClosingDelay
	}
	if c.SpeechPlugin == "" {
		c.SpeechPlugin = plugins.SpeechLog
	}
	if c.IdleMonitorPlugin == "" {
		c.IdleMonitorPlugin = plugins.IdleMonitorTimer
	}
	return c
}

// Deps are the collaborators a Manager drives. Announcer, Sink, History and
// Clock are optional.
type Deps struct {
	Runtime   agent.Runtime
	Rooms     room.Factory
	Filler    filler.Helper
	Plugins   *plugins.Registry
	Announcer Announcer
	Sink      EventSink
	History   HistoryStore
	Clock     Clock
	Logger    logger.Logger
}

// Manager owns the agent's single space session, hosted or joined. Every
// state change happens under mu.
type Manager struct {
	l         logger.Logger
	rt        agent.Runtime
	opts      DecisionOptions
	cfg       Config
	rooms     room.Factory
	filler    filler.Helper
	plugins   *plugins.Registry
	announcer Announcer
	sink      EventSink
	history   HistoryStore
	clock     Clock
	intn      func(n int) int

	mu                 sync.Mutex
	status             models.SessionStatus
	spaceID            string
	title              string
	session            room.Session
	startedAt          time.Time
	lastSessionEndedAt time.Time
	active             []models.ActiveSpeaker
	queue              []models.SpeakerRequest
	hostSpeech         plugins.SpeechPipeline
	participant        room.Participant
	participantSpeech  plugins.SpeechPipeline
	shuttingDown       bool
}

func New(opts DecisionOptions, cfg Config, deps Deps) (*Manager, error) {
	if deps.Runtime == nil || deps.Rooms == nil || deps.Filler == nil || deps.Plugins == nil || deps.Logger == nil {
		return nil, errors.New("space.New: runtime, rooms, filler, plugins and logger are required")
	}
	if opts.MaxSpeakers < 1 {
		opts.MaxSpeakers = DefaultMaxSpeakers
	}

	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	return &Manager{
		l:         deps.Logger,
		rt:        deps.Runtime,
		opts:      opts,
		cfg:       cfg.withDefaults(),
		rooms:     deps.Rooms,
		filler:    deps.Filler,
		plugins:   deps.Plugins,
		announcer: deps.Announcer,
		sink:      deps.Sink,
		history:   deps.History,
		clock:     clock,
		intn:      rand.IntN,
		status:    models.SessionStatusIdle,
	}, nil
}

func (m *Manager) Options() DecisionOptions { return m.opts }

// Restore loads the last session end time from history so the cooldown
// carries across restarts.
func (m *Manager) Restore(ctx context.Context) error {
	if m.history == nil {
		return nil
	}

	endedAt, ok, err := m.history.LastEndedAt(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	m.mu.Lock()
	if endedAt.After(m.lastSessionEndedAt) {
		m.lastSessionEndedAt = endedAt
	}
	m.mu.Unlock()

	m.l.Infof(ctx, "space.Manager.Restore: last session ended at %s", endedAt.Format(time.RFC3339))
	return nil
}

func (m *Manager) Status() models.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) Snapshot() models.SpaceSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := models.SpaceSnapshot{
		Status:         m.status,
		SpaceID:        m.spaceID,
		ActiveSpeakers: slices.Clone(m.active),
		Queue:          slices.Clone(m.queue),
	}
	if snap.ActiveSpeakers == nil {
		snap.ActiveSpeakers = []models.ActiveSpeaker{}
	}
	if snap.Queue == nil {
		snap.Queue = []models.SpeakerRequest{}
	}
	if !m.startedAt.IsZero() {
		t := m.startedAt
		snap.StartedAt = &t
	}
	if !m.lastSessionEndedAt.IsZero() {
		t := m.lastSessionEndedAt
		snap.LastSessionEndedAt = &t
	}
	return snap
}

// Stop closes the hosted space. It is a no-op when nothing is hosted.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(ctx, "manual")
}

// RequestShutdown closes or leaves whatever space is active and stops the
// loop from opening new ones. Calls after the first are no-ops.
func (m *Manager) RequestShutdown(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shuttingDown {
		return
	}
	m.shuttingDown = true

	switch m.status {
	case models.SessionStatusHosting:
		m.speakLocked(ctx, m.hostSpeech, filler.KindClosing, 0)
		m.stopLocked(ctx, "shutdown")
	case models.SessionStatusParticipating:
		m.leaveLocked(ctx)
	}

	m.l.Info(ctx, "space.Manager.RequestShutdown: space manager shut down")
}

func (m *Manager) stopLocked(ctx context.Context, reason string) {
	if m.status == models.SessionStatusIdle || m.session == nil {
		return
	}

	session := m.session
	spaceID := m.spaceID

	if err := session.Stop(ctx); err != nil {
		m.l.Errorf(ctx, "space.Manager.stop: close space %s: %v", spaceID, err)
	}

	now := m.clock.Now()
	m.status = models.SessionStatusIdle
	m.spaceID = ""
	m.title = ""
	m.session = nil
	m.startedAt = time.Time{}
	m.hostSpeech = nil
	m.lastSessionEndedAt = now
	m.active = nil
	m.queue = nil
	m.updateGaugesLocked()

	if m.history != nil {
		if err := m.history.RecordEnded(ctx, spaceID, now); err != nil {
			m.l.Warnf(ctx, "space.Manager.stop: record end of %s: %v", spaceID, err)
		}
	}

	metricSpacesStopped.WithLabelValues(reason).Inc()
	m.emitLocked(ctx, models.SpaceEvent{Type: models.SpaceEventStopped, SpaceID: spaceID, Reason: reason})
	m.l.Infof(ctx, "space.Manager.stop: space %s stopped (%s)", spaceID, reason)
}

func (m *Manager) speakLocked(ctx context.Context, sp plugins.SpeechPipeline, kind filler.Kind, delay time.Duration) {
	var speaker filler.Speaker
	if sp != nil {
		speaker = sp
	}
	if err := m.filler.SpeakFiller(ctx, m.rt, speaker, kind, delay); err != nil {
		m.l.Warnf(ctx, "space.Manager.speak: %s filler: %v", kind, err)
	}
}

func (m *Manager) emitLocked(ctx context.Context, ev models.SpaceEvent) {
	if m.sink == nil {
		return
	}
	ev.AgentID = m.rt.AgentID()
	ev.Status = m.status
	if ev.Timestamp.IsZero() {
		ev.Timestamp = m.clock.Now()
	}
	m.sink.OnSpaceEvent(ctx, ev)
}

func (m *Manager) updateGaugesLocked() {
	metricActiveSpeakers.Set(float64(len(m.active)))
	metricQueueLength.Set(float64(len(m.queue)))
}

type extensionTarget interface {
	Use(ext plugins.Extension) error
}

// attachSpeechLocked returns nil unless the runtime can both speak and listen.
func (m *Manager) attachSpeechLocked(ctx context.Context, target extensionTarget, ac plugins.AttachContext) plugins.SpeechPipeline {
	if !m.rt.HasService(agent.ServiceTTS) || !m.rt.HasService(agent.ServiceTranscription) {
		return nil
	}

	ext, err := m.plugins.Build(plugins.KindSpeech, m.cfg.SpeechPlugin, ac)
	if err != nil {
		m.l.Warnf(ctx, "space.Manager.attachSpeech: %v", err)
		return nil
	}
	sp, ok := ext.(plugins.SpeechPipeline)
	if !ok {
		m.l.Warnf(ctx, "space.Manager.attachSpeech: plugin %s is not a speech pipeline", ext.Name())
		return nil
	}
	if err := target.Use(sp); err != nil {
		m.l.Warnf(ctx, "space.Manager.attachSpeech: attach to %s: %v", ac.SessionID, err)
		return nil
	}
	return sp
}

func (m *Manager) attachIdleMonitorLocked(ctx context.Context, target extensionTarget, sessionID string) {
	ext, err := m.plugins.Build(plugins.KindIdleMonitor, m.cfg.IdleMonitorPlugin, plugins.AttachContext{
		SessionID:     sessionID,
		Role:          models.RoleHost,
		Runtime:       m.rt,
		IdleTimeout:   m.opts.IdleKickTimeout(),
		CheckInterval: IdleMonitorCheckInterval,
	})
	if err != nil {
		m.l.Warnf(ctx, "space.Manager.attachIdleMonitor: %v", err)
		return
	}
	if err := target.Use(ext); err != nil {
		m.l.Warnf(ctx, "space.Manager.attachIdleMonitor: attach to %s: %v", sessionID, err)
	}
}
