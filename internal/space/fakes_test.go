package space

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/spacehost/internal/agent"
	"github.com/vogiaan1904/spacehost/internal/filler"
	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/internal/plugins"
	"github.com/vogiaan1904/spacehost/internal/room"
	"github.com/vogiaan1904/spacehost/pkg/logger"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSession struct {
	mu         sync.Mutex
	id         string
	initErr    error
	stopErr    error
	infoErr    error
	approveErr map[string]error
	removeErr  map[string]error
	initCfg    room.Config
	speakers   []room.Member
	listeners  []room.Member
	approved   []string
	removed    []string
	stops      int
	infoCalls  int
	used       []plugins.Extension
	events     chan room.Event
	closeOnce  sync.Once
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{
		id:         id,
		approveErr: make(map[string]error),
		removeErr:  make(map[string]error),
		events:     make(chan room.Event, 16),
	}
}

func (s *fakeSession) Initialize(_ context.Context, cfg room.Config) (*room.Broadcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initCfg = cfg
	if s.initErr != nil {
		return nil, s.initErr
	}
	return &room.Broadcast{SessionID: s.id, ShareURL: "https://rooms.test/" + s.id}, nil
}

func (s *fakeSession) ApproveSpeaker(_ context.Context, userID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.approveErr[userID]; err != nil {
		return err
	}
	s.approved = append(s.approved, userID)
	s.speakers = append(s.speakers, room.Member{UserID: userID, Username: userID})
	return nil
}

func (s *fakeSession) RemoveSpeaker(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.removeErr[userID]; err != nil {
		return err
	}
	s.removed = append(s.removed, userID)
	s.speakers = slices.DeleteFunc(s.speakers, func(m room.Member) bool { return m.UserID == userID })
	return nil
}

func (s *fakeSession) Stop(context.Context) error {
	s.mu.Lock()
	s.stops++
	err := s.stopErr
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.events) })
	return err
}

func (s *fakeSession) GetSessionByID(context.Context, string) (*room.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infoCalls++
	if s.infoErr != nil {
		return nil, s.infoErr
	}
	return &room.Info{
		SessionID: s.id,
		Speakers:  slices.Clone(s.speakers),
		Listeners: slices.Clone(s.listeners),
	}, nil
}

func (s *fakeSession) Events() <-chan room.Event { return s.events }

func (s *fakeSession) Use(ext plugins.Extension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used = append(s.used, ext)
	return nil
}

func (s *fakeSession) setSpeakers(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakers = nil
	for _, id := range ids {
		s.speakers = append(s.speakers, room.Member{UserID: id, Username: id})
	}
}

func (s *fakeSession) setListeners(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = nil
	for _, id := range ids {
		s.listeners = append(s.listeners, room.Member{UserID: id, Username: id})
	}
}

func (s *fakeSession) usedKinds() []plugins.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kinds []plugins.Kind
	for _, ext := range s.used {
		kinds = append(kinds, ext.Kind())
	}
	return kinds
}

type fakeParticipant struct {
	mu           sync.Mutex
	joinErr      error
	requestErr   error
	becomeErr    error
	cancelErr    error
	acceptAfter  time.Duration
	joined       []string
	requestCount int
	cancels      int
	becomes      int
	leaves       int
	subscribes   int
	unsubscribes int
	handlers     map[int]func(room.RequestAccepted)
	next         int
	used         []plugins.Extension
}

func newFakeParticipant() *fakeParticipant {
	return &fakeParticipant{handlers: make(map[int]func(room.RequestAccepted))}
}

func (p *fakeParticipant) JoinAsListener(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.joinErr != nil {
		return p.joinErr
	}
	p.joined = append(p.joined, sessionID)
	return nil
}

func (p *fakeParticipant) RequestSpeaker(context.Context) (string, error) {
	p.mu.Lock()
	if p.requestErr != nil {
		p.mu.Unlock()
		return "", p.requestErr
	}
	p.requestCount++
	requestID := "req-" + string(rune('0'+p.requestCount))
	delay := p.acceptAfter
	p.mu.Unlock()

	if delay > 0 {
		go func() {
			time.Sleep(delay)
			p.waitForHandler(time.Second)
			p.accept(room.RequestAccepted{RequestID: requestID})
		}()
	}
	return requestID, nil
}

func (p *fakeParticipant) CancelSpeakerRequest(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancels++
	return p.cancelErr
}

func (p *fakeParticipant) BecomeSpeaker(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.becomes++
	return p.becomeErr
}

func (p *fakeParticipant) Leave(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leaves++
	return nil
}

func (p *fakeParticipant) OnRequestAccepted(handler func(room.RequestAccepted)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.subscribes++
	p.handlers[id] = handler
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.unsubscribes++
		delete(p.handlers, id)
	}
}

func (p *fakeParticipant) Use(ext plugins.Extension) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.used = append(p.used, ext)
	return nil
}

func (p *fakeParticipant) accept(ev room.RequestAccepted) {
	p.mu.Lock()
	var hs []func(room.RequestAccepted)
	for _, h := range p.handlers {
		hs = append(hs, h)
	}
	p.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (p *fakeParticipant) waitForHandler(limit time.Duration) {
	deadline := time.Now().Add(limit)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		n := len(p.handlers)
		p.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *fakeParticipant) counts() (subscribes, unsubscribes, cancels, becomes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subscribes, p.unsubscribes, p.cancels, p.becomes
}

type fakeRooms struct {
	mu              sync.Mutex
	sessions        []*fakeSession
	created         []*fakeSession
	participant     *fakeParticipant
	newParticipants int
}

func (f *fakeRooms) NewSession() room.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s *fakeSession
	if len(f.sessions) > 0 {
		s = f.sessions[0]
		f.sessions = f.sessions[1:]
	} else {
		s = newFakeSession("space-" + string(rune('a'+len(f.created))))
	}
	f.created = append(f.created, s)
	return s
}

func (f *fakeRooms) NewParticipant() room.Participant {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newParticipants++
	return f.participant
}

func (f *fakeRooms) last() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

type fakeFiller struct {
	mu          sync.Mutex
	kinds       []filler.Kind
	speakers    []bool
	topics      []string
	topicsCalls int
}

func (f *fakeFiller) SpeakFiller(_ context.Context, _ agent.Runtime, sp filler.Speaker, kind filler.Kind, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	f.speakers = append(f.speakers, sp != nil)
	return nil
}

func (f *fakeFiller) GenerateTopicsIfEmpty(context.Context, agent.Runtime) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topicsCalls++
	return f.topics
}

func (f *fakeFiller) spoken() []filler.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.kinds)
}

func (f *fakeFiller) count(kind filler.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

type fakeAnnouncer struct {
	mu    sync.Mutex
	calls []models.SpaceAnnouncement
	err   error
}

func (a *fakeAnnouncer) AnnounceSpace(_ context.Context, ann models.SpaceAnnouncement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, ann)
	return a.err
}

type fakeSink struct {
	mu     sync.Mutex
	events []models.SpaceEvent
}

func (s *fakeSink) OnSpaceEvent(_ context.Context, ev models.SpaceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *fakeSink) types() []models.SpaceEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SpaceEventType
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeHistory struct {
	mu      sync.Mutex
	started []models.SpaceRecord
	ended   map[string]time.Time
	last    time.Time
	err     error
}

func (h *fakeHistory) RecordStarted(_ context.Context, rec models.SpaceRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, rec)
	return h.err
}

func (h *fakeHistory) RecordEnded(_ context.Context, spaceID string, endedAt time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ended == nil {
		h.ended = make(map[string]time.Time)
	}
	h.ended[spaceID] = endedAt
	h.last = endedAt
	return h.err
}

func (h *fakeHistory) LastEndedAt(context.Context) (time.Time, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return time.Time{}, false, h.err
	}
	return h.last, !h.last.IsZero(), nil
}

type harness struct {
	m           *Manager
	clock       *fixedClock
	rooms       *fakeRooms
	participant *fakeParticipant
	filler      *fakeFiller
	announcer   *fakeAnnouncer
	sink        *fakeSink
	history     *fakeHistory
}

type harnessOption func(opts *DecisionOptions, cfg *Config, character *agent.Character, services *[]string)

func withMaxSpeakers(n int) harnessOption {
	return func(o *DecisionOptions, _ *Config, _ *agent.Character, _ *[]string) { o.MaxSpeakers = n }
}

func withOpts(fn func(o *DecisionOptions)) harnessOption {
	return func(o *DecisionOptions, _ *Config, _ *agent.Character, _ *[]string) { fn(o) }
}

func withoutServices() harnessOption {
	return func(_ *DecisionOptions, _ *Config, _ *agent.Character, s *[]string) { *s = nil }
}

func withTopics(topics ...string) harnessOption {
	return func(_ *DecisionOptions, _ *Config, c *agent.Character, _ *[]string) { c.Topics = topics }
}

func withJoinTimeout(d time.Duration) harnessOption {
	return func(_ *DecisionOptions, cfg *Config, _ *agent.Character, _ *[]string) { cfg.JoinApprovalTimeout = d }
}

func newHarness(t *testing.T, options ...harnessOption) *harness {
	t.Helper()

	opts := DefaultOptions()
	cfg := Config{IdlePollInterval: time.Minute, ManageInterval: time.Second}
	character := &agent.Character{Name: "Ada", Topics: []string{"Go generics"}}
	services := []string{"tts", "transcription"}
	for _, o := range options {
		o(&opts, &cfg, character, &services)
	}

	l := logger.InitializeTestZapLogger()
	reg := plugins.NewRegistry(l)
	require.NoError(t, plugins.RegisterBuiltins(reg, l))

	h := &harness{
		clock:       newFixedClock(),
		participant: newFakeParticipant(),
		filler:      &fakeFiller{},
		announcer:   &fakeAnnouncer{},
		sink:        &fakeSink{},
		history:     &fakeHistory{},
	}
	h.rooms = &fakeRooms{participant: h.participant}

	m, err := New(opts, cfg, Deps{
		Runtime:   agent.NewRuntime("agent-1", character, services),
		Rooms:     h.rooms,
		Filler:    h.filler,
		Plugins:   reg,
		Announcer: h.announcer,
		Sink:      h.sink,
		History:   h.history,
		Clock:     h.clock,
		Logger:    l,
	})
	require.NoError(t, err)
	h.m = m
	return h
}

// host opens a space and returns its fake session.
func (h *harness) host(t *testing.T) *fakeSession {
	t.Helper()
	_, err := h.m.StartSpace(context.Background())
	require.NoError(t, err)
	s := h.rooms.last()
	require.NotNil(t, s)
	return s
}

func (h *harness) request(s *fakeSession, userID string) {
	h.m.dispatch(context.Background(), s, room.Event{
		Type:      room.EventSpeakerRequest,
		UserID:    userID,
		RequestID: "r-" + userID,
		Username:  userID,
	})
}

func activeIDs(m *Manager) []string {
	var out []string
	for _, s := range m.Snapshot().ActiveSpeakers {
		out = append(out, s.UserID)
	}
	return out
}

func queuedIDs(m *Manager) []string {
	var out []string
	for _, r := range m.Snapshot().Queue {
		out = append(out, r.UserID)
	}
	return out
}
