package memroom

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/spacehost/internal/plugins"
	"github.com/vogiaan1904/spacehost/internal/room"
)

type pendingRequest struct {
	RequestID string
	Username  string
}

type Session struct {
	hub *Hub

	mu           sync.Mutex
	id           string
	cfg          room.Config
	running      bool
	stopped      bool
	speakers     []room.Member
	listeners    []room.Member
	pending      map[string]pendingRequest
	participants map[string]*Participant
	exts         []plugins.Extension
	lastActivity time.Time
	events       chan room.Event
	done         chan struct{}
}

func newSession(h *Hub) *Session {
	return &Session{
		hub:          h,
		pending:      make(map[string]pendingRequest),
		participants: make(map[string]*Participant),
		events:       make(chan room.Event, eventBuffer),
		done:         make(chan struct{}),
	}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Initialize(ctx context.Context, cfg room.Config) (*room.Broadcast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return nil, ErrAlreadyInitialized
	}
	s.id = uuid.NewString()
	s.cfg = cfg
	s.running = true
	s.lastActivity = time.Now()
	monitors := s.idleMonitorsLocked()
	s.mu.Unlock()

	s.hub.add(s)
	for _, m := range monitors {
		go s.watchIdle(m)
	}

	s.hub.l.Infof(ctx, "memroom.Session.Initialize: session=%s title=%q record=%t", s.id, cfg.Title, cfg.Record)

	return &room.Broadcast{SessionID: s.id, ShareURL: s.hub.shareURL(s.id)}, nil
}

func (s *Session) ApproveSpeaker(ctx context.Context, userID, requestID string) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotInitialized
	}

	req, ok := s.pending[userID]
	if !ok || req.RequestID != requestID {
		s.mu.Unlock()
		return fmt.Errorf("%w: user=%s request=%s", ErrUnknownRequest, userID, requestID)
	}
	delete(s.pending, userID)

	s.listeners = removeMember(s.listeners, userID)
	s.speakers = append(s.speakers, room.Member{UserID: userID, Username: req.Username})
	s.lastActivity = time.Now()
	p := s.participants[userID]
	sessionID := s.id
	s.mu.Unlock()

	if p != nil {
		p.notifyAccepted(room.RequestAccepted{SessionID: sessionID, RequestID: requestID})
	}
	return nil
}

func (s *Session) RemoveSpeaker(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotInitialized
	}

	idx := slices.IndexFunc(s.speakers, func(m room.Member) bool { return m.UserID == userID })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotSpeaker, userID)
	}

	m := s.speakers[idx]
	s.speakers = slices.Delete(s.speakers, idx, idx+1)
	s.listeners = append(s.listeners, m)
	return nil
}

func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	wasRunning := s.running
	s.running = false
	s.stopped = true
	close(s.done)
	close(s.events)
	s.exts = nil
	id := s.id
	s.mu.Unlock()

	if wasRunning {
		s.hub.remove(id)
		s.hub.l.Infof(ctx, "memroom.Session.Stop: session=%s", id)
	}
	return nil
}

func (s *Session) GetSessionByID(ctx context.Context, sessionID string) (*room.Info, error) {
	target, err := s.hub.Lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return target.info(), nil
}

func (s *Session) Events() <-chan room.Event {
	return s.events
}

func (s *Session) Use(ext plugins.Extension) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.exts = append(s.exts, ext)
	running := s.running
	s.mu.Unlock()

	if m, ok := ext.(plugins.IdleMonitor); ok && running {
		go s.watchIdle(m)
	}
	return nil
}

// Extensions returns the extensions currently attached.
func (s *Session) Extensions() []plugins.Extension {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.exts)
}

// AddListener puts a user in the audience.
func (s *Session) AddListener(userID, username string) {
	s.mu.Lock()
	s.listeners = append(s.listeners, room.Member{UserID: userID, Username: username})
	s.lastActivity = time.Now()
	n := len(s.listeners) + len(s.speakers)
	sp := len(s.speakers)
	s.mu.Unlock()

	s.emit(room.Event{Type: room.EventOccupancyUpdate, Occupancy: n, Speakers: sp})
}

// AddSpeaker puts a user directly on stage, bypassing the request flow.
func (s *Session) AddSpeaker(userID, username string) {
	s.mu.Lock()
	s.speakers = append(s.speakers, room.Member{UserID: userID, Username: username})
	s.mu.Unlock()
}

// SimulateSpeakerRequest raises a speaker request from userID and returns its id.
func (s *Session) SimulateSpeakerRequest(userID, username string) string {
	requestID := uuid.NewString()
	s.requestSpeaker(userID, username, requestID)
	return requestID
}

func (s *Session) requestSpeaker(userID, username, requestID string) {
	s.mu.Lock()
	s.pending[userID] = pendingRequest{RequestID: requestID, Username: username}
	s.lastActivity = time.Now()
	s.mu.Unlock()

	s.emit(room.Event{Type: room.EventSpeakerRequest, UserID: userID, RequestID: requestID, Username: username})
}

func (s *Session) cancelRequest(userID string) {
	s.mu.Lock()
	delete(s.pending, userID)
	s.mu.Unlock()
}

func (s *Session) join(p *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotInitialized
	}
	s.participants[p.userID] = p
	s.listeners = append(s.listeners, room.Member{UserID: p.userID, Username: p.username})
	s.lastActivity = time.Now()
	return nil
}

func (s *Session) leave(userID string) {
	s.mu.Lock()
	delete(s.participants, userID)
	delete(s.pending, userID)
	s.listeners = removeMember(s.listeners, userID)
	s.speakers = removeMember(s.speakers, userID)
	s.mu.Unlock()
}

func (s *Session) isSpeaker(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.speakers, func(m room.Member) bool { return m.UserID == userID })
}

func (s *Session) info() *room.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &room.Info{
		SessionID: s.id,
		Speakers:  slices.Clone(s.speakers),
		Listeners: slices.Clone(s.listeners),
	}
}

func (s *Session) emit(ev room.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.hub.l.Warnf(context.Background(), "memroom.Session.emit: dropping %s event for session %s", ev.Type, s.id)
	}
}

func (s *Session) idleMonitorsLocked() []plugins.IdleMonitor {
	var out []plugins.IdleMonitor
	for _, ext := range s.exts {
		if m, ok := ext.(plugins.IdleMonitor); ok {
			out = append(out, m)
		}
	}
	return out
}

func (s *Session) watchIdle(m plugins.IdleMonitor) {
	ticker := time.NewTicker(m.CheckInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			idle := now.Sub(s.lastActivity)
			fire := idle >= m.Timeout()
			if fire {
				s.lastActivity = now
			}
			s.mu.Unlock()

			if fire {
				s.emit(room.Event{Type: room.EventIdleTimeout, IdleMs: idle.Milliseconds()})
			}
		}
	}
}

func removeMember(members []room.Member, userID string) []room.Member {
	return slices.DeleteFunc(members, func(m room.Member) bool { return m.UserID == userID })
}

var _ room.Session = (*Session)(nil)
