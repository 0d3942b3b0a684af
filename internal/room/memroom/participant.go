package memroom

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vogiaan1904/spacehost/internal/plugins"
	"github.com/vogiaan1904/spacehost/internal/room"
)

type Participant struct {
	hub      *Hub
	userID   string
	username string

	mu        sync.Mutex
	session   *Session
	requestID string
	approved  bool
	unclaimed *room.RequestAccepted
	handlers  map[int]func(room.RequestAccepted)
	nextID    int
	exts      []plugins.Extension
}

func newParticipant(h *Hub) *Participant {
	id := uuid.NewString()
	return &Participant{
		hub:      h,
		userID:   id,
		username: "agent-" + id[:8],
		handlers: make(map[int]func(room.RequestAccepted)),
	}
}

func (p *Participant) UserID() string { return p.userID }

func (p *Participant) JoinAsListener(ctx context.Context, sessionID string) error {
	s, err := p.hub.Lookup(sessionID)
	if err != nil {
		return err
	}
	if err := s.join(p); err != nil {
		return fmt.Errorf("join %s: %w", sessionID, err)
	}

	p.mu.Lock()
	p.session = s
	p.requestID = ""
	p.approved = false
	p.mu.Unlock()

	p.hub.l.Infof(ctx, "memroom.Participant.JoinAsListener: user=%s session=%s", p.userID, sessionID)
	return nil
}

func (p *Participant) RequestSpeaker(ctx context.Context) (string, error) {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s == nil {
		return "", ErrNotJoined
	}

	requestID := uuid.NewString()

	p.mu.Lock()
	p.requestID = requestID
	p.approved = false
	p.unclaimed = nil
	p.mu.Unlock()

	s.requestSpeaker(p.userID, p.username, requestID)
	return requestID, nil
}

func (p *Participant) CancelSpeakerRequest(ctx context.Context) error {
	p.mu.Lock()
	s := p.session
	p.requestID = ""
	p.mu.Unlock()

	if s == nil {
		return ErrNotJoined
	}
	s.cancelRequest(p.userID)
	return nil
}

func (p *Participant) BecomeSpeaker(ctx context.Context) error {
	p.mu.Lock()
	s := p.session
	approved := p.approved
	p.mu.Unlock()

	if s == nil {
		return ErrNotJoined
	}
	if !approved || !s.isSpeaker(p.userID) {
		return ErrNotApproved
	}
	return nil
}

func (p *Participant) Leave(ctx context.Context) error {
	p.mu.Lock()
	s := p.session
	p.session = nil
	p.requestID = ""
	p.approved = false
	p.unclaimed = nil
	p.exts = nil
	p.mu.Unlock()

	if s == nil {
		return ErrNotJoined
	}
	s.leave(p.userID)
	return nil
}

func (p *Participant) OnRequestAccepted(handler func(room.RequestAccepted)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = handler
	pending := p.unclaimed
	p.unclaimed = nil
	p.mu.Unlock()

	// An acceptance that arrived before anyone subscribed is replayed once.
	if pending != nil {
		go handler(*pending)
	}

	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		p.mu.Unlock()
	}
}

func (p *Participant) Use(ext plugins.Extension) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return ErrNotJoined
	}
	p.exts = append(p.exts, ext)
	return nil
}

// Handlers reports how many accept handlers are registered.
func (p *Participant) Handlers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

func (p *Participant) notifyAccepted(ev room.RequestAccepted) {
	p.mu.Lock()
	if ev.RequestID == p.requestID {
		p.approved = true
	}
	handlers := make([]func(room.RequestAccepted), 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	if len(handlers) == 0 {
		p.unclaimed = &ev
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

var _ room.Participant = (*Participant)(nil)
