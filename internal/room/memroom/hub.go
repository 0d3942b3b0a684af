// Package memroom is an in-process room backend. Hosted sessions and
// participants created from the same Hub can see each other.
package memroom

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vogiaan1904/spacehost/internal/room"
	"github.com/vogiaan1904/spacehost/pkg/logger"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotInitialized     = errors.New("session not initialized")
	ErrAlreadyInitialized = errors.New("session already initialized")
	ErrUnknownRequest     = errors.New("unknown speaker request")
	ErrNotSpeaker         = errors.New("user is not a speaker")
	ErrNotJoined          = errors.New("participant has not joined a session")
	ErrNotApproved        = errors.New("speaker request not approved")
)

const eventBuffer = 64

type Hub struct {
	mu       sync.Mutex
	l        logger.Logger
	baseURL  string
	sessions map[string]*Session
}

func NewHub(l logger.Logger, baseURL string) *Hub {
	return &Hub{
		l:        l,
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: make(map[string]*Session),
	}
}

func (h *Hub) NewSession() room.Session {
	return newSession(h)
}

func (h *Hub) NewParticipant() room.Participant {
	return newParticipant(h)
}

// Lookup returns a live session by id.
func (h *Hub) Lookup(sessionID string) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
}

func (h *Hub) remove(sessionID string) {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
}

func (h *Hub) shareURL(sessionID string) string {
	return fmt.Sprintf("%s/spaces/%s", h.baseURL, sessionID)
}

var _ room.Factory = (*Hub)(nil)
