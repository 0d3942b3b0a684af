// Package room declares the room-signaling collaborators the space manager
// drives. Implementations live in subpackages.
package room

import (
	"context"

	"github.com/vogiaan1904/spacehost/internal/plugins"
)

// Config describes a space to open.
type Config struct {
	Record      bool
	Mode        string
	Title       string
	Description string
	Languages   []string
}

const ModeInteractive = "INTERACTIVE"

type Broadcast struct {
	SessionID string
	ShareURL  string
}

type Member struct {
	UserID   string
	Username string
}

// Info is the room's own view of a session. Speakers are in room order.
type Info struct {
	SessionID string
	Speakers  []Member
	Listeners []Member
}

type EventType string

const (
	EventOccupancyUpdate EventType = "occupancyUpdate"
	EventSpeakerRequest  EventType = "speakerRequest"
	EventIdleTimeout     EventType = "idleTimeout"
)

type Event struct {
	Type EventType

	// occupancyUpdate
	Occupancy int
	Speakers  int

	// speakerRequest
	UserID    string
	RequestID string
	Username  string

	// idleTimeout
	IdleMs int64
}

// RequestAccepted is delivered to a participant when a host approves it.
type RequestAccepted struct {
	SessionID string
	RequestID string
}

// Session is a room the agent hosts.
type Session interface {
	Initialize(ctx context.Context, cfg Config) (*Broadcast, error)
	ApproveSpeaker(ctx context.Context, userID, requestID string) error
	RemoveSpeaker(ctx context.Context, userID string) error
	Stop(ctx context.Context) error
	GetSessionByID(ctx context.Context, sessionID string) (*Info, error)
	// Events is closed once the session stops.
	Events() <-chan Event
	Use(ext plugins.Extension) error
}

// Participant is the agent's presence in somebody else's room.
type Participant interface {
	JoinAsListener(ctx context.Context, sessionID string) error
	RequestSpeaker(ctx context.Context) (string, error)
	CancelSpeakerRequest(ctx context.Context) error
	BecomeSpeaker(ctx context.Context) error
	Leave(ctx context.Context) error
	OnRequestAccepted(handler func(RequestAccepted)) (unsubscribe func())
	Use(ext plugins.Extension) error
}

type Factory interface {
	NewSession() Session
	NewParticipant() Participant
}
