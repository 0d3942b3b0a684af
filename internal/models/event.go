package models

import "time"

type SpaceEventType string

const (
	SpaceEventStarted           SpaceEventType = "space.started"
	SpaceEventStopped           SpaceEventType = "space.stopped"
	SpaceEventSpeakerAdmitted   SpaceEventType = "speaker.admitted"
	SpaceEventSpeakerQueued     SpaceEventType = "speaker.queued"
	SpaceEventSpeakerRemoved    SpaceEventType = "speaker.removed"
	SpaceEventParticipantJoined SpaceEventType = "participation.joined"
	SpaceEventParticipantLeft   SpaceEventType = "participation.left"
)

// SpaceEvent is a lifecycle notification fanned out to sinks.
type SpaceEvent struct {
	Type      SpaceEventType `json:"type"`
	SpaceID   string         `json:"space_id"`
	AgentID   string         `json:"agent_id"`
	UserID    string         `json:"user_id,omitempty"`
	Username  string         `json:"username,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Status    SessionStatus  `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
}
