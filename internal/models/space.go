package models

import "time"

type SessionStatus string

const (
	SessionStatusIdle          SessionStatus = "IDLE"
	SessionStatusHosting       SessionStatus = "HOSTING"
	SessionStatusParticipating SessionStatus = "PARTICIPATING"
)

type ParticipantRole string

const (
	RoleListener ParticipantRole = "listener"
	RoleSpeaker  ParticipantRole = "speaker"
	RoleHost     ParticipantRole = "host"
)

// ActiveSpeaker is a user currently holding a speaker slot.
type ActiveSpeaker struct {
	UserID    string    `json:"user_id"`
	RequestID string    `json:"request_id"`
	Username  string    `json:"username"`
	StartTime time.Time `json:"start_time"`
}

// SpeakerRequest is a pending request to speak.
type SpeakerRequest struct {
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
	Username  string `json:"username"`
}

// Participation is the result of joining somebody else's space.
type Participation struct {
	SpaceID string          `json:"space_id"`
	Role    ParticipantRole `json:"role"`
}

type SpaceAnnouncement struct {
	SpaceID   string    `json:"space_id"`
	Title     string    `json:"title"`
	ShareURL  string    `json:"share_url"`
	AgentID   string    `json:"agent_id"`
	StartedAt time.Time `json:"started_at"`
}

type SpaceSnapshot struct {
	Status             SessionStatus    `json:"status"`
	SpaceID            string           `json:"space_id,omitempty"`
	StartedAt          *time.Time       `json:"started_at,omitempty"`
	LastSessionEndedAt *time.Time       `json:"last_session_ended_at,omitempty"`
	ActiveSpeakers     []ActiveSpeaker  `json:"active_speakers"`
	Queue              []SpeakerRequest `json:"queue"`
}

// SpaceRecord is the persisted history entry for one hosted space.
type SpaceRecord struct {
	SpaceID   string     `json:"space_id"`
	Title     string     `json:"title"`
	AgentID   string     `json:"agent_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}
