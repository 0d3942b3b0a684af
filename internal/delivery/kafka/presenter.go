package kafka

import "time"

// Events published BY spacehost

type SpaceAnnouncedEvent struct {
	SpaceID   string    `json:"space_id"`
	AgentID   string    `json:"agent_id"`
	Title     string    `json:"title"`
	ShareURL  string    `json:"share_url"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

type SpaceLifecycleEvent struct {
	Type       string    `json:"type"`
	SpaceID    string    `json:"space_id"`
	AgentID    string    `json:"agent_id"`
	Status     string    `json:"status"`
	UserID     string    `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Timestamp  time.Time `json:"timestamp"`
}

// Commands consumed BY spacehost

type SpaceControlCommand struct {
	Action      string    `json:"action"` // start, stop, join, leave
	AgentID     string    `json:"agent_id,omitempty"`
	SpaceID     string    `json:"space_id,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
