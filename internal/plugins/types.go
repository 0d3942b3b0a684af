package plugins

import (
	"context"
	"time"

	"github.com/vogiaan1904/spacehost/internal/agent"
	"github.com/vogiaan1904/spacehost/internal/models"
)

// Kind identifies the slot an extension fills on a room handle.
type Kind string

const (
	KindSpeech      Kind = "speech"
	KindIdleMonitor Kind = "idle-monitor"
)

// Extension is anything that can be attached to a room session or participant.
type Extension interface {
	Name() string
	Kind() Kind
}

// AttachContext is handed to a factory when an extension is built for a session.
type AttachContext struct {
	SessionID     string
	Role          models.ParticipantRole
	Runtime       agent.Runtime
	IdleTimeout   time.Duration
	CheckInterval time.Duration
}

type Factory func(ac AttachContext) (Extension, error)

// SpeechPipeline speaks on behalf of the agent.
type SpeechPipeline interface {
	Extension
	Speak(ctx context.Context, text string) error
}

// IdleMonitor tells a room how long silence may last before it raises an
// idle-timeout event, and how often to check.
type IdleMonitor interface {
	Extension
	Timeout() time.Duration
	CheckInterval() time.Duration
}
