package space

import (
	"time"

	"github.com/vogiaan1904/spacehost/internal/agent"
)

const (
	DefaultMaxSpeakers                       = 1
	DefaultTypicalDurationMinutes            = 30
	DefaultIdleKickTimeoutMs                 = 300_000
	DefaultMinIntervalBetweenSessionsMinutes = 60
	DefaultSpeakerMaxDurationMs              = 240_000
)

// DecisionOptions is resolved once per manager and never mutated.
type DecisionOptions struct {
	MaxSpeakers                       int
	TypicalDurationMinutes            int
	IdleKickTimeoutMs                 int
	MinIntervalBetweenSessionsMinutes int
	EnableIdleMonitor                 bool
	EnableSessionHosting              bool
	EnableRecording                   bool
	SpeakerMaxDurationMs              int
}

func DefaultOptions() DecisionOptions {
	return DecisionOptions{
		MaxSpeakers:                       DefaultMaxSpeakers,
		TypicalDurationMinutes:            DefaultTypicalDurationMinutes,
		IdleKickTimeoutMs:                 DefaultIdleKickTimeoutMs,
		MinIntervalBetweenSessionsMinutes: DefaultMinIntervalBetweenSessionsMinutes,
		EnableIdleMonitor:                 true,
		EnableSessionHosting:              true,
		EnableRecording:                   false,
		SpeakerMaxDurationMs:              DefaultSpeakerMaxDurationMs,
	}
}

// ResolveOptions applies character overrides on top of the defaults. Only
// set, truthy values win: zero, negative and false leave the default alone.
func ResolveOptions(s agent.SpaceSettings) DecisionOptions {
	o := DefaultOptions()

	overrideInt(&o.MaxSpeakers, s.MaxSpeakers)
	overrideInt(&o.TypicalDurationMinutes, s.TypicalDurationMinutes)
	overrideInt(&o.IdleKickTimeoutMs, s.IdleKickTimeoutMs)
	overrideInt(&o.MinIntervalBetweenSessionsMinutes, s.MinIntervalBetweenSessionsMinutes)
	overrideInt(&o.SpeakerMaxDurationMs, s.SpeakerMaxDurationMs)
	overrideBool(&o.EnableIdleMonitor, s.EnableIdleMonitor)
	overrideBool(&o.EnableSessionHosting, s.EnableSessionHosting)
	overrideBool(&o.EnableRecording, s.EnableRecording)

	return o
}

func overrideInt(dst *int, v *int) {
	if v != nil && *v > 0 {
		*dst = *v
	}
}

func overrideBool(dst *bool, v *bool) {
	if v != nil && *v {
		*dst = true
	}
}

func (o DecisionOptions) TypicalDuration() time.Duration {
	return time.Duration(o.TypicalDurationMinutes) * time.Minute
}

func (o DecisionOptions) IdleKickTimeout() time.Duration {
	return time.Duration(o.IdleKickTimeoutMs) * time.Millisecond
}

func (o DecisionOptions) MinIntervalBetweenSessions() time.Duration {
	return time.Duration(o.MinIntervalBetweenSessionsMinutes) * time.Minute
}

func (o DecisionOptions) SpeakerMaxDuration() time.Duration {
	return time.Duration(o.SpeakerMaxDurationMs) * time.Millisecond
}
