package space

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vogiaan1904/spacehost/internal/agent"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestResolveOptionsDefaults(t *testing.T) {
	t.Parallel()

	o := ResolveOptions(agent.SpaceSettings{})

	assert.Equal(t, DefaultOptions(), o)
	assert.Equal(t, 1, o.MaxSpeakers)
	assert.Equal(t, 30*time.Minute, o.TypicalDuration())
	assert.Equal(t, 5*time.Minute, o.IdleKickTimeout())
	assert.Equal(t, time.Hour, o.MinIntervalBetweenSessions())
	assert.Equal(t, 4*time.Minute, o.SpeakerMaxDuration())
	assert.True(t, o.EnableIdleMonitor)
	assert.True(t, o.EnableSessionHosting)
	assert.False(t, o.EnableRecording)
}

func TestResolveOptionsOverrides(t *testing.T) {
	t.Parallel()

	o := ResolveOptions(agent.SpaceSettings{
		MaxSpeakers:                       intPtr(3),
		TypicalDurationMinutes:            intPtr(45),
		IdleKickTimeoutMs:                 intPtr(60_000),
		MinIntervalBetweenSessionsMinutes: intPtr(10),
		SpeakerMaxDurationMs:              intPtr(90_000),
		EnableRecording:                   boolPtr(true),
	})

	assert.Equal(t, 3, o.MaxSpeakers)
	assert.Equal(t, 45, o.TypicalDurationMinutes)
	assert.Equal(t, 60_000, o.IdleKickTimeoutMs)
	assert.Equal(t, 10, o.MinIntervalBetweenSessionsMinutes)
	assert.Equal(t, 90_000, o.SpeakerMaxDurationMs)
	assert.True(t, o.EnableRecording)
}

func TestResolveOptionsIgnoresFalsyValues(t *testing.T) {
	t.Parallel()

	o := ResolveOptions(agent.SpaceSettings{
		MaxSpeakers:          intPtr(0),
		SpeakerMaxDurationMs: intPtr(-5),
		EnableIdleMonitor:    boolPtr(false),
		EnableSessionHosting: boolPtr(false),
	})

	assert.Equal(t, DefaultMaxSpeakers, o.MaxSpeakers)
	assert.Equal(t, DefaultSpeakerMaxDurationMs, o.SpeakerMaxDurationMs)
	assert.True(t, o.EnableIdleMonitor)
	assert.True(t, o.EnableSessionHosting)
}

func TestResolveOptionsIgnoresNegativeValues(t *testing.T) {
	t.Parallel()

	o := ResolveOptions(agent.SpaceSettings{
		MaxSpeakers:                       intPtr(-1),
		TypicalDurationMinutes:            intPtr(-30),
		IdleKickTimeoutMs:                 intPtr(-1000),
		MinIntervalBetweenSessionsMinutes: intPtr(-60),
		SpeakerMaxDurationMs:              intPtr(-240000),
	})

	assert.Equal(t, DefaultOptions(), o)
}
