package agent

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Character is the persona the agent hosts spaces as.
type Character struct {
	Name     string            `mapstructure:"name"`
	Topics   []string          `mapstructure:"topics"`
	Settings CharacterSettings `mapstructure:"settings"`
}

type CharacterSettings struct {
	Spaces SpaceSettings `mapstructure:"spaces"`
}

// SpaceSettings holds raw overrides. A nil field means "not configured".
type SpaceSettings struct {
	MaxSpeakers                       *int  `mapstructure:"max_speakers"`
	TypicalDurationMinutes            *int  `mapstructure:"typical_duration_minutes"`
	IdleKickTimeoutMs                 *int  `mapstructure:"idle_kick_timeout_ms"`
	MinIntervalBetweenSessionsMinutes *int  `mapstructure:"min_interval_between_sessions_minutes"`
	EnableIdleMonitor                 *bool `mapstructure:"enable_idle_monitor"`
	EnableSessionHosting              *bool `mapstructure:"enable_session_hosting"`
	EnableRecording                   *bool `mapstructure:"enable_recording"`
	SpeakerMaxDurationMs              *int  `mapstructure:"speaker_max_duration_ms"`
}

// LoadCharacter reads a character file (yaml, json or toml). Top level keys
// can be overridden through CHARACTER_* environment variables.
func LoadCharacter(path string) (*Character, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("character")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("name", "Agent")
	v.SetDefault("topics", []string{})

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read character file %s: %w", path, err)
	}

	var c Character
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode character file %s: %w", path, err)
	}
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("character file %s: name is required", path)
	}

	return &c, nil
}

// DefaultCharacter is used when no character file is configured.
func DefaultCharacter() *Character {
	return &Character{
		Name: "Agent",
		Topics: []string{
			"Open source infrastructure",
			"Building with Go",
			"The future of voice interfaces",
		},
	}
}
