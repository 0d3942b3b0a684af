package agent

import "strings"

type ServiceType string

const (
	ServiceTTS           ServiceType = "tts"
	ServiceTranscription ServiceType = "transcription"
)

// Runtime exposes the agent's identity and capabilities to the space manager.
type Runtime interface {
	AgentID() string
	Character() *Character
	HasService(t ServiceType) bool
}

type runtime struct {
	id        string
	character *Character
	services  map[ServiceType]struct{}
}

func NewRuntime(id string, character *Character, services []string) Runtime {
	if character == nil {
		character = DefaultCharacter()
	}

	set := make(map[ServiceType]struct{}, len(services))
	for _, s := range services {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[ServiceType(s)] = struct{}{}
		}
	}

	return &runtime{
		id:        id,
		character: character,
		services:  set,
	}
}

func (r *runtime) AgentID() string { return r.id }

func (r *runtime) Character() *Character { return r.character }

func (r *runtime) HasService(t ServiceType) bool {
	_, ok := r.services[t]
	return ok
}
