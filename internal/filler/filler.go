package filler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vogiaan1904/spacehost/internal/agent"
	"github.com/vogiaan1904/spacehost/pkg/logger"
)

type Kind string

const (
	KindWelcome     Kind = "WELCOME"
	KindClosing     Kind = "CLOSING"
	KindIdleEnding  Kind = "IDLE_ENDING"
	KindPreAccept   Kind = "PRE_ACCEPT"
	KindSpeakerLeft Kind = "SPEAKER_LEFT"
)

// Speaker turns text into audio inside a room.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Helper produces short host utterances and fallback topics.
type Helper interface {
	// SpeakFiller says a phrase of the given kind and then waits delay.
	SpeakFiller(ctx context.Context, rt agent.Runtime, sp Speaker, kind Kind, delay time.Duration) error
	GenerateTopicsIfEmpty(ctx context.Context, rt agent.Runtime) []string
}

var defaultPhrases = map[Kind][]string{
	KindWelcome: {
		"Welcome everyone, glad you could make it.",
		"Hey all, thanks for joining. Let's get started.",
	},
	KindClosing: {
		"That's all the time we have. Thanks for listening.",
		"We're wrapping up here. Thanks everyone for coming.",
	},
	KindIdleEnding: {
		"It's gone quiet, so I'll close the space for now.",
	},
	KindPreAccept: {
		"I see a request to speak, bringing you up now.",
		"Let's hear from our next speaker.",
	},
	KindSpeakerLeft: {
		"Thanks for sharing. Making room for the next speaker.",
	},
}

var defaultTopics = []string{
	"What are you building this week?",
	"Open questions in the community",
	"Ask me anything",
}

type phraseBank struct {
	l       logger.Logger
	mu      sync.Mutex
	rnd     *rand.Rand
	phrases map[Kind][]string
	topics  []string
}

// NewPhraseBank returns a Helper backed by fixed phrase lists.
func NewPhraseBank(l logger.Logger) Helper {
	return &phraseBank{
		l:       l,
		rnd:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		phrases: defaultPhrases,
		topics:  defaultTopics,
	}
}

func (p *phraseBank) pick(list []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return list[p.rnd.IntN(len(list))]
}

func (p *phraseBank) SpeakFiller(ctx context.Context, rt agent.Runtime, sp Speaker, kind Kind, delay time.Duration) error {
	if sp == nil {
		return nil
	}

	list := p.phrases[kind]
	if len(list) == 0 {
		return fmt.Errorf("no phrases for filler kind %s", kind)
	}

	text := p.pick(list)
	if rt != nil {
		text = fmt.Sprintf("%s: %s", rt.Character().Name, text)
	}
	if err := sp.Speak(ctx, text); err != nil {
		return fmt.Errorf("speak %s filler: %w", kind, err)
	}

	if delay <= 0 {
		return nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *phraseBank) GenerateTopicsIfEmpty(ctx context.Context, rt agent.Runtime) []string {
	if rt != nil {
		if topics := rt.Character().Topics; len(topics) > 0 {
			return topics
		}
	}

	p.l.Debugf(ctx, "filler.phraseBank.GenerateTopicsIfEmpty: using %d default topics", len(p.topics))
	out := make([]string, len(p.topics))
	copy(out, p.topics)
	return out
}
