package filler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/spacehost/internal/agent"
	"github.com/vogiaan1904/spacehost/pkg/logger"
)

type recordingSpeaker struct {
	said []string
	err  error
}

func (r *recordingSpeaker) Speak(_ context.Context, text string) error {
	r.said = append(r.said, text)
	return r.err
}

func TestSpeakFiller(t *testing.T) {
	t.Parallel()

	h := NewPhraseBank(logger.InitializeTestZapLogger())
	rt := agent.NewRuntime("a", &agent.Character{Name: "Ada"}, nil)
	sp := &recordingSpeaker{}

	require.NoError(t, h.SpeakFiller(context.Background(), rt, sp, KindWelcome, 0))
	require.Len(t, sp.said, 1)
	assert.True(t, strings.HasPrefix(sp.said[0], "Ada: "))
}

func TestSpeakFillerNilSpeakerIsNoop(t *testing.T) {
	t.Parallel()

	h := NewPhraseBank(logger.InitializeTestZapLogger())
	assert.NoError(t, h.SpeakFiller(context.Background(), nil, nil, KindClosing, time.Hour))
}

func TestSpeakFillerPropagatesSpeakError(t *testing.T) {
	t.Parallel()

	h := NewPhraseBank(logger.InitializeTestZapLogger())
	sp := &recordingSpeaker{err: errors.New("tts down")}

	err := h.SpeakFiller(context.Background(), nil, sp, KindPreAccept, 0)
	assert.ErrorIs(t, err, sp.err)
}

func TestSpeakFillerUnknownKind(t *testing.T) {
	t.Parallel()

	h := NewPhraseBank(logger.InitializeTestZapLogger())
	assert.Error(t, h.SpeakFiller(context.Background(), nil, &recordingSpeaker{}, Kind("NOPE"), 0))
}

func TestSpeakFillerDelayHonoursContext(t *testing.T) {
	t.Parallel()

	h := NewPhraseBank(logger.InitializeTestZapLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.SpeakFiller(ctx, nil, &recordingSpeaker{}, KindClosing, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateTopicsIfEmpty(t *testing.T) {
	t.Parallel()

	h := NewPhraseBank(logger.InitializeTestZapLogger())

	withTopics := agent.NewRuntime("a", &agent.Character{Name: "A", Topics: []string{"go"}}, nil)
	assert.Equal(t, []string{"go"}, h.GenerateTopicsIfEmpty(context.Background(), withTopics))

	empty := agent.NewRuntime("a", &agent.Character{Name: "A"}, nil)
	assert.NotEmpty(t, h.GenerateTopicsIfEmpty(context.Background(), empty))
}
