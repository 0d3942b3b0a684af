package plugins

import (
	"context"
	"errors"
	"time"

	"github.com/vogiaan1904/spacehost/pkg/logger"
)

const (
	SpeechLog        = "log"
	IdleMonitorTimer = "timer"
)

type logSpeech struct {
	l         logger.Logger
	sessionID string
	agentName string
}

// NewLogSpeechFactory returns a speech pipeline that writes utterances to the log.
func NewLogSpeechFactory(l logger.Logger) Factory {
	return func(ac AttachContext) (Extension, error) {
		name := ""
		if ac.Runtime != nil {
			name = ac.Runtime.Character().Name
		}
		return &logSpeech{l: l, sessionID: ac.SessionID, agentName: name}, nil
	}
}

func (s *logSpeech) Name() string { return SpeechLog }

func (s *logSpeech) Kind() Kind { return KindSpeech }

func (s *logSpeech) Speak(ctx context.Context, text string) error {
	s.l.Infof(ctx, "plugins.logSpeech.Speak: session=%s agent=%s text=%q", s.sessionID, s.agentName, text)
	return nil
}

type timerIdleMonitor struct {
	timeout       time.Duration
	checkInterval time.Duration
}

func NewTimerIdleMonitorFactory() Factory {
	return func(ac AttachContext) (Extension, error) {
		if ac.IdleTimeout <= 0 || ac.CheckInterval <= 0 {
			return nil, errors.New("idle monitor needs positive timeout and check interval")
		}
		return &timerIdleMonitor{timeout: ac.IdleTimeout, checkInterval: ac.CheckInterval}, nil
	}
}

func (m *timerIdleMonitor) Name() string { return IdleMonitorTimer }

func (m *timerIdleMonitor) Kind() Kind { return KindIdleMonitor }

func (m *timerIdleMonitor) Timeout() time.Duration { return m.timeout }

func (m *timerIdleMonitor) CheckInterval() time.Duration { return m.checkInterval }

// RegisterBuiltins adds the bundled speech and idle-monitor plugins.
func RegisterBuiltins(r *Registry, l logger.Logger) error {
	if err := r.Register(KindSpeech, SpeechLog, NewLogSpeechFactory(l)); err != nil {
		return err
	}
	return r.Register(KindIdleMonitor, IdleMonitorTimer, NewTimerIdleMonitorFactory())
}
