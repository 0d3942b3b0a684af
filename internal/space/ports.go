package space

import (
	"context"
	"time"

	"github.com/vogiaan1904/spacehost/internal/models"
)

// Announcer publishes a space's public link once hosting begins.
type Announcer interface {
	AnnounceSpace(ctx context.Context, a models.SpaceAnnouncement) error
}

// EventSink receives lifecycle events. Implementations must not block.
type EventSink interface {
	OnSpaceEvent(ctx context.Context, ev models.SpaceEvent)
}

type MultiSink []EventSink

func (ms MultiSink) OnSpaceEvent(ctx context.Context, ev models.SpaceEvent) {
	for _, s := range ms {
		if s != nil {
			s.OnSpaceEvent(ctx, ev)
		}
	}
}

// HistoryStore persists hosted spaces so the cooldown survives restarts.
type HistoryStore interface {
	RecordStarted(ctx context.Context, rec models.SpaceRecord) error
	RecordEnded(ctx context.Context, spaceID string, endedAt time.Time) error
	LastEndedAt(ctx context.Context) (time.Time, bool, error)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
