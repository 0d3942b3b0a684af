package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/pkg/logger"
	ws "nhooyr.io/websocket"
)

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub(logger.InitializeTestZapLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := ws.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.Close(ws.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.OnSpaceEvent(ctx, models.SpaceEvent{
		Type:    models.SpaceEventStarted,
		SpaceID: "space-1",
		Status:  models.SessionStatusHosting,
	})

	typ, data, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, ws.MessageText, typ)

	var got models.SpaceEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, models.SpaceEventStarted, got.Type)
	assert.Equal(t, "space-1", got.SpaceID)
}

func TestHubDropsWhenClientBufferFull(t *testing.T) {
	hub := NewHub(logger.InitializeTestZapLogger())
	id, ch := hub.register()
	defer hub.unregister(id)

	for range clientBuffer + 5 {
		hub.OnSpaceEvent(context.Background(), models.SpaceEvent{Type: models.SpaceEventSpeakerQueued})
	}
	assert.Len(t, ch, clientBuffer)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(logger.InitializeTestZapLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	_ = c.Close(ws.StatusNormalClosure, "bye")
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
