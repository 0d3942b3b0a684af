package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/pkg/logger"
	ws "nhooyr.io/websocket"
)

const (
	clientBuffer = 32
	writeTimeout = 5 * time.Second
)

// Hub fans lifecycle events out to connected websocket clients.
type Hub struct {
	l       logger.Logger
	mu      sync.Mutex
	clients map[string]chan []byte
}

func NewHub(l logger.Logger) *Hub {
	return &Hub{l: l, clients: make(map[string]chan []byte)}
}

// OnSpaceEvent never blocks; slow clients miss events.
func (h *Hub) OnSpaceEvent(ctx context.Context, ev models.SpaceEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		h.l.Errorf(ctx, "delivery.ws.Hub.OnSpaceEvent: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		select {
		case ch <- b:
		default:
			h.l.Warnf(ctx, "delivery.ws.Hub.OnSpaceEvent: client %s is slow, dropping %s", id, ev.Type)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() (string, chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and streams events until either side closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := ws.Accept(w, r, nil)
	if err != nil {
		h.l.Warnf(r.Context(), "delivery.ws.Hub.ServeHTTP: accept: %v", err)
		return
	}

	id, ch := h.register()
	defer h.unregister(id)
	h.l.Infof(r.Context(), "delivery.ws.Hub.ServeHTTP: client %s connected", id)

	// CloseRead discards inbound frames and cancels ctx when the peer goes away.
	ctx := c.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			_ = c.Close(ws.StatusNormalClosure, "done")
			h.l.Infof(r.Context(), "delivery.ws.Hub.ServeHTTP: client %s disconnected", id)
			return
		case b := <-ch:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(wctx, ws.MessageText, b)
			cancel()
			if err != nil {
				h.l.Warnf(r.Context(), "delivery.ws.Hub.ServeHTTP: write to %s: %v", id, err)
				_ = c.Close(ws.StatusInternalError, "write failed")
				return
			}
		}
	}
}
