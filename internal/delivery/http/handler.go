package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/pkg/logger"
	"github.com/vogiaan1904/spacehost/pkg/response"
)

// SpaceService is the admin surface of space.Manager.
type SpaceService interface {
	Snapshot() models.SpaceSnapshot
	StartSpace(ctx context.Context) (*models.SpaceSnapshot, error)
	Stop(ctx context.Context)
	JoinSpace(ctx context.Context, spaceID string) (*models.Participation, error)
	Leave(ctx context.Context) error
}

type HistoryReader interface {
	ListRecent(ctx context.Context, limit int64) ([]models.SpaceRecord, error)
}

type HTTPHandler struct {
	svc     SpaceService
	history HistoryReader
	l       logger.Logger
}

// NewHTTPHandler builds the admin handler. history may be nil when no store
// is configured.
func NewHTTPHandler(svc SpaceService, history HistoryReader, l logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:     svc,
		history: history,
		l:       l,
	}
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "spacehost",
		"state":   h.svc.Snapshot().Status,
	})
}

func (h *HTTPHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	response.OK(w, http.StatusOK, h.svc.Snapshot())
}

func (h *HTTPHandler) StartSpace(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.StartSpace(r.Context())
	if err != nil {
		h.l.Errorf(r.Context(), "delivery.http.handler.StartSpace: %v", err)
		response.Error(w, mapHTTPError(err))
		return
	}

	response.OK(w, http.StatusCreated, snap)
}

func (h *HTTPHandler) StopSpace(w http.ResponseWriter, r *http.Request) {
	h.svc.Stop(r.Context())
	response.OK(w, http.StatusOK, h.svc.Snapshot())
}

func (h *HTTPHandler) JoinSpace(w http.ResponseWriter, r *http.Request) {
	var req joinSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, errInvalidBody)
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, err)
		return
	}

	p, err := h.svc.JoinSpace(r.Context(), req.SpaceID)
	if err != nil {
		h.l.Errorf(r.Context(), "delivery.http.handler.JoinSpace: space_id=%s: %v", req.SpaceID, err)
		response.Error(w, mapHTTPError(err))
		return
	}

	response.OK(w, http.StatusOK, p)
}

func (h *HTTPHandler) LeaveSpace(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Leave(r.Context()); err != nil {
		response.Error(w, mapHTTPError(err))
		return
	}

	response.OK(w, http.StatusOK, h.svc.Snapshot())
}

func (h *HTTPHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		response.Error(w, errHistoryDisabled)
		return
	}

	var limit int64 = defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			response.Error(w, errInvalidLimit)
			return
		}
		limit = n
	}

	recs, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		h.l.Errorf(r.Context(), "delivery.http.handler.ListHistory: %v", err)
		response.Error(w, err)
		return
	}

	response.OK(w, http.StatusOK, recs)
}
