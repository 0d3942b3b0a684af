package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/internal/space"
	"github.com/vogiaan1904/spacehost/pkg/logger"
	"github.com/vogiaan1904/spacehost/pkg/response"
)

const testSecret = "test-secret"

type fakeSpaceService struct {
	snap     models.SpaceSnapshot
	startErr error
	joinErr  error
	leaveErr error
	joined   string
	stopped  int
}

func (f *fakeSpaceService) Snapshot() models.SpaceSnapshot { return f.snap }

func (f *fakeSpaceService) StartSpace(context.Context) (*models.SpaceSnapshot, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.snap = models.SpaceSnapshot{Status: models.SessionStatusHosting, SpaceID: "space-1"}
	return &f.snap, nil
}

func (f *fakeSpaceService) Stop(context.Context) {
	f.stopped++
	f.snap = models.SpaceSnapshot{Status: models.SessionStatusIdle}
}

func (f *fakeSpaceService) JoinSpace(_ context.Context, spaceID string) (*models.Participation, error) {
	f.joined = spaceID
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return &models.Participation{SpaceID: spaceID, Role: models.RoleSpeaker}, nil
}

func (f *fakeSpaceService) Leave(context.Context) error { return f.leaveErr }

type fakeHistory struct {
	recs  []models.SpaceRecord
	limit int64
}

func (f *fakeHistory) ListRecent(_ context.Context, limit int64) ([]models.SpaceRecord, error) {
	f.limit = limit
	return f.recs, nil
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newTestRouter(svc SpaceService, history HistoryReader) http.Handler {
	l := logger.InitializeTestZapLogger()
	return NewRouter(NewHTTPHandler(svc, history, l), RouterConfig{JWTSecret: testSecret}, l)
}

func do(t *testing.T, h http.Handler, method, path, body string, token string) (*httptest.ResponseRecorder, response.Resp) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response.Resp
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthCheckIsPublic(t *testing.T) {
	t.Parallel()

	rec, _ := do(t, newTestRouter(&fakeSpaceService{}, nil), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeSpaceService{}, nil)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "missing token", token: "", want: http.StatusUnauthorized},
		{name: "wrong secret", token: signToken(t, "other"), want: http.StatusUnauthorized},
		{name: "garbage", token: "not-a-jwt", want: http.StatusUnauthorized},
		{name: "valid", token: signToken(t, testSecret), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, router, http.MethodGet, "/api/v1/space/", "", tt.token)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestStartAndStopSpace(t *testing.T) {
	t.Parallel()

	svc := &fakeSpaceService{}
	router := newTestRouter(svc, nil)
	token := signToken(t, testSecret)

	rec, resp := do(t, router, http.MethodPost, "/api/v1/space/start", "", token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 0, resp.ErrorCode)
	assert.Equal(t, models.SessionStatusHosting, svc.snap.Status)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/space/stop", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.stopped)
}

func TestStartSpaceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  int
	}{
		{name: "busy", err: space.ErrNotIdle, wantCode: http.StatusConflict, wantErr: 40901},
		{name: "disabled", err: space.ErrHostingDisabled, wantCode: http.StatusForbidden, wantErr: 40301},
		{name: "launch", err: fmt.Errorf("%w: %w", space.ErrSpaceLaunch, errors.New("room down")), wantCode: http.StatusBadGateway, wantErr: 50201},
		{name: "shutdown", err: space.ErrShuttingDown, wantCode: http.StatusServiceUnavailable, wantErr: 50301},
		{name: "unknown", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantErr: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeSpaceService{startErr: tt.err}, nil)
			rec, resp := do(t, router, http.MethodPost, "/api/v1/space/start", "", signToken(t, testSecret))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, resp.ErrorCode)
		})
	}
}

func TestJoinSpace(t *testing.T) {
	t.Parallel()

	token := signToken(t, testSecret)

	t.Run("ok", func(t *testing.T) {
		svc := &fakeSpaceService{}
		rec, _ := do(t, newTestRouter(svc, nil), http.MethodPost, "/api/v1/space/join", `{"space_id":" space-7 "}`, token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "space-7", svc.joined)
	})

	t.Run("missing space id", func(t *testing.T) {
		svc := &fakeSpaceService{}
		rec, resp := do(t, newTestRouter(svc, nil), http.MethodPost, "/api/v1/space/join", `{}`, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 40002, resp.ErrorCode)
		assert.Empty(t, svc.joined)
	})

	t.Run("bad body", func(t *testing.T) {
		rec, resp := do(t, newTestRouter(&fakeSpaceService{}, nil), http.MethodPost, "/api/v1/space/join", `{`, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 40001, resp.ErrorCode)
	})

	t.Run("approval timeout", func(t *testing.T) {
		svc := &fakeSpaceService{joinErr: space.ErrApprovalTimeout}
		rec, _ := do(t, newTestRouter(svc, nil), http.MethodPost, "/api/v1/space/join", `{"space_id":"s"}`, token)
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})
}

func TestLeaveSpaceNotParticipating(t *testing.T) {
	t.Parallel()

	svc := &fakeSpaceService{leaveErr: space.ErrNotParticipating}
	rec, resp := do(t, newTestRouter(svc, nil), http.MethodPost, "/api/v1/space/leave", "", signToken(t, testSecret))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 40902, resp.ErrorCode)
}

func TestListHistory(t *testing.T) {
	t.Parallel()

	token := signToken(t, testSecret)

	t.Run("not configured", func(t *testing.T) {
		rec, _ := do(t, newTestRouter(&fakeSpaceService{}, nil), http.MethodGet, "/api/v1/space/history", "", token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("default limit", func(t *testing.T) {
		hist := &fakeHistory{recs: []models.SpaceRecord{{SpaceID: "a"}}}
		rec, _ := do(t, newTestRouter(&fakeSpaceService{}, hist), http.MethodGet, "/api/v1/space/history", "", token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, defaultHistoryLimit, hist.limit)
	})

	t.Run("invalid limit", func(t *testing.T) {
		hist := &fakeHistory{}
		rec, _ := do(t, newTestRouter(&fakeSpaceService{}, hist), http.MethodGet, "/api/v1/space/history?limit=0", "", token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
