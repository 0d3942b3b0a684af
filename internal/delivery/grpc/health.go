package grpc

import (
	"context"

	"github.com/vogiaan1904/spacehost/internal/models"
	"github.com/vogiaan1904/spacehost/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SpaceServiceName reports SERVING only while the agent is in a space.
const SpaceServiceName = "spacehost.Space"

type HealthReporter struct {
	srv *health.Server
	l   logger.Logger
}

func NewHealthReporter(l logger.Logger) *HealthReporter {
	srv := health.NewServer()
	srv.SetServingStatus(SpaceServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{srv: srv, l: l}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

func (h *HealthReporter) OnSpaceEvent(ctx context.Context, ev models.SpaceEvent) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ev.Status == models.SessionStatusHosting || ev.Status == models.SessionStatusParticipating {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus(SpaceServiceName, st)
	h.l.Debugf(ctx, "delivery.grpc.HealthReporter.OnSpaceEvent: %s -> %s", ev.Type, st)
}

// Shutdown flips every service to NOT_SERVING ahead of GracefulStop.
func (h *HealthReporter) Shutdown() {
	h.srv.Shutdown()
}
