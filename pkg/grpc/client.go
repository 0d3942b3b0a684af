package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type cleanupFunc func()

// NewHealthClient dials addr over plaintext. Extra options are appended to
// the defaults.
func NewHealthClient(addr string, opts ...grpc.DialOption) (healthpb.HealthClient, cleanupFunc, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, err
	}

	return healthpb.NewHealthClient(conn), func() { conn.Close() }, nil
}
