package delivery

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"bookrec/internal/logger"
)

// HealthService is the gRPC health service name reported for the API.
const HealthService = "bookrec.Recommend"

// HealthServer wraps the standard gRPC health service for the API process.
type HealthServer struct {
	*health.Server
}

// NewGRPCServer returns a gRPC server exposing only the health service, with
// both the overall and HealthService statuses NOT_SERVING until MarkServing.
func NewGRPCServer(opts ...grpc.ServerOption) (*grpc.Server, *HealthServer) {
	srv := grpc.NewServer(opts...)
	hs := &HealthServer{Server: health.NewServer()}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs.Server)
	return srv, hs
}

// MarkServing flips both statuses to SERVING once the engine is ready.
func (h *HealthServer) MarkServing(ctx context.Context) {
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	logger.For(ctx).WithField("service", HealthService).Info("grpc.health.serving")
}
