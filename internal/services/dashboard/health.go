package dashboard

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const HealthServiceName = "garden.dashboard"

// HealthPublisher exposes the connectivity state through the standard gRPC
// health service.
type HealthPublisher struct {
	srv *health.Server
}

func NewHealthPublisher() *HealthPublisher {
	srv := health.NewServer()
	srv.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthPublisher{srv: srv}
}

// ConnectivityChanged implements ConnectivityObserver.
func (h *HealthPublisher) ConnectivityChanged(c Connectivity) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if c == Connected {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus(HealthServiceName, st)
}

func (h *HealthPublisher) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

func (h *HealthPublisher) Server() *health.Server { return h.srv }

// Shutdown marks every service as not serving.
func (h *HealthPublisher) Shutdown() { h.srv.Shutdown() }
