package utilities

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer is a gRPC server exposing only the standard health check service.
type HealthServer struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
}

// NewHealthServer creates a HealthServer reporting SERVING for the whole server and
// for each named service.
func NewHealthServer(services ...string) *HealthServer {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	for _, service := range services {
		healthServer.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	return &HealthServer{
		grpcServer:   grpcServer,
		healthServer: healthServer,
	}
}

// Serve accepts connections on lis until Stop is called.
func (s *HealthServer) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// SetServing flips the overall status between SERVING and NOT_SERVING.
func (s *HealthServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.healthServer.SetServingStatus("", status)
}

// Stop marks every service NOT_SERVING and then drains in-flight calls.
func (s *HealthServer) Stop() {
	s.healthServer.Shutdown()
	s.grpcServer.GracefulStop()
}
