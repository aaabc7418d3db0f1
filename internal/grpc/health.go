package grpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "nutricoach.API"

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer returns a gRPC server exposing the health service and reflection.
func NewServer(hs *health.Server) *grpc.Server {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(s, hs)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(s)
	return s
}

// HealthMonitor flips the serving status based on store pings.
type HealthMonitor struct {
	hs       *health.Server
	store    Pinger
	interval time.Duration
	log      zerolog.Logger
}

func NewHealthMonitor(hs *health.Server, store Pinger, interval time.Duration, log zerolog.Logger) *HealthMonitor {
	return &HealthMonitor{
		hs:       hs,
		store:    store,
		interval: interval,
		log:      log.With().Str("component", "health").Logger(),
	}
}

func (m *HealthMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ticker.C:
			m.check(ctx)
		case <-ctx.Done():
			m.hs.Shutdown()
			return nil
		}
	}
}

func (m *HealthMonitor) check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := m.store.Ping(pingCtx); err != nil {
		m.log.Warn().Err(err).Msg("store ping failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	m.hs.SetServingStatus("", status)
	m.hs.SetServingStatus(ServiceName, status)
	return status
}
