package grpcapi

import (
	"context"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	defaultProbeInterval = 10 * time.Second
	defaultProbeTimeout  = 2 * time.Second
)

// Readiness reports store reachability through the standard gRPC health
// service, both for the server as a whole ("") and for the lifecycle service.
type Readiness struct {
	store        booking.Store
	healthServer *health.Server
	logger       *zap.Logger
	probeTimeout time.Duration
}

// NewReadiness builds a health reporter that starts NOT_SERVING until the
// first successful probe.
func NewReadiness(store booking.Store, logger *zap.Logger) (*Readiness, error) {
	if store == nil {
		return nil, errors.New("grpcapi: store dependency is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	healthServer := health.NewServer()
	readiness := &Readiness{
		store:        store,
		healthServer: healthServer,
		logger:       logger,
		probeTimeout: defaultProbeTimeout,
	}
	readiness.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return readiness, nil
}

// Register attaches the health service to registrar.
func (readiness *Readiness) Register(registrar grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(registrar, readiness.healthServer)
}

// Probe lists the room catalog once and publishes the outcome.
func (readiness *Readiness) Probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, readiness.probeTimeout)
	defer cancel()
	if _, err := readiness.store.ListRooms(probeCtx); err != nil {
		readiness.logger.Warn("readiness probe failed", zap.Error(err))
		readiness.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	readiness.set(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Watch probes every interval until ctx ends, then marks everything as
// shutting down so watchers see NOT_SERVING.
func (readiness *Readiness) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	_ = readiness.Probe(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			readiness.healthServer.Shutdown()
			return
		case <-ticker.C:
			_ = readiness.Probe(ctx)
		}
	}
}

func (readiness *Readiness) set(servingStatus healthpb.HealthCheckResponse_ServingStatus) {
	readiness.healthServer.SetServingStatus("", servingStatus)
	readiness.healthServer.SetServingStatus(ServiceName, servingStatus)
}
