package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

// Config controls the gRPC listener.
type Config struct {
	ListenAddr    string
	ProbeInterval time.Duration
}

// Run listens on cfg.ListenAddr and serves until ctx ends.
func Run(ctx context.Context, cfg Config, engine *booking.Engine, store booking.Store, logger *zap.Logger) error {
	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return Serve(ctx, listener, cfg.ProbeInterval, engine, store, logger)
}

// Serve registers the lifecycle and health services on listener and blocks
// until ctx ends or the server fails.
func Serve(ctx context.Context, listener net.Listener, probeInterval time.Duration, engine *booking.Engine, store booking.Store, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	lifecycle, err := NewLifecycleServer(engine)
	if err != nil {
		return err
	}
	readiness, err := NewReadiness(store, logger)
	if err != nil {
		return err
	}
	grpcServer := grpc.NewServer()
	RegisterLifecycleService(grpcServer, lifecycle)
	readiness.Register(grpcServer)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go readiness.Watch(watchCtx, probeInterval)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server starting", zap.String("listen_addr", listener.Addr().String()))
		errCh <- grpcServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logger.Info("gRPC shutdown requested")
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(shutdownTimeout):
			// open health watch streams never finish on their own
			grpcServer.Stop()
		}
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return serveErr
		}
		return nil
	case serveErr := <-errCh:
		if errors.Is(serveErr, grpc.ErrServerStopped) {
			return nil
		}
		return serveErr
	}
}
