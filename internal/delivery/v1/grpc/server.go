package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/cfg"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger проверяет доступность БД для health-сервиса.
type Pinger interface {
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	cfg    *cfg.GRPCConfig
	logger logger.Logger

	stopWatch chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewGRPCServer(cfg *cfg.GRPCConfig, logger logger.Logger) *GRPCServer {
	return &GRPCServer{
		server:    grpc.NewServer(),
		health:    health.NewServer(),
		cfg:       cfg,
		logger:    logger,
		stopWatch: make(chan struct{}),
	}
}

func (s *GRPCServer) RegisterServices(prUC usecase.ProductUC) {
	s.server.RegisterService(&catalogServiceDesc, NewCatalogService(prUC, s.logger))
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
}

// WatchDB периодически пингует БД и переключает статус health-сервиса.
func (s *GRPCServer) WatchDB(ctx context.Context, db Pinger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.HealthInterval)
		defer ticker.Stop()

		for {
			s.checkDB(ctx, db)

			select {
			case <-ctx.Done():
				return
			case <-s.stopWatch:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *GRPCServer) checkDB(ctx context.Context, db Pinger) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := db.Ping(pingCtx); err != nil {
		s.logger.Warnf("gRPC health: database unreachable: %v", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(catalogServiceName, st)
}

func (s *GRPCServer) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	lis, err := net.Listen(s.cfg.NetworkMode, addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(lis)
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

func (s *GRPCServer) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopWatch) })
	s.wg.Wait()
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infof("gRPC server stopped gracefully")
		return nil
	case <-ctx.Done():
		s.server.Stop()
		s.logger.Warnf("gRPC server forced to stop after timeout")
		return ctx.Err()
	}
}
