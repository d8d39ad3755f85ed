package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/sales-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/sales-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/sales-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/sales-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/sales-backend/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/sales-backend/internal/repository/minio"
	"github.com/DRSN-tech/sales-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/sales-backend/internal/repository/pgdb/converter/generated"
	"github.com/DRSN-tech/sales-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/sales-backend/internal/repository/redis/converter/generated"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/clients"
	"github.com/DRSN-tech/sales-backend/pkg/clock"
	"github.com/DRSN-tech/sales-backend/pkg/closer"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/DRSN-tech/sales-backend/pkg/postgres"
	"github.com/DRSN-tech/sales-backend/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	startupTimeout      = 10 * time.Second
	shutdownTimeout     = 15 * time.Second
	forcedCloseTimeout  = 3 * time.Second
	kafkaTopicTimeout   = 10 * time.Second
	minioCleanupTimeout = 5 * time.Second
)

// App связывает конфигурацию, хранилища, usecase и транспорт.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	db      *postgres.PgDatabase
	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	outbox  *kafka.OutboxWorker // nil, если Kafka не настроена

	// bgCtx живёт до начала остановки: на нём работают воркер outbox и фоновая очистка MinIO
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(forcedCloseTimeout),
	}
	a.bgCtx, a.bgCancel = context.WithCancel(context.Background())

	if err := a.init(); err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if closeErr := a.closer.Close(closeCtx); closeErr != nil {
			log.Warnf("partial init cleanup: %v", closeErr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// Закрывается последним (LIFO): к этому моменту серверы и воркер уже остановлены
	a.closer.Add("background", func(context.Context) error {
		a.bgCancel()
		return nil
	})

	db, err := initPGDB(ctx, a.logger, a.cfg)
	if err != nil {
		return err
	}
	a.db = db
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		a.logger.Infof("Postgres pool closed")
		return nil
	})

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	if err := redisClient.Ping(ctx); err != nil {
		_ = redisClient.Client.Close()
		return e.Wrap("failed to connect to redis", err)
	}
	a.closer.Add("redis", redisClient.Close)

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		return e.Wrap("failed to initialize minio client", err)
	}
	if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
		return e.Wrap("failed to initialize MinIO bucket", err)
	}

	// Репозитории
	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.NewProductConverterImpl())
	categoryRepo := pgdb.NewCategoryRepo(db.Pool, pgdbConv.NewCategoryConverterImpl())
	customerRepo := pgdb.NewCustomerRepo(db.Pool, pgdbConv.NewCustomerConverterImpl())
	saleRepo := pgdb.NewSaleRepo(db.Pool, pgdbConv.NewSaleConverterImpl())
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.NewOutboxEventConverterImpl())
	cartRepo := pgdb.NewCartRepo(db.Pool)
	statsRepo := pgdb.NewStatsRepo(db.Pool)
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.NewProductInfoConverterImpl(), a.cfg.Redis, a.logger)
	imageRepo := s3Repo.NewImageRepo(minioClient, a.cfg.Minio)

	imagesInfra := minioInfra.NewMinioInfrastructure(imageRepo, a.cfg.Minio, a.logger, a.bgCtx)
	a.closer.Add("minio cleanup", func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, minioCleanupTimeout)
		defer cancel()
		if err := imagesInfra.WaitForCleanup(waitCtx); err != nil {
			a.logger.Warnf("MinIO cleanup did not finish before shutdown, some objects may remain: %v", err)
		}
		return nil
	})

	txManager := tr.NewManager(db.Pool, a.cfg.Sales.TxTimeout, a.cfg.Sales.LockTimeout, a.logger)
	clk := clock.NewSystem()

	// Usecase
	saleUC := usecase.NewSaleUC(
		txManager,
		saleRepo,
		productRepo,
		customerRepo,
		outboxRepo,
		kafka.NewSaleEventEncoder(),
		cacheRepo,
		clk,
		a.cfg.Sales,
		a.logger,
	)
	productUC := usecase.NewProductUC(txManager, productRepo, categoryRepo, imagesInfra, a.logger, cacheRepo)
	customerUC := usecase.NewCustomerUC(customerRepo, a.logger)
	cartUC := usecase.NewCartUC(txManager, cartRepo, productRepo, customerRepo, saleUC, a.logger)
	statsUC := usecase.NewStatsUC(statsRepo, clk, a.cfg.Sales.TopLimit, a.logger)

	// Публикация событий
	if a.cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
		if err := producer.EnsureTopic(kafkaTopicTimeout); err != nil {
			_ = producer.Close()
			return e.Wrap("failed to ensure kafka topic", err)
		}
		a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })

		a.outbox = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, a.cfg.Outbox, db.Dsn)
		a.closer.Add("outbox worker", func(context.Context) error {
			a.outbox.Stop()
			a.logger.Infof("Outbox worker stopped")
			return nil
		})
	} else {
		a.logger.Warnf("KAFKA_BROKERS is empty: sale events stay in outbox until Kafka is configured")
	}

	// Транспорт
	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	a.grpcSrv.RegisterServices(productUC)
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger, a.cfg.Minio.MaxImageSize).Init(v1Http.UseCases{
		Sales:     saleUC,
		Products:  productUC,
		Customers: customerUC,
		Cart:      cartUC,
		Stats:     statsUC,
	}, db)
	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.closer.Add("http server", func(ctx context.Context) error {
		if err := a.httpSrv.Stop(ctx); err != nil {
			return e.Wrap("HTTP server shutdown", err)
		}
		a.logger.Infof("HTTP server stopped")
		return nil
	})

	return nil
}

// Run запускает серверы и воркеры и блокируется до сигнала остановки или фатальной ошибки.
func (a *App) Run() error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server failed", err)
		}
	}()
	a.grpcSrv.WatchDB(a.bgCtx, a.db)

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- e.Wrap("HTTP server failed", err)
		}
	}()

	if a.outbox != nil {
		a.outbox.Start(a.bgCtx)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "fatal server error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		return nil, e.Wrap("failed to connect to database", err)
	}

	if err := db.RunMigrations(logger); err != nil {
		db.Close()
		return nil, e.Wrap("failed to run migrations", err)
	}

	return db, nil
}
