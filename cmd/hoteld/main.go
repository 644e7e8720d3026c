package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/internal/audit/dynamoaudit"
	"github.com/MarkoPoloResearchLab/hospedagem/internal/gateway/mercadopago"
	"github.com/MarkoPoloResearchLab/hospedagem/internal/grpcapi"
	"github.com/MarkoPoloResearchLab/hospedagem/internal/httpapi"
	"github.com/MarkoPoloResearchLab/hospedagem/internal/notify/redisnotify"
	"github.com/MarkoPoloResearchLab/hospedagem/internal/oplog"
	"github.com/MarkoPoloResearchLab/hospedagem/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/hospedagem/internal/store/pglock"
	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hoteld: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "hoteld",
		Short:         "Hotel booking engine HTTP and gRPC server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
	registerFlags(cmd)
	return cmd
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	if err := gormstore.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	store := gormstore.New(gormDB)
	if len(cfg.Rooms) > 0 {
		if err := store.SeedRooms(ctx, cfg.Rooms); err != nil {
			return err
		}
		logger.Info("room catalog seeded", zap.Int("rooms", len(cfg.Rooms)))
	}

	locks := booking.NewLockManager(cfg.LockWaitTimeout)
	var roomLocker booking.RoomLocker = locks
	if driver == driverPostgres {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("lock pool: %w", err)
		}
		defer pool.Close()
		roomLocker = pglock.New(pool, pglock.WithWaitTimeout(cfg.LockWaitTimeout))
		logger.Info("using postgres advisory room locks")
	}

	options, closeSideChannels, err := sideChannels(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSideChannels()

	services, err := buildServices(store, locks, roomLocker, options)
	if err != nil {
		return err
	}
	if cfg.GRPC.ListenAddr == "" {
		return httpapi.Run(ctx, cfg.HTTP, services, logger)
	}
	return serveBoth(ctx, cfg, services, logger)
}

// serveBoth runs the HTTP and gRPC listeners side by side; either one failing
// stops the other.
func serveBoth(ctx context.Context, cfg *runtimeConfig, services httpapi.Services, logger *zap.Logger) error {
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	grpcDone := make(chan error, 1)
	go func() {
		err := grpcapi.Run(serveCtx, cfg.GRPC, services.Engine, services.Store, logger)
		if err != nil {
			cancel()
		}
		grpcDone <- err
	}()
	httpErr := httpapi.Run(serveCtx, cfg.HTTP, services, logger)
	cancel()
	return errors.Join(httpErr, <-grpcDone)
}

func buildServices(store booking.Store, locks *booking.LockManager, roomLocker booking.RoomLocker, options []booking.ServiceOption) (httpapi.Services, error) {
	now := func() time.Time { return time.Now().UTC() }
	availability, err := booking.NewAvailabilityChecker(store)
	if err != nil {
		return httpapi.Services{}, err
	}
	allocator, err := booking.NewAllocator(store, roomLocker, now, options...)
	if err != nil {
		return httpapi.Services{}, err
	}
	engine, err := booking.NewEngine(store, locks, now, options...)
	if err != nil {
		return httpapi.Services{}, err
	}
	ledger, err := booking.NewLoyaltyLedger(store, now, options...)
	if err != nil {
		return httpapi.Services{}, err
	}
	auditor, err := booking.NewAuditor(store, allocator, engine, now, options...)
	if err != nil {
		return httpapi.Services{}, err
	}
	return httpapi.Services{
		Store:        store,
		Availability: availability,
		Allocator:    allocator,
		Engine:       engine,
		Loyalty:      ledger,
		Auditor:      auditor,
		Locks:        locks,
	}, nil
}

// sideChannels wires the optional audit trail, notifier and card gateway.
func sideChannels(ctx context.Context, cfg *runtimeConfig, logger *zap.Logger) ([]booking.ServiceOption, func(), error) {
	closers := make([]func(), 0)
	closeAll := func() {
		for index := len(closers) - 1; index >= 0; index-- {
			closers[index]()
		}
	}

	loggers := oplog.Multi{oplog.NewZapLogger(logger)}
	if cfg.DynamoTable != "" {
		client, err := dynamoaudit.NewClient(ctx, dynamoaudit.ClientConfig{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, closeAll, err
		}
		recorder, err := dynamoaudit.New(client, cfg.DynamoTable, func(err error) {
			logger.Warn("audit write failed", zap.Error(err))
		})
		if err != nil {
			return nil, closeAll, err
		}
		loggers = append(loggers, recorder)
		logger.Info("dynamodb audit enabled", zap.String("table", cfg.DynamoTable))
	}
	options := []booking.ServiceOption{booking.WithOperationLogger(loggers)}

	if cfg.RedisAddr != "" {
		client := redisnotify.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		closers = append(closers, func() { _ = client.Close() })
		channel := cfg.RedisChannel
		if channel == "" {
			channel = redisnotify.DefaultChannel
		}
		notifier, err := redisnotify.New(client, channel)
		if err != nil {
			return nil, closeAll, err
		}
		options = append(options, booking.WithNotifier(notifier))
		logger.Info("redis notifications enabled", zap.String("addr", cfg.RedisAddr), zap.String("channel", channel))
	}

	if cfg.MercadoPagoToken != "" {
		gateway, err := mercadopago.New(cfg.MercadoPagoToken)
		if err != nil {
			return nil, closeAll, err
		}
		options = append(options, booking.WithPaymentGateway(gateway))
		logger.Info("mercado pago reconciliation enabled")
	}
	return options, closeAll, nil
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, string, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, "", err
	}

	var db *gorm.DB
	cfg := &gorm.Config{TranslateError: true}
	switch driver {
	case driverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case driverSQLite:
		db, err = gorm.Open(sqlite.Open(sqlitePath), cfg)
	default:
		return nil, nil, "", fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, "", err
	}
	if driver == driverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, driver, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres, "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		parsed, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := parsed.Path
		if path == "" {
			path = parsed.Host
		}
		if path == "" || path == "/" {
			path = "hospedagem.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return driverSQLite, sqlitePath, err
	}
	// Anything else is a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return driverSQLite, sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(".", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}
