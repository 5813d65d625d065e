package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/config"
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/search"
	"github.com/fekuna/omnipos-catalog-sync/pkg/broker"
	"github.com/fekuna/omnipos-catalog-sync/pkg/cache"
	"github.com/fekuna/omnipos-catalog-sync/pkg/database/postgres"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	essearch "github.com/fekuna/omnipos-catalog-sync/pkg/search"

	catH "github.com/fekuna/omnipos-catalog-sync/internal/category/handler"
	catRepoPkg "github.com/fekuna/omnipos-catalog-sync/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-catalog-sync/internal/category/usecase"

	invH "github.com/fekuna/omnipos-catalog-sync/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-catalog-sync/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-catalog-sync/internal/inventory/usecase"

	prodH "github.com/fekuna/omnipos-catalog-sync/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-catalog-sync/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-catalog-sync/internal/product/usecase"

	searchListenerPkg "github.com/fekuna/omnipos-catalog-sync/internal/search/listener"
	searchRepoPkg "github.com/fekuna/omnipos-catalog-sync/internal/search/repository"
	searchSinkPkg "github.com/fekuna/omnipos-catalog-sync/internal/search/sink"
	searchUCPkg "github.com/fekuna/omnipos-catalog-sync/internal/search/usecase"

	syncH "github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/handler"
	syncRepoPkg "github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/repository"
	syncSchedPkg "github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/scheduler"
	syncUCPkg "github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/usecase"
	runRepoPkg "github.com/fekuna/omnipos-catalog-sync/internal/syncrun/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	searchRepo := searchRepoPkg.NewPGRepository(db)
	syncRepo := syncRepoPkg.NewPGRepository(db)
	runRepo := runRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 6. Initialize Kafka reindex-retry topic
	kafkaCfg := &broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ReindexTopic,
		GroupID: cfg.Kafka.GroupID,
	}
	kafkaProducer := broker.NewProducer(kafkaCfg)
	defer kafkaProducer.Close()
	kafkaConsumer := broker.NewConsumer(kafkaCfg)
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.ReindexTopic))

	// 7. Initialize Elasticsearch
	var sink search.Sink = searchSinkPkg.NopSink{}
	esClient, err := essearch.NewClient(&essearch.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch, index writes are dropped", zap.Error(err))
	} else {
		esSink := searchSinkPkg.NewElasticSink(esClient, cfg.Elastic.Index)
		if err := esSink.EnsureIndex(ctx); err != nil {
			appLogger.Warn("Could not create search index", zap.String("index", cfg.Elastic.Index), zap.Error(err))
		}
		sink = esSink
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 8. ERP client
	erpClient := erp.NewClient(&erp.Config{
		BaseURL:           cfg.ERP.BaseURL,
		ClientID:          cfg.ERP.ClientID,
		ClientSecret:      cfg.ERP.ClientSecret,
		Timeout:           cfg.ERP.Timeout,
		RequestsPerSecond: cfg.ERP.RequestsPerSecond,
	}, appLogger)

	// 9. Initialize UseCases
	catUC := catUCPkg.NewCategoryUseCase(catRepo, appLogger)
	searchUC := searchUCPkg.NewIndexUseCase(searchRepo, sink, catUC, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, searchUC, redisClient, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, appLogger)
	syncUC := syncUCPkg.NewSyncUseCase(
		syncRepo,
		erpClient,
		runRepo,
		searchUC,
		searchListenerPkg.NewReindexPublisher(kafkaProducer),
		redisClient,
		syncUCPkg.Options{
			Concurrency: cfg.Sync.Concurrency,
			SettleDelay: cfg.Sync.SettleDelay,
			LockTTL:     cfg.Sync.LockTTL,
		},
		appLogger,
	)

	// 10. Background workers
	reindexListener := searchListenerPkg.NewReindexListener(kafkaConsumer, searchUC, appLogger)
	go reindexListener.Start(ctx)

	scheduler := syncSchedPkg.NewScheduler(syncUC, cfg.Sync.Interval, appLogger)
	go scheduler.Start(ctx)

	// 11. HTTP trigger surface
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(appLogger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/sync", syncH.NewSyncHandler(syncUC, appLogger).Routes())
		prodH.NewProductHandler(prodUC, appLogger).Register(r)
		invH.NewInventoryHandler(invUC, appLogger).Register(r)
		catH.NewCategoryHandler(catUC, appLogger).Register(r)
	})

	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 12. gRPC health + reflection
	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", grpcPort), zap.Error(err))
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

// requestLogger logs one line per HTTP request with the chi request id.
func requestLogger(log logger.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("HTTP Request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}
