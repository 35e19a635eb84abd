// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"contracts-service/internal/config"
	"contracts-service/internal/db"
	catalogHandler "contracts-service/internal/handlers/catalog"
	contractHandler "contracts-service/internal/handlers/contract"
	pauseHandler "contracts-service/internal/handlers/pause"
	renewalHandler "contracts-service/internal/handlers/renewal"
	wsHandler "contracts-service/internal/handlers/websocket"
	"contracts-service/internal/middleware"
	"contracts-service/internal/pkg/jwt"
	"contracts-service/internal/pkg/lock"
	"contracts-service/internal/repository/postgres"
	catalogUsecase "contracts-service/internal/service/catalog"
	contractUsecase "contracts-service/internal/service/contract"
	"contracts-service/internal/service/fees"
	pauseUsecase "contracts-service/internal/service/pause"
	renewalUsecase "contracts-service/internal/service/renewal"
	"contracts-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer *http.Server
	pool       *pgxpool.Pool
	redis      redis.UniversalClient
	stopHub    context.CancelFunc
}

func NewServer() (*Server, error) {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}, nil
}

func newLogger(cfg config.AppConfig) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Start wires every dependency and blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	ctx := context.Background()
	logger := s.logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL, s.cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	dbWrapper := postgres.NewDB(pool)
	if err := dbWrapper.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("postgres connected")

	// ----- Redis -----
	var locker lock.Locker
	redisClient, err := db.NewRedis(db.RedisConfig{
		Addresses: []string{s.cfg.RedisAddr},
		Password:  s.cfg.RedisPass,
		DB:        s.cfg.RedisDB,
		PoolSize:  10,
	})
	switch {
	case err == nil:
		s.redis = redisClient
		locker = lock.NewRedisLocker(redisClient, s.cfg.ContractLockTTL, logger)
		logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))
	case s.cfg.IsDevelopment():
		// Single-process fallback; catalog reads go straight to postgres.
		logger.Warn("redis unavailable, using in-process locks", zap.Error(err))
		locker = lock.NewMemoryLocker()
	default:
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	// ----- JWT -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Business rules -----
	business, err := config.LoadBusiness(s.cfg.BusinessConfigPath)
	if err != nil {
		return err
	}

	// ----- Repositories -----
	contractRepo := postgres.NewContractRepository(pool)
	pauseRepo := postgres.NewPauseRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(verifier, logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Services -----
	catalogService := catalogUsecase.NewCatalogService(catalogRepo, s.redis, s.cfg.CatalogCacheTTL, logger)
	contractService := contractUsecase.NewContractService(contractRepo, locker, hub, logger)
	pauseService := pauseUsecase.NewPauseService(contractRepo, pauseRepo, locker, hub, logger)
	renewalService := renewalUsecase.NewRenewalService(
		contractRepo,
		catalogService,
		catalogService,
		catalogService,
		saleRepo,
		renewalUsecase.NewActivator(fees.NewResolver(business.Fees), business.DefaultRenewalMonths),
		locker,
		hub,
		logger,
	)

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.CORSAllowedOrigins),
	)

	// ----- Router -----
	SetupRouter(s.engine, &Handlers{
		ContractHandler: contractHandler.NewContractHandler(contractService),
		PauseHandler:    pauseHandler.NewPauseHandler(pauseService),
		RenewalHandler:  renewalHandler.NewRenewalHandler(renewalService, logger),
		CatalogHandler:  catalogHandler.NewCatalogHandler(catalogService),
		WSHandler:       wsHandler.NewWebSocketHandler(hub, s.cfg.CORSAllowedOrigins, logger),
		AuthMiddleware:  middleware.NewAuthMiddleware(verifier),
	})

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr), zap.String("env", s.cfg.AppEnv))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP, then closes the hub, Redis and the pool.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil {
			s.logger.Warn("redis close failed", zap.Error(cerr))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	_ = s.logger.Sync()
	return err
}

func (s *Server) Logger() *zap.Logger {
	return s.logger
}
