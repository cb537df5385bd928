// Command server runs the MES REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/mes/backend/internal/application/identity"
	maintapp "github.com/mes/backend/internal/application/maintenance"
	masterapp "github.com/mes/backend/internal/application/master"
	materialapp "github.com/mes/backend/internal/application/material"
	numberingapp "github.com/mes/backend/internal/application/numbering"
	outsourcingapp "github.com/mes/backend/internal/application/outsourcing"
	prodapp "github.com/mes/backend/internal/application/production"
	qualityapp "github.com/mes/backend/internal/application/quality"
	shippingapp "github.com/mes/backend/internal/application/shipping"
	systemapp "github.com/mes/backend/internal/application/system"
	"github.com/mes/backend/internal/infrastructure/auth"
	"github.com/mes/backend/internal/infrastructure/cache"
	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/mes/backend/internal/infrastructure/event"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/internal/infrastructure/printing"
	"github.com/mes/backend/internal/infrastructure/scheduler"
	"github.com/mes/backend/internal/infrastructure/storage"
	"github.com/mes/backend/internal/infrastructure/telemetry"
	"github.com/mes/backend/internal/interfaces/http/handler"
	"github.com/mes/backend/internal/interfaces/http/middleware"
	"github.com/mes/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry: traces, metrics, logs and profiles. Each provider is a no-op when disabled.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log provider", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		// Tee the OTLP bridge next to stdout
		log, err = logger.New(logCfg, logProvider.Core(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", zap.Error(err))
	}
	if profiler != nil && profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if profiler != nil {
			_ = profiler.Stop()
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Log provider shutdown failed", zap.Error(err))
		}
		_ = logger.Sync(log)
	}()

	log.Info("Starting MES Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("auth_mode", cfg.Auth.Mode),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel), logger.WithSlowThreshold(cfg.Database.SlowQuery))
	db, err := persistence.NewDatabase(ctx, &cfg.Database,
		persistence.WithGormLogger(gormLog),
		persistence.WithLogger(log),
		persistence.WithConnectRetry(cfg.Database.ConnectRetries, cfg.Database.ConnectDelay))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		db.LogPoolStats()
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(cfg.Telemetry, cfg.Database.DBName, log).Register(db.DB); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
		log.Info("Schema auto-migrated")
	}
	log.Info("Database connected successfully")

	// Cache store; Redis when enabled and reachable, memory otherwise
	store, err := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()
	var redisClient *redis.Client
	if rs, ok := store.(*cache.RedisStore); ok {
		redisClient = rs.Client()
	}

	// Event bus
	eventBus := event.NewBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	codeCache := cache.NewComCodeCache(store, cfg.Redis.CacheTTL, log)
	eventBus.Subscribe(codeCache)

	var meter metric.Meter
	if cfg.Telemetry.MetricsEnabled {
		meter = meterProvider.Meter("mes-backend")
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:  meter,
			Logger: log,
			Source: telemetry.NewGormBacklogSource(db.DB),
		})
		if err != nil {
			log.Warn("Business metrics disabled", zap.Error(err))
		} else {
			eventBus.Subscribe(businessMetrics)
			businessMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
			defer businessMetrics.Stop()
		}
	}

	// Object storage for equipment attachments
	var objects masterapp.ObjectStorage = storage.NewNoopStorage("")
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3Storage(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Attachment bucket check failed", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		objects = s3
	}

	// Label PDF rendering
	var labelRenderer materialapp.LabelRenderer
	if cfg.Printing.Enabled {
		renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			Timeout:   cfg.Printing.Timeout,
			RemoteURL: cfg.Printing.RemoteURL,
			NoSandbox: cfg.Printing.NoSandbox,
			MaxTabs:   cfg.Printing.MaxTabs,
			Logger:    log,
		})
		if err != nil {
			log.Fatal("Failed to initialize label renderer", zap.Error(err))
		}
		defer func() { _ = renderer.Close() }()
		labelRenderer = printing.NewLabelPrinter(renderer, printing.LabelLayout{})
	}

	// Token revocation; shared through Redis when the cache uses it
	var revocations auth.RevocationStore = auth.NewInMemoryRevocationStore()
	if redisClient != nil {
		revocations = auth.NewRedisRevocationStore(redisClient)
	}
	var tokens *auth.TokenService
	if cfg.Auth.Mode == config.AuthModeJWT {
		tokens = auth.NewTokenService(cfg.Auth)
	}

	// Repositories and transaction scopes
	repos := persistence.NewRepositories(db.DB)
	identityTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) identityapp.Repositories { return r })
	numberingTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) numberingapp.Repositories { return r })
	systemTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) systemapp.Repositories { return r })
	materialTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) materialapp.Repositories { return r })
	productionTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) prodapp.Repositories { return r })
	qualityTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) qualityapp.Repositories { return r })
	maintenanceTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) maintapp.Repositories { return r })
	outsourcingTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) outsourcingapp.Repositories { return r })
	shippingTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) shippingapp.Repositories { return r })
	partImportTx := persistence.NewTransactionScope(db.DB, func(r *persistence.Repositories) masterapp.PartImportRepositories { return r })

	// Application services
	authService := identityapp.NewAuthService(repos.Users(), repos.Roles(), cfg.Auth.Mode, tokens, revocations, log)
	userService := identityapp.NewUserService(repos.Users(), repos.Roles(), log)
	roleService := identityapp.NewRoleService(repos.Roles(), repos.Users(), identityTx, log)

	comCodeService := masterapp.NewComCodeService(repos.ComCodes(), codeCache, eventBus)
	partService := masterapp.NewPartService(repos.Parts(), repos.Boms(), repos.Routings())
	partImportService := masterapp.NewPartImportService(repos.Parts(), partImportTx)
	equipmentService := masterapp.NewEquipmentService(repos.Equipments(), repos.EquipAttachments(), objects, log)
	partnerService := masterapp.NewPartnerService(repos.Partners(), repos.Warehouses())

	numberingService := numberingapp.NewService(repos.Rules(), numberingTx)
	configService := systemapp.NewConfigService(repos.SysConfigs(), systemTx)

	purchaseOrderService := materialapp.NewPurchaseOrderService(repos.PurchaseOrders(), materialTx)
	materialServices := handler.MaterialServices{
		Arrivals:  materialapp.NewArrivalService(repos.PurchaseOrders(), repos.MatTransactions(), materialTx),
		Receiving: materialapp.NewReceivingService(repos.MatLots(), repos.MatTransactions(), materialTx),
		Lots:      materialapp.NewLotService(repos.MatLots(), repos.MatStocks()),
		Issues:    materialapp.NewIssueService(repos.MatIssues(), materialTx),
		Stocks:    materialapp.NewStockService(repos.MatStocks(), repos.MatTransactions()),
		Labels:    materialapp.NewLabelService(repos.LabelLogs(), materialTx, labelRenderer),
	}

	jobOrderService := prodapp.NewJobOrderService(repos.JobOrders(), repos.ProdResults(), repos.Parts(), productionTx, eventBus)
	prodResultService := prodapp.NewProdResultService(repos.ProdResults(), repos.JobOrders(), repos.Equipments(), repos.Users(), eventBus)
	prodPlanService := prodapp.NewProdPlanService(repos.ProdPlans(), repos.Parts(), productionTx)

	defectService := qualityapp.NewDefectService(repos.DefectLogs(), repos.RepairLogs(), qualityTx, eventBus)
	oqcService := qualityapp.NewOqcService(repos.OqcRequests(), repos.Boxes(), qualityTx, eventBus)
	inspectService := qualityapp.NewInspectResultService(repos.InspectResults(), qualityTx, eventBus)

	pmService := maintapp.NewPmService(repos.PmPlans(), repos.PmWorkOrders(), repos.Equipments(), maintenanceTx)
	consumableService := maintapp.NewConsumableService(repos.Consumables(), repos.ConsumableLogs(), maintenanceTx)

	vendorService := outsourcingapp.NewVendorService(repos.SubconVendors())
	subconOrderService := outsourcingapp.NewOrderService(repos.SubconOrders(), repos.SubconVendors(),
		repos.SubconDeliveries(), repos.SubconReceives(), outsourcingTx)

	boxService := shippingapp.NewBoxService(repos.Boxes(), repos.Parts(), shippingTx)
	palletService := shippingapp.NewPalletService(repos.Pallets(), repos.Boxes(), shippingTx)
	shipmentService := shippingapp.NewShipmentService(repos.Shipments(), repos.Pallets(), shippingTx, eventBus)
	returnService := shippingapp.NewShipReturnService(repos.ShipReturns(), repos.Shipments(), repos.Parts(), shippingTx, eventBus)

	// PM work-order generation for the coming month
	if cfg.Scheduler.Enabled {
		pmScheduler := scheduler.NewScheduler(cfg.Scheduler, scheduler.NewPmExecutor(pmService, log), log)
		if err := pmScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start PM scheduler", zap.Error(err))
		}
		defer func() {
			if err := pmScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping PM scheduler", zap.Error(err))
			}
		}()

		var tenants scheduler.TenantProvider = scheduler.PlanTenants{Lister: repos.PlanTenants()}
		if len(cfg.Scheduler.Tenants) > 0 {
			static, err := scheduler.ParseTenants(cfg.Scheduler.Tenants)
			if err != nil {
				log.Fatal("Invalid scheduler tenants", zap.Error(err))
			}
			tenants = static
		}
		trigger := scheduler.NewCronTrigger(cfg.Scheduler, pmScheduler, tenants, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start PM trigger", zap.Error(err))
		}
		defer func() { _ = trigger.Stop(context.Background()) }()
		log.Info("PM scheduler started",
			zap.Int("run_day", cfg.Scheduler.RunDay),
			zap.Int("workers", cfg.Scheduler.WorkerPoolSize),
		)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id, recovery, tracing, access log, security
	// headers, CORS, body limit, rate limit, metrics, profiling labels.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log,
		logger.WithQuietPaths("/health"),
		logger.WithSlowRequest(cfg.HTTP.SlowRequest)))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(cfg.HTTP))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(newLimiter(cfg.HTTP, redisClient), log))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
			zap.Bool("shared", redisClient != nil),
		)
	}
	engine.Use(middleware.HTTPMetrics(meter, log))
	engine.Use(middleware.Profiling(profiler != nil && profiler.IsEnabled()))

	// Health check endpoint (outside API versioning)
	handler.NewHealthHandler(healthChecks(db, redisClient)).RegisterRoutes(&engine.RouterGroup)

	partHandler := handler.NewPartHandler(partService)
	partHandler.SetImportService(partImportService)

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithAPIMiddleware(
			middleware.Auth(middleware.AuthConfig{
				Authenticator: authService,
				SkipPaths:     []string{"/api/v1/auth/login"},
				Logger:        log,
			}),
			middleware.Tenant(),
			middleware.SpanEnricher(),
			middleware.Timeout(cfg.HTTP.RequestTimeout),
		),
	)
	r.Register(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService, authService),
		handler.NewRoleHandler(roleService),
		handler.NewComCodeHandler(comCodeService),
		partHandler,
		handler.NewEquipmentHandler(equipmentService),
		handler.NewPartnerHandler(partnerService),
		handler.NewNumberingHandler(numberingService),
		handler.NewConfigHandler(configService),
		handler.NewPurchaseOrderHandler(purchaseOrderService),
		handler.NewMaterialHandler(materialServices),
		handler.NewProductionHandler(jobOrderService, prodResultService, prodPlanService),
		handler.NewQualityHandler(defectService, oqcService, inspectService),
		handler.NewMaintenanceHandler(pmService, consumableService),
		handler.NewOutsourcingHandler(vendorService, subconOrderService),
		handler.NewShippingHandler(boxService, palletService, shipmentService, returnService),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newLimiter shares the rate-limit window through Redis when available
func newLimiter(cfg config.HTTPConfig, client *redis.Client) middleware.Limiter {
	if client != nil {
		return middleware.NewRedisLimiter(client, cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	return middleware.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
}

// healthChecks returns the dependencies checked by GET /health
func healthChecks(db *persistence.Database, client *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
