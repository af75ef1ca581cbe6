package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"runsight_backend/internal/config"
	"runsight_backend/internal/controller"
	"runsight_backend/internal/repository"
	"runsight_backend/internal/service"
	"runsight_backend/pkg/database"
	"runsight_backend/pkg/logger"
	"runsight_backend/pkg/monitoring"
	"runsight_backend/pkg/security"
	"runsight_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	scheduler       *cron.Cron
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	dailyRecord *repository.DailyRecordRepository
	activity    *repository.ActivityRepository
	sleep       *repository.SleepSummaryRepository
	syncState   *repository.SyncStateRepository
}

type services struct {
	auth      *service.AuthService
	user      *service.UserService
	storage   *service.StorageService
	workload  *service.WorkloadService
	analysis  *service.AnalysisService
	record    *service.RecordService
	dashboard *service.DashboardService
	sync      *service.SyncService
}

type controllers struct {
	auth      *controller.AuthController
	user      *controller.UserController
	record    *controller.RecordController
	analysis  *controller.AnalysisController
	dashboard *controller.DashboardController
	sync      *controller.SyncController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新：替换当前配置并通知所有回调。
// 鉴权中间件每次请求都从这里取配置，JWT 密钥等改动即时生效。
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		dailyRecord: repository.NewDailyRecordRepository(db),
		activity:    repository.NewActivityRepository(db),
		sleep:       repository.NewSleepSummaryRepository(db),
		syncState:   repository.NewSyncStateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, s.storage)
	s.workload = service.NewWorkloadService()
	s.analysis = service.NewAnalysisService(repos.dailyRecord, s.workload)
	s.dashboard = service.NewDashboardService(repos.dailyRecord, repos.syncState, s.workload, rdb)
	s.record = service.NewRecordService(repos.dailyRecord, s.dashboard)
	s.sync = service.NewSyncService(
		repos.dailyRecord,
		repos.activity,
		repos.sleep,
		repos.syncState,
		repos.user,
		s.dashboard,
		service.NewStravaClient(cfg.Strava),
		service.NewOuraClient(cfg.Oura),
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		user:      controller.NewUserController(s.user, s.auth),
		record:    controller.NewRecordController(s.record),
		analysis:  controller.NewAnalysisController(s.analysis, s.auth),
		dashboard: controller.NewDashboardController(s.dashboard, s.auth),
		sync:      controller.NewSyncController(s.sync, s.auth),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	// 中间件从 context 取配置
	router.Use(func(c *gin.Context) {
		c.Set("config", a.Config)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 600
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startScheduler 夜间定时同步
func (a *App) startScheduler(s *services, cfg *config.Config) {
	if !cfg.Sync.Enabled {
		return
	}

	a.scheduler = cron.New()
	_, err := a.scheduler.AddFunc(cfg.Sync.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		s.sync.SyncAllUsers(ctx)
	})
	if err != nil {
		logger.Log.Error("Failed to schedule provider sync", zap.Error(err))
		return
	}

	a.scheduler.Start()
	logger.Log.Info("Provider sync scheduled", zap.String("schedule", cfg.Sync.Schedule))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("runsight", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		// 关闭推迟到 Run 的优雅退出阶段，进程存活期间 span 批次才能持续上报
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, repos.user)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startScheduler(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.scheduler != nil {
		cronCtx := a.scheduler.Stop()
		<-cronCtx.Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	a.stopTracing()

	log.Println("Server exiting")
}

// stopTracing 刷出剩余的 span 批次并关闭 tracer provider，未开启追踪时无事可做
func (a *App) stopTracing() {
	if a.tracer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
}
