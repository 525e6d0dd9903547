package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/flicky/agri-backoffice/internal/config"
	"github.com/flicky/agri-backoffice/internal/handler"
	"github.com/flicky/agri-backoffice/internal/middleware"
	"github.com/flicky/agri-backoffice/internal/qrcode"
	"github.com/flicky/agri-backoffice/internal/repository"
	"github.com/flicky/agri-backoffice/internal/service"
	"github.com/flicky/agri-backoffice/internal/storage"
	"github.com/flicky/agri-backoffice/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB
	mongoClient, err := repository.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal("connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal("ping MongoDB", zap.Error(err))
	}
	db := mongoClient.Database(cfg.Mongo.Database)
	store := repository.NewMongoStore(db)

	media, err := storage.NewGridFS(db, cfg.Mongo.MediaBucket, cfg.Mongo.MediaBaseURL)
	if err != nil {
		log.Fatal("open media bucket", zap.Error(err))
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Fatal("parse db config", zap.Error(err))
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("ping database", zap.Error(err))
	}
	if err := repository.EnsureAuditSchema(ctx, dbPool); err != nil {
		log.Fatal("ensure audit schema", zap.Error(err))
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("connect to Redis", zap.Error(err))
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal("connect to RabbitMQ", zap.Error(err))
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Fatal("open RabbitMQ channel", zap.Error(err))
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh); err != nil {
		log.Fatal("setup RabbitMQ", zap.Error(err))
	}

	// Publishing gets its own channel, separate from the consumer.
	publishCh, err := amqpConn.Channel()
	if err != nil {
		log.Fatal("open RabbitMQ publish channel", zap.Error(err))
	}
	defer publishCh.Close()
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(store)
	vendorRepo := repository.NewVendorRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	productRepo := repository.NewProductRepository(store)
	subsidyRepo := repository.NewSubsidyRepository(store)
	trainingRepo := repository.NewTrainingRepository(store)
	weatherRepo := repository.NewWeatherRepository(store)
	auditRepo := repository.NewAuditRepository(dbPool)
	sessionStore := repository.NewSessionStore(redisClient)

	// Services
	notifier := service.NewNotifier(worker.NewPublisher(publishCh), log)
	renderer := qrcode.NewChain(log,
		qrcode.NewSkip2Renderer(),
		qrcode.NewBarcodeRenderer(),
		qrcode.NewRemoteRenderer(cfg.QR.FallbackURL, cfg.QR.Timeout),
	)
	charts := service.NewChartRegistry()
	defer charts.Close()

	gate := service.NewSessionGate(userRepo, sessionStore, service.SessionConfig{
		Secret:            cfg.JWT.Secret,
		TTL:               cfg.JWT.Expiration,
		MaxFailedAttempts: int64(cfg.Auth.MaxFailedAttempts),
		LockoutWindow:     cfg.Auth.LockoutWindow,
	}, log)
	unsubscribe := gate.OnChange(func(evt service.SessionEvent) {
		log.Info("session changed",
			zap.String("type", string(evt.Type)),
			zap.String("user_id", evt.UserID),
			zap.Time("at", evt.At),
		)
	})
	defer unsubscribe()

	orderSvc := service.NewOrderService(orderRepo, notifier)
	vendorSvc := service.NewVendorService(vendorRepo, notifier)
	catalogSvc := service.NewCatalogService(productRepo, media, renderer, qrcode.NewGenerator(),
		redisClient, notifier, cfg.QR.Size, log)
	subsidySvc := service.NewSubsidyService(subsidyRepo)
	trainingSvc := service.NewTrainingService(trainingRepo)
	userSvc := service.NewUserService(userRepo, vendorRepo, notifier)
	weatherSvc := service.NewWeatherService(weatherRepo)
	dashboardSvc := service.NewDashboardService(userRepo, vendorRepo, orderRepo, productRepo)
	statisticsSvc := service.NewStatisticsService(orderRepo, charts)

	// Handlers
	sessionH := handler.NewSessionHandler(gate)
	orderH := handler.NewOrderHandler(orderSvc)
	vendorH := handler.NewVendorHandler(vendorSvc)
	productH := handler.NewProductHandler(catalogSvc)
	subsidyH := handler.NewSubsidyHandler(subsidySvc)
	trainingH := handler.NewTrainingHandler(trainingSvc)
	userH := handler.NewUserHandler(userSvc)
	weatherH := handler.NewWeatherHandler(weatherSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc, statisticsSvc, auditRepo)
	mediaH := handler.NewMediaHandler(media)
	staticH := handler.NewStaticHandler(cfg.Static.Root, cfg.Static.Index)
	healthH := handler.NewHealthHandler(mongoClient, dbPool, redisClient, amqpConn)

	// Worker
	auditWorker := worker.NewAuditWorker(consumeCh, auditRepo, worker.NewRedisDeduplicator(redisClient), log)

	// Router
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(log), middleware.Logger(log))
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)
	router.GET("/media/*path", mediaH.Serve)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/session", sessionH.SignIn)
		v1.GET("/session", sessionH.Current)

		admin := v1.Group("", middleware.AuthMiddleware(gate), middleware.AdminOnly())
		admin.DELETE("/session", sessionH.SignOut)
		admin.GET("/dashboard", dashboardH.Summary)
		admin.GET("/statistics", dashboardH.Statistics)
		admin.GET("/audit/:entity/:id", dashboardH.Audit)
		admin.GET("/weather-alerts", weatherH.Latest)

		orders := admin.Group("/orders")
		orders.GET("", orderH.List)
		orders.GET("/active", orderH.ListActive)
		orders.GET("/stats", orderH.Stats)
		orders.GET("/:id", orderH.Get)
		orders.PUT("/:id/status", orderH.UpdateStatus)

		vendors := admin.Group("/vendors")
		vendors.GET("", vendorH.List)
		vendors.GET("/:id", vendorH.Get)
		vendors.POST("/:id/approve", vendorH.Approve)
		vendors.POST("/:id/reject", vendorH.Reject)

		products := admin.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)
		products.GET("/:id/qr", productH.QRCode)
		products.POST("", productH.Create)
		products.PUT("/:id", productH.Update)
		products.DELETE("/:id", productH.Delete)

		subsidies := admin.Group("/subsidies")
		subsidies.GET("", subsidyH.List)
		subsidies.POST("", subsidyH.Create)
		subsidies.PUT("/:id", subsidyH.Update)
		subsidies.DELETE("/:id", subsidyH.Delete)

		training := admin.Group("/training")
		training.GET("", trainingH.List)
		training.POST("", trainingH.Create)
		training.PUT("/:id", trainingH.Update)
		training.DELETE("/:id", trainingH.Delete)
		training.POST("/:id/publish", trainingH.Publish)

		users := admin.Group("/users")
		users.GET("", userH.List)
		users.GET("/:id", userH.Get)
		users.PUT("/:id", userH.Update)
		users.DELETE("/:id", userH.Delete)
		users.POST("/:id/promote", userH.Promote)
	}
	router.NoRoute(staticH.Serve)

	if err := auditWorker.Start(ctx); err != nil {
		log.Fatal("start audit worker", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}

	auditWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg.Level = level
	return zcfg.Build()
}
