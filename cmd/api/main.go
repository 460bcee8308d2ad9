package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/handlers"
	"github.com/social-feed/social-feed/internal/metrics"
	"github.com/social-feed/social-feed/internal/middleware"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/internal/services"
	"github.com/social-feed/social-feed/internal/workers"
	"github.com/social-feed/social-feed/pkg/cache"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Social Feed API server...")

	// 初始化数据库
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// 自动迁移数据库表
	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}
	store := repository.NewStore(db.DB)

	// Redis不可用时退化为进程内缓存
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cacheStore, err := cache.Connect(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-memory user cache")
	}
	defer cacheStore.Close()

	// 指标
	var m *metrics.Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m, metricsHandler, err = metrics.Setup(cfg.Metrics.ServiceName)
		if err != nil {
			logger.WithError(err).Fatal("Failed to set up metrics")
		}
	}

	// 初始化Kafka生产者
	producer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SocialEvents)
	defer producer.Close()

	// 初始化服务
	events := services.NewEventPublisher(producer, logger, m)
	engagement := services.NewEngagementService(store, logger, m)
	userCache := services.NewUserCache(cacheStore, cfg.Cache.UserTTL, m, logger)

	userService := services.NewUserService(store, userCache, events, cfg.Feed, logger)
	feedService := services.NewFeedService(store, engagement, cfg.Feed, logger)
	postService := services.NewPostService(store, engagement, events, cfg.Feed, logger)
	likeService := services.NewLikeService(store, events, cfg.Feed, logger)
	repostService := services.NewRepostService(store, events, cfg.Feed, logger)
	commentService := services.NewCommentService(store, engagement, events, cfg.Feed, logger)
	shareService := services.NewShareService(store, events, cfg.Feed, logger)

	// 内嵌事件消费者
	if cfg.Worker.Embedded {
		consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SocialEvents, cfg.Kafka.ConsumerGroup, logger)
		defer consumer.Close()

		worker := workers.NewEventWorker(userCache, consumer, logger)
		go func() {
			if err := worker.Start(ctx); err != nil && ctx.Err() == nil {
				logger.WithError(err).Error("Event worker stopped with error")
			}
		}()
	}

	// 初始化处理器
	h := &handlers.Handlers{
		Users:      handlers.NewUserHandler(userService, cfg.JWT, cfg.Feed),
		Feed:       handlers.NewFeedHandler(feedService, cfg.Feed),
		Posts:      handlers.NewPostHandler(postService, likeService, repostService, cfg.Feed),
		Comments:   handlers.NewCommentHandler(commentService, cfg.Feed),
		Engagement: handlers.NewEngagementHandler(likeService, shareService, cfg.Feed),
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.Metrics(m),
		middleware.CORS(),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	handlers.RegisterRoutes(router, h, &cfg.JWT)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
