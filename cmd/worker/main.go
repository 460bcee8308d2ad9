package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/services"
	"github.com/social-feed/social-feed/internal/workers"
	"github.com/social-feed/social-feed/pkg/cache"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

// 独立运行的事件消费者，配合 worker.embedded=false 使用
func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Social Feed Worker...")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 初始化Redis缓存
	cacheStore, err := cache.Connect(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		// 进程内缓存与API进程不共享，失效没有意义
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer cacheStore.Close()

	// 初始化Kafka消费者
	consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SocialEvents, cfg.Kafka.ConsumerGroup, logger)
	defer consumer.Close()

	userCache := services.NewUserCache(cacheStore, cfg.Cache.UserTTL, nil, logger)
	worker := workers.NewEventWorker(userCache, consumer, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := worker.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Event worker stopped with error")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	logger.Info("Shutting down worker...")
	stop()
	<-done

	logger.Info("Worker exited")
}
