// Package main 提供infrawatch监控服务的入口点
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"infrawatch/internal/config"
	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring"
	"infrawatch/pkg/monitoring/alerting"
	"infrawatch/pkg/monitoring/collector"
	"infrawatch/pkg/notifier"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "./conf", "配置文件路径")
	showVersion := flag.Bool("version", false, "显示版本信息")
	flag.Parse()

	if *showVersion {
		fmt.Printf("infrawatch v%s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Printf("Git 提交: %s\n", GitCommit)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	logger, err := common.NewLogger(*cfg.Logger)
	if err != nil {
		log.Fatalf("初始化日志失败: %v\n", err)
	}
	common.SetLogger(logger)
	defer logger.Sync()

	zapLogger := logger.GetZapLogger("infrawatch")
	zapLogger.Info("infrawatch启动中", zap.String("version", Version))

	monitor, err := buildMonitor(cfg, logger)
	if err != nil {
		zapLogger.Fatal("初始化监控系统失败", zap.Error(err))
	}

	if err := monitor.Start(); err != nil {
		zapLogger.Fatal("启动监控系统失败", zap.Error(err))
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalChan
	zapLogger.Info("收到退出信号，正在优雅退出", zap.String("signal", sig.String()))

	monitor.Stop()
	zapLogger.Info("infrawatch已停止")
}

// buildMonitor 根据配置组装监控系统的各个组件
func buildMonitor(cfg *config.Config, logger *common.Logger) (*monitoring.Monitor, error) {
	zapLogger := logger.GetZapLogger("monitoring")

	var dbSource collector.DatabaseSource
	if cfg.Database.DSN != "" {
		db, err := openDatabase(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		dbCollector := collector.NewDatabaseCollector(collector.DatabaseCollectorConfig{
			DB:                 db,
			SlowQueryThreshold: time.Duration(cfg.Database.SlowQueryThresholdMs) * time.Millisecond,
			Logger:             zapLogger,
		})
		if err := db.Use(collector.NewGormMonitorPlugin(dbCollector)); err != nil {
			return nil, fmt.Errorf("注册数据库监控插件失败: %w", err)
		}
		dbSource = dbCollector
	}

	var cacheSource collector.CacheSource
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cacheSource = collector.NewCacheCollector(client, zapLogger)
	}

	dispatcher, err := buildDispatcher(cfg.Notify, logger)
	if err != nil {
		return nil, err
	}

	var storeDispatcher alerting.Dispatcher
	if dispatcher.ChannelCount() > 0 {
		storeDispatcher = dispatcher
	}

	return monitoring.New(monitoring.Config{
		Server:           collector.NewServerCollector(zapLogger),
		DB:               dbSource,
		Cache:            cacheSource,
		APICollector:     collector.NewAPICollector(zapLogger),
		Rules:            cfg.Monitor.Rules,
		Dispatcher:       storeDispatcher,
		CollectInterval:  time.Duration(cfg.Monitor.CollectIntervalSeconds) * time.Second,
		EvaluateInterval: time.Duration(cfg.Monitor.EvaluateIntervalSeconds) * time.Second,
		TrendCapacity:    cfg.Monitor.TrendCapacity,
		Logger:           zapLogger,
	}), nil
}

// openDatabase 建立MySQL连接并配置连接池
func openDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// buildDispatcher 根据通知配置注册启用的通知通道
func buildDispatcher(cfg *config.NotifyConfig, logger *common.Logger) (*notifier.Dispatcher, error) {
	dispatcher := notifier.NewDispatcher(logger.GetZapLogger("notify-dispatcher"))

	if cfg.Email != nil {
		emailNotifier, err := notifier.NewEmailNotifier("email", "邮件通知", cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("初始化邮件通道失败: %w", err)
		}
		dispatcher.Register(emailNotifier, cfg.Email.MinSeverity)
	}

	if cfg.Webhook != nil {
		webhookNotifier, err := notifier.NewWebhookNotifier("webhook", "Webhook通知", cfg.Webhook)
		if err != nil {
			return nil, fmt.Errorf("初始化Webhook通道失败: %w", err)
		}
		dispatcher.Register(webhookNotifier, cfg.Webhook.MinSeverity)
	}

	return dispatcher, nil
}
