package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"vedirect-gateway/internal/config"
	"vedirect-gateway/internal/infra/kafka"
	"vedirect-gateway/internal/infra/mq"
	"vedirect-gateway/internal/infra/rabbitmq"
	"vedirect-gateway/internal/server"
	"vedirect-gateway/internal/source"
	"vedirect-gateway/internal/usecase"
	vedirect "vedirect-gateway/internal/usecase/vedirect"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "config file")
	pflag.Parse()

	// 1. 配置加载
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Log)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// 2. 基础设施层 (Kafka / RabbitMQ)
	producer := newProducer(cfg.MessageQueue, logger)
	defer producer.Close()

	// 3. 业务逻辑层 (分发器 & 处理器 & 设备注册表)
	dispatcher := usecase.NewDataDispatcher(producer, cfg.MessageQueue.Topic, cfg.Dispatcher.Workers, cfg.Dispatcher.BufferSize, logger)
	dispatcher.Start()
	defer dispatcher.Stop()

	filter, err := vedirect.NewInMemoryDeviceFilter(cfg.Devices)
	if err != nil {
		logger.Fatal("Invalid device filter", zap.Error(err))
	}
	registry := vedirect.NewDeviceRegistry(logger)
	h := vedirect.NewHandler(registry, dispatcher, filter, logger)
	h.PingOnDiscover = cfg.Devices.PingOnDiscover

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// 设备超时检查
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.Registry.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				registry.CheckStale(cfg.Registry.StaleTimeout)
			}
		}
	}()

	// 4. 接入层 (TCP & 串口)
	var srv *server.TCPServer
	if cfg.Server.Enabled {
		srv = server.NewTCPServer(cfg.Server, logger, h, registry)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Fatal("Server failed", zap.Error(err))
			}
		}()
	}
	if len(cfg.Serial.Ports) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			source.RunAll(ctx, cfg.Serial.Ports, cfg.Server.MaxFrameSize, h, logger)
		}()
	}

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()
	if srv != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Stop(stopCtx)
		stopCancel()
	}
	wg.Wait()
}

func newLogger(cfg config.LogConfig) *zap.Logger {
	writeSyncer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	})
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zap.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		writeSyncer,
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core, zap.AddCaller())
}

// newProducer 按配置选择消息队列，失败或未启用时退回 NoOp
func newProducer(cfg config.MessageQueueConfig, logger *zap.Logger) mq.Producer {
	if !cfg.Enabled {
		logger.Info("Message queue disabled")
		return mq.NewNoOpProducer()
	}

	switch cfg.Type {
	case "kafka":
		p, err := kafka.NewKafkaProducer(cfg.Kafka, cfg.Topic, logger)
		if err != nil {
			logger.Error("Failed to initialize Kafka producer", zap.Error(err))
			break
		}
		return p
	case "rabbitmq":
		// 连接在后台建立，未连接时 Produce 返回错误
		p, err := rabbitmq.NewRabbitMQProducer(cfg.RabbitMQ, logger)
		if err != nil {
			logger.Error("Failed to initialize RabbitMQ producer", zap.Error(err))
			break
		}
		return p
	default:
		logger.Error("Unknown message queue type", zap.String("type", cfg.Type))
	}
	return mq.NewNoOpProducer()
}
