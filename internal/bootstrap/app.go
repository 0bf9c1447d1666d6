package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mindhaven/internal/config"
	"mindhaven/internal/model"
	mysqlClient "mindhaven/internal/platform/mysql"
	rabbitmqClient "mindhaven/internal/platform/rabbitmq"
	redisClient "mindhaven/internal/platform/redis"
	"mindhaven/internal/repository"
	"mindhaven/internal/worker"
)

// App owns process-wide connections. Redis and MQConn are nil when their
// address is not configured.
type App struct {
	Config        *config.Config
	Log           *slog.Logger
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	MessageWorker *worker.MessagePersistWorker

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, StartedAt: time.Now()}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), log)
	if err != nil {
		return nil, err
	}
	a.MySQL = mysqlDB
	if err := Migrate(mysqlDB); err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Redis = redisCli
	} else {
		log.Warn("redis disabled, caches are off")
	}

	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(cfg.RabbitMQ.URL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.MQConn = mqConn

		messageRepo := repository.NewTherapyMessageRepository(mysqlDB)
		messageWorker := worker.NewMessagePersistWorker(mqConn, messageRepo, cfg.RabbitMQ.TherapyMessageQueue, log)
		if err := messageWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start message worker failed: %w", err)
		}
		a.MessageWorker = messageWorker
	} else {
		log.Warn("rabbitmq disabled, therapy messages are persisted synchronously")
	}

	return a, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
