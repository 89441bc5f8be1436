package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/edulib/library-service/library/config"
	"github.com/edulib/library-service/library/internal/handler"
	"github.com/edulib/library-service/library/internal/repository"
	"github.com/edulib/library-service/library/internal/server"
	"github.com/edulib/library-service/library/internal/service"
	"github.com/edulib/library-service/library/migrations"
	"github.com/edulib/library-service/pkg/kafka"
	"github.com/edulib/library-service/pkg/logger"
	"github.com/edulib/library-service/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}
	svc := service.NewService(repo, cfg.Borrowing, log)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Fatal("kafka.NewProducer", zap.Error(err))
	}
	consumerGroup, err := kafka.NewConsumerGroup(cfg.Kafka)
	if err != nil {
		log.Fatal("kafka.NewConsumerGroup", zap.Error(err))
	}

	consumeCtx, stopConsume := context.WithCancel(context.Background())
	go func() {
		if err := kafka.Consume(consumeCtx, consumerGroup, handler.NewConsumer(svc.SaveEvent, log), cfg.Kafka.Topic); err != nil {
			log.Error("kafka.Consume", zap.Error(err))
		}
	}()

	h := handler.New(svc, svc, svc, handler.NewEnqueuer(producer), cfg.Kafka.Topic, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	stopConsume()
	if err := consumerGroup.Close(); err != nil {
		log.Error("consumerGroup.Close", zap.Error(err))
	}
	if err := producer.Close(); err != nil {
		log.Error("producer.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
