package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/librovault/library-service/config"
	"github.com/librovault/library-service/internal/handler"
	"github.com/librovault/library-service/internal/notify"
	"github.com/librovault/library-service/internal/repository"
	"github.com/librovault/library-service/internal/server"
	"github.com/librovault/library-service/internal/service"
	"github.com/librovault/library-service/migrations"
	"github.com/librovault/library-service/pkg/kafka"
	"github.com/librovault/library-service/pkg/logger"
	"github.com/librovault/library-service/pkg/mail"
	"github.com/librovault/library-service/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "library")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}

	bookRepo, err := repository.NewBookRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo books %v", err)
	}
	userRepo, err := repository.NewUserRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo users %v", err)
	}
	borrowRepo, err := repository.NewBorrowRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo borrows %v", err)
	}
	statsRepo, err := repository.NewStatsRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo stats %v", err)
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("kafka producer %v", err)
	}
	sender := mail.NewSender(cfg.SMTP)

	authSvc := service.NewAuthService(userRepo, sender, log)
	bookSvc := service.NewBookService(bookRepo, log)
	borrowSvc := service.NewBorrowService(bookRepo, userRepo, borrowRepo, service.NewEnqueuer(producer), log)
	userSvc := service.NewUserService(userRepo, log)
	statsSvc := service.NewStatsService(statsRepo, log)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.StatsConsumerGroup)
	if err != nil {
		return fmt.Errorf("kafka consumer %v", err)
	}
	go kafka.Consume(ctx, consumer, handler.NewConsumer(statsSvc.ApplyEvent, log), kafka.BorrowTopic, log)

	notifier := notify.New(cfg.Notify, borrowRepo, sender, log)
	go notifier.Run(ctx)

	h := handler.New(authSvc, bookSvc, borrowSvc, userSvc, statsSvc, log)
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
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	if err = producer.Close(); err != nil {
		log.Error("producer.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
