package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"daylog/internal/bot"
	"daylog/internal/config"
	"daylog/internal/repository"
	"daylog/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	recurringRepo := repository.NewRecurringTaskRepository(db)
	clientRepo := repository.NewClientRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	teamRepo := repository.NewTeamRepository(db)

	taskSvc := service.NewTaskService(taskRepo, projectRepo, cfg.Timezone)
	recurringSvc := service.NewRecurringTaskService(recurringRepo, projectRepo)
	clientSvc := service.NewClientService(clientRepo, projectRepo)
	teamSvc := service.NewTeamService(teamRepo, userRepo)
	digestSvc := service.NewDigestService(taskSvc, recurringSvc, cfg.Timezone)
	rolloverSvc := service.NewRolloverService(recurringRepo, taskRepo, userRepo, cfg.Timezone)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, taskSvc, recurringSvc, clientSvc, teamSvc, digestSvc, cfg.Timezone)
	if err != nil {
		logrus.WithError(err).Fatal("bot")
	}

	scheduler := service.NewSchedulerService(cfg.Timezone)
	if _, err := scheduler.ScheduleDaily(cfg.DigestTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if n, err := rolloverSvc.MaterializeAll(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("materialize recurring tasks")
		} else if n > 0 {
			logrus.WithField("created", n).Info("recurring tasks materialized")
		}
		if err := telegramBot.SendDailyDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("send digests")
		}
	}); err != nil {
		logrus.WithError(err).Fatal("schedule digests")
	}
	// Templates created during the day still materialize the same day.
	if _, err := scheduler.ScheduleInterval(time.Hour, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if n, err := rolloverSvc.MaterializeAll(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("materialize recurring tasks")
		} else if n > 0 {
			logrus.WithField("created", n).Info("recurring tasks materialized")
		}
	}); err != nil {
		logrus.WithError(err).Fatal("schedule materialization")
	}
	scheduler.Start()
	defer scheduler.Stop()

	logrus.Info("daylog bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Fatal("bot stopped with error")
	}
	logrus.Info("shutdown complete")
}
