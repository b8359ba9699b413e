package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cafe-schedule/internal/api"
	"cafe-schedule/internal/config"
	"cafe-schedule/internal/database"
	"cafe-schedule/internal/handler"
	"cafe-schedule/internal/repository"
	"cafe-schedule/internal/service"
	"cafe-schedule/pkg/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetConfig()
	logger := cfg.NewLogger()
	logger.Info("Config initialized...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	employeeRepo, err := repository.NewGormEmployeeRepository(db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create employee repository")
	}

	shiftRepo, err := repository.NewGormShiftRepository(db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create shift repository")
	}

	permissionRepo, err := repository.NewGormPermissionRepository(db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create permission repository")
	}

	userRepo, err := repository.NewGormUserRepository(db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create user repository")
	}

	permissionService, err := service.NewPermissionService(ctx, permissionRepo, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load permissions")
	}

	employeeService := service.NewEmployeeService(employeeRepo, logger)
	scheduleService := service.NewScheduleService(shiftRepo, employeeRepo, logger)
	userService := service.NewUserService(userRepo, employeeRepo, permissionService, logger)

	// Инициализируем директора из конфига
	director, err := userService.InitializeDirector(ctx, cfg.BaseDirectorChatID, cfg.BaseDirectorUsername)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize director")
	} else if director != nil {
		logger.WithFields(logrus.Fields{
			"user_id":  director.ID,
			"username": director.Username,
			"chat_id":  cfg.BaseDirectorChatID,
		}).Info("Director initialized")
	}

	h := api.NewHandler(employeeService, scheduleService, permissionService, userService)
	mw := api.NewMiddleware(userService, permissionService, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           api.NewRouter(h, mw),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	var client *telegram.Client
	if cfg.BotEnabled() {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Telegram client")
		}

		logger.Infof("Authorized on account %s", client.Bot.Self.UserName)

		botHandler := handler.NewHandler(
			client.Bot,
			userService,
			employeeService,
			scheduleService,
			permissionService,
			cfg.BaseDirectorChatID,
			logger,
		)

		go botHandler.HandleUpdates(ctx, client.Updates())
		logger.Info("Bot started")
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN is empty, bot disabled")
	}

	logger.Info("Service started. Press Ctrl+C to stop.")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown failed")
	}

	if client != nil {
		client.Stop()
	}

	// Закрываем соединение с БД
	if err := database.Close(db); err != nil {
		logger.WithError(err).Warn("Error closing database")
	}

	logger.Info("Service stopped gracefully")
}
