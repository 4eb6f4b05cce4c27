package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hikelog/internal/config"
	"hikelog/internal/database"
	"hikelog/internal/email"
	"hikelog/internal/handlers"
	"hikelog/internal/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger.Initialize(logger.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	emailService := email.NewService(cfg)
	if emailService.IsEnabled() {
		logger.Info("Review reminders enabled with Mailgun", "recipient", cfg.ReviewReminderEmail)
	} else {
		logger.Info("Review reminders disabled - Mailgun not configured")
	}

	r, err := handlers.NewRouter(cfg, db, emailService)
	if err != nil {
		logger.Error("Failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment, "gear_edit_mode", cfg.GearEditMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "error", err)
		return
	}
	logger.Info("Server stopped")
}
