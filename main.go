package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dmarrec/authflow-be/internal/api"
	"github.com/dmarrec/authflow-be/internal/api/handlers"
	"github.com/dmarrec/authflow-be/internal/api/respond"
	"github.com/dmarrec/authflow-be/internal/auth"
	"github.com/dmarrec/authflow-be/internal/config"
	"github.com/dmarrec/authflow-be/internal/database"
	"github.com/dmarrec/authflow-be/internal/logger"
	"github.com/dmarrec/authflow-be/internal/mailer"
	"github.com/dmarrec/authflow-be/internal/monitoring"
	"github.com/dmarrec/authflow-be/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.AppEnv)
	respond.Init(cfg.AppEnv)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	userService := services.NewUserService(db)
	smtpMailer := mailer.NewSMTPMailer(cfg)
	authService := services.NewAuthService(userService, smtpMailer)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	guard := auth.NewGuard(issuer, userService)

	// Set up and run the background OTP sweeper
	sweeper := monitoring.NewSweeper(userService, cfg.OTPSweepInterval)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start OTP sweeper")
	}

	// Set up router
	authHandler := handlers.NewAuthHandler(authService, issuer, cfg.CookieExpireDays, cfg.IsProduction())
	router := api.NewRouter(authHandler, guard, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
