package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-device-auth/auth"
	"github.com/jrsteele09/go-device-auth/devicelogin"
	"github.com/jrsteele09/go-device-auth/identity/oidcprovider"
	"github.com/jrsteele09/go-device-auth/internal/config"
	"github.com/jrsteele09/go-device-auth/roles"
	"github.com/jrsteele09/go-device-auth/server"
	"github.com/jrsteele09/go-device-auth/sessions"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() error {
	_ = godotenv.Load() // optional .env for local development

	cfg, err := config.New()
	if err != nil {
		return err
	}
	configureLogging(cfg)
	displayAppname(cfg.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := oidcprovider.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("oidcprovider.New: %w", err)
	}

	sessionRepo := sessions.NewInMemoryRepo(
		cfg.GetMaxSessionLifetime(),
		sessions.WithSweepInterval(cfg.GetSweepInterval()),
	)
	defer sessionRepo.Close()

	resolver := roles.NewResolver(cfg.GetGroupRoleMapping(), cfg.GetDefaultRole())

	orchestrator, err := devicelogin.New(
		provider,
		devicelogin.NewInMemoryRepo(),
		sessionRepo,
		resolver,
		devicelogin.WithLoginTimeout(cfg.GetLoginTimeout()),
		devicelogin.WithPollInterval(cfg.GetPollInterval()),
		devicelogin.WithSessionTTL(cfg.GetSessionTTL()),
		devicelogin.WithSweepInterval(cfg.GetSweepInterval()),
	)
	if err != nil {
		return fmt.Errorf("devicelogin.New: %w", err)
	}
	defer orchestrator.Close()

	guard, err := auth.NewSessionGuard(sessionRepo)
	if err != nil {
		return fmt.Errorf("auth.NewSessionGuard: %w", err)
	}

	srv, err := server.New(cfg, guard, orchestrator, sessionRepo)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func configureLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
