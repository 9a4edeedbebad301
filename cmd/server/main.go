package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "campusportal/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"campusportal/internal/auth"
	"campusportal/internal/cache"
	"campusportal/internal/config"
	"campusportal/internal/db"
	"campusportal/internal/handler"
	"campusportal/internal/logging"
	"campusportal/internal/repository"
	"campusportal/internal/router"
	"campusportal/internal/service"
)

// Fixture account available on every fresh store.
const (
	fixtureUsername = "testuser"
	fixtureEmail    = "test@example.com"
	fixturePassword = "password123"
)

// @title Campus Portal Auth API
// @version 1.0
// @description Registration and login for the campus portal, issuing signed session tokens.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, err := newUserRepository(cfg, logger)
	if err != nil {
		logger.Error("store init", zap.Error(err))
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logger)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, profile cache will miss", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	authService, err := service.NewAuthService(userRepo, jwtService, cacheClient, logger, cfg.BcryptCost)
	if err != nil {
		return err
	}

	if cfg.SeedFixtureUser {
		user, created, err := authService.EnsureUser(ctx, fixtureUsername, fixtureEmail, fixturePassword)
		if err != nil {
			logger.Error("seed fixture user", zap.Error(err))
			return err
		}
		logger.Info("fixture user ready", zap.String("user_id", user.ID), zap.Bool("created", created))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, logger, jwtService, handler.NewAuthHandler(authService, logger))

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("store", cfg.StoreDriver),
			zap.String("swagger", "http://localhost:"+cfg.Port+"/swagger/index.html"),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server start", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
		return err
	}
	return nil
}

// newUserRepository opens the single source of truth selected by STORE_DRIVER.
// Connection failures are fatal.
func newUserRepository(cfg *config.Config, logger *zap.Logger) (repository.UserRepository, error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		gormDB, err := db.NewMySQL(cfg.MySQLDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("database init: %w", err)
		}
		if err := db.Migrate(gormDB); err != nil {
			return nil, err
		}
		return repository.NewUserRepository(gormDB), nil
	default:
		logger.Warn("using in-memory user store; records are lost on restart")
		return repository.NewMemoryUserRepository(), nil
	}
}
