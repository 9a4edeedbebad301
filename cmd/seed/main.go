package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"campusportal/internal/auth"
	"campusportal/internal/config"
	"campusportal/internal/db"
	"campusportal/internal/logging"
	"campusportal/internal/repository"
	"campusportal/internal/service"
)

// SeedUser is one entry of the fixture file.
type SeedUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func main() {
	file := flag.String("file", "", "path to a JSON array of {username,email,password}; - reads stdin")
	flag.Parse()

	logger, err := logging.New(false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), *file, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, file string, logger *zap.Logger) error {
	if file == "" {
		return errors.New("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.StoreMySQL {
		return fmt.Errorf("seeding needs a durable store, STORE_DRIVER is %q", cfg.StoreDriver)
	}

	users, err := readSeedFile(file)
	if err != nil {
		return err
	}
	logger.Info("loaded seed file", zap.String("file", file), zap.Int("users", len(users)))

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, logger)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	authService, err := service.NewAuthService(
		repository.NewUserRepository(gormDB),
		auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL),
		nil,
		logger,
		cfg.BcryptCost,
	)
	if err != nil {
		return err
	}

	created, existing, err := seedUsers(ctx, authService, users, logger)
	if err != nil {
		return err
	}

	logger.Info("seed completed",
		zap.Int("created", created),
		zap.Int("existing", existing),
		zap.Int("total", created+existing),
	)
	return nil
}

func readSeedFile(path string) ([]SeedUser, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return decodeSeedUsers(r)
}

func decodeSeedUsers(r io.Reader) ([]SeedUser, error) {
	var users []SeedUser
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return users, nil
}

// seedUsers registers every entry that is not already present. Entries with
// missing fields are skipped.
func seedUsers(ctx context.Context, svc service.AuthService, users []SeedUser, logger *zap.Logger) (created, existing int, err error) {
	for _, u := range users {
		if u.Username == "" || u.Email == "" || u.Password == "" {
			logger.Warn("skipping incomplete seed entry", zap.String("username", u.Username), zap.String("email", u.Email))
			continue
		}

		user, isNew, err := svc.EnsureUser(ctx, u.Username, u.Email, u.Password)
		if err != nil {
			return created, existing, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		if isNew {
			created++
			logger.Info("user created", zap.String("user_id", user.ID), zap.String("username", user.Username))
		} else {
			existing++
		}
	}
	return created, existing, nil
}
