package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/pageza/foodseed/backend/config"
	"github.com/pageza/foodseed/backend/internal/bootstrap"
	"github.com/pageza/foodseed/backend/internal/service"
	"github.com/pageza/foodseed/backend/internal/types"
	"go.uber.org/zap"
)

func main() {
	subject := flag.String("subject", "operator", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		zap.Must(zap.NewProduction()).Sugar().Fatalw("failed to load configuration", "error", err)
	}

	logger, err := bootstrap.NewLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatalw("JWT_SECRET is not set")
	}

	token, err := service.NewTokenService(cfg.JWTSecret, *ttl).GenerateToken(*subject, types.RoleAdmin)
	if err != nil {
		logger.Fatalw("failed to generate token", "error", err)
	}

	logger.Infow("admin token generated", "subject", *subject, "expires_in", *ttl)
	fmt.Println(token)
}
