package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"studyflow/internal/config"
	"studyflow/internal/db"
	"studyflow/internal/email"
	apihttp "studyflow/internal/http"
	"studyflow/internal/repository"
	"studyflow/internal/security"
	"studyflow/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	tokenRepo := repository.NewPgTokenRepository(pool)
	sessionRepo := repository.NewPgStudySessionRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var limiter service.EmailRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			limiter = service.NewRedisEmailRateLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}

	hasher := security.NewHasher()
	jwtSvc := service.NewJWTService(cfg.SecretKey, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	tokenSvc := service.NewTokenService(tokenRepo)
	authSvc := service.NewAuthService(logger, userRepo, tokenSvc, hasher, emailSender, limiter, cfg.FrontendURL)
	userSvc := service.NewUserService(logger, userRepo)
	sessionSvc := service.NewSessionService(sessionRepo)

	authHandler := apihttp.NewAuthHandler(logger, authSvc, jwtSvc)
	profileHandler := apihttp.NewProfileHandler(logger, userSvc)
	sessionHandler := apihttp.NewSessionHandler(logger, sessionSvc)
	router := apihttp.NewRouter(logger, jwtSvc, userRepo, authHandler, profileHandler, sessionHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
