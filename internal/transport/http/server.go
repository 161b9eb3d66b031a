package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"

	"quillblog/internal/cache"
	"quillblog/internal/config"
	"quillblog/internal/database"
	"quillblog/internal/handler"
	"quillblog/internal/redis"
	"quillblog/internal/repository"
	"quillblog/internal/service"
	"quillblog/internal/worker"
)

func Run() error {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Optional Redis feed cache
	var feedCache cache.RecentFeedCache
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		feedCache = cache.NewRecentFeedCache(redisClient.Client)
		log.Println("Connected to redis, feed cache enabled")
	} else {
		log.Println("REDIS_URL not set, feed cache disabled")
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 5. Services
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(refreshTokenRepo, userRepo, cfg)
	postService := service.NewPostService(postRepo, userRepo, feedCache)
	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	// 6. Background janitor for expired refresh tokens
	janitor := worker.NewTokenJanitor(refreshTokenRepo, worker.DefaultJanitorConfig())
	janitor.Start(ctx)
	defer janitor.Stop()

	// 7. Handlers and router
	router := NewRouter(RouterConfig{
		AuthHandler: handler.NewAuthHandler(userService, authService, cfg),
		UserHandler: handler.NewUserHandler(userService, mediaService),
		PostHandler: handler.NewPostHandler(postService, mediaService),
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})

	addr := ":" + cfg.ServerPort
	log.Printf("Starting server on %s", addr)
	return stdhttp.ListenAndServe(addr, router)
}
