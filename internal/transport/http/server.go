package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mweet/internal/cache"
	"mweet/internal/config"
	"mweet/internal/database"
	"mweet/internal/handler"
	"mweet/internal/queue"
	appredis "mweet/internal/redis"
	"mweet/internal/repository"
	"mweet/internal/service"
	"mweet/internal/worker"
)

// Run wires every layer together and serves HTTP until SIGINT/SIGTERM.
func Run() error {
	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Postgres
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis
	redisClient, err := appredis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 5. Cache and queue
	timelineCache := cache.NewTimelineCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)

	// 6. Services
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	userService := service.NewUserService(userRepo, followRepo)
	followService := service.NewFollowService(followRepo, userRepo, db, publisher)
	tweetService := service.NewTweetService(tweetRepo, userRepo, publisher)
	timelineService := service.NewTimelineService(timelineCache, tweetRepo, followRepo)

	// 7. Fan-out workers
	workerHandler := worker.NewHandler(timelineCache, followRepo, tweetRepo)
	workerCfg := worker.DefaultManagerConfig()
	workerCfg.WorkerCount = cfg.WorkerCount
	workerManager := worker.NewManager(consumer, workerHandler, workerCfg)

	if err := workerManager.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer workerManager.Stop()

	// 8. HTTP handlers and router
	router := NewRouter(RouterConfig{
		AuthHandler:     handler.NewAuthHandler(userService, authService),
		UserHandler:     handler.NewUserHandler(userService),
		FollowHandler:   handler.NewFollowHandler(followService),
		TweetHandler:    handler.NewTweetHandler(tweetService),
		TimelineHandler: handler.NewTimelineHandler(timelineService),
		JWTSecret:       cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// 9. Serve until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
