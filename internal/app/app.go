package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"convo_backend/database"
	"convo_backend/internal/config"
	"convo_backend/internal/directory"
	"convo_backend/internal/events"
	"convo_backend/internal/handlers"
	"convo_backend/internal/logger"
	"convo_backend/internal/middleware"
	"convo_backend/internal/presence"
	"convo_backend/internal/repositories"
	chatrepo "convo_backend/internal/repositories/chat"
	"convo_backend/internal/routes"
	"convo_backend/internal/services"
	chatservice "convo_backend/internal/services/chat"
	"convo_backend/internal/validator"
	"convo_backend/internal/workers"
	"convo_backend/ws"
)

// Run boots the whole application and blocks until shutdown.
func Run() error {
	config.LoadConfig()
	cfg := config.GetConfig()

	logger.Init(cfg.Server.Env)
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	router, manager, cleanup := SetupRouter(db)
	defer cleanup()

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, port),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "error", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	manager.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// SetupRouter wires repositories, services, handlers and the websocket hub
// onto a gin engine. The returned cleanup stops background components.
func SetupRouter(db *gorm.DB) (*gin.Engine, *ws.Manager, func()) {
	cfg := config.GetConfig()

	userRepo := repositories.NewUserRepository()
	conversationRepo := chatrepo.NewConversationRepository()
	participantRepo := chatrepo.NewParticipantRepository()
	messageRepo := chatrepo.NewMessageRepository()
	reactionRepo := chatrepo.NewReactionRepository()

	dir := directory.NewGormDirectory(userRepo)
	manager := ws.NewManager()

	var cleanups []func()
	publishers := []events.Publisher{manager}
	var presenceStore presence.Store = presence.NopStore{}

	if cfg.Redis.URL != "" {
		redisOpt := redisOptions(cfg.Redis.URL)
		presenceStore = presence.NewRedisStore(redis.NewClient(redisOpt))

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB})
		publishers = append(publishers, events.NewAsynqNotifier(asynqClient))
		cleanups = append(cleanups, func() { asynqClient.Close() })

		notifier := workers.NewNotifier(redisOpt.Addr)
		if err := notifier.Start(); err != nil {
			logger.WithError(err).Warn("notification worker failed to start")
		} else {
			cleanups = append(cleanups, notifier.Shutdown)
		}
	}
	publisher := events.NewFanout(publishers...)

	userService := services.NewUserService(userRepo)
	conversationService := chatservice.NewConversationService(conversationRepo, participantRepo, dir, publisher)
	messageService := chatservice.NewMessageService(conversationRepo, participantRepo, messageRepo, dir, publisher)
	readTracker := chatservice.NewReadTracker(conversationRepo, participantRepo, messageRepo, publisher)
	reactionService := chatservice.NewReactionService(conversationRepo, participantRepo, messageRepo, reactionRepo, publisher)

	manager.SetDeps(ws.Deps{
		DB:           db,
		Messages:     messageService,
		Reactions:    reactionService,
		Reads:        readTracker,
		Participants: participantRepo,
		Presence:     presenceStore,
	})
	go manager.Run()

	base := handlers.NewBaseHandler(validator.New())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))

	routes.Setup(router, routes.Handlers{
		Auth:          handlers.NewAuthHandler(base, userService),
		Conversations: handlers.NewConversationHandler(base, conversationService, readTracker),
		Messages:      handlers.NewMessageHandler(base, messageService, reactionService),
		WSManager:     manager,
	})

	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}
	return router, manager, cleanup
}

func redisOptions(url string) *redis.Options {
	opt, err := redis.ParseURL(url)
	if err != nil {
		// Bare host:port form.
		return &redis.Options{Addr: url}
	}
	return opt
}
