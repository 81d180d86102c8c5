package bootstrap

import (
	"context"
	"log"
	"time"

	"guided-dialogue-be/internal/config"
	"guided-dialogue-be/internal/controller"
	"guided-dialogue-be/internal/handler"
	"guided-dialogue-be/internal/pkg/logger"
	"guided-dialogue-be/internal/repository/unitofwork"
	"guided-dialogue-be/internal/service"
	"guided-dialogue-be/internal/websocket"
	"guided-dialogue-be/pkg/dialogue"
	"guided-dialogue-be/pkg/llm/anthropic"
	"guided-dialogue-be/pkg/quota"

	pktNats "guided-dialogue-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	DialogueController controller.IDialogueController

	// WebSockets & Feed
	FeedHandler  *handler.FeedHandler
	WebSocketHub *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/feed.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Dialogue Core
	llmProvider := anthropic.NewAnthropicProvider(cfg.Ai.AnthropicAPIKey, cfg.Ai.Model)
	if cfg.Ai.AnthropicBaseURL != "" {
		llmProvider.BaseURL = cfg.Ai.AnthropicBaseURL
	}

	loc, err := time.LoadLocation(cfg.Dialogue.Timezone)
	if err != nil {
		log.Printf("[WARN] Unknown timezone %q, daily quota resets at UTC midnight", cfg.Dialogue.Timezone)
		loc = time.UTC
	}

	sessionStore := service.NewSessionStore(uowFactory)
	usageStore := service.NewUsageStore(uowFactory)
	tracker := quota.NewTracker(usageStore, cfg.Dialogue.DailyLimit, loc, sysLogger)

	engine := dialogue.NewEngine(sessionStore, tracker, llmProvider, sysLogger, dialogue.Config{
		TurnMaxTokens:   cfg.Ai.TurnMaxTokens,
		AnswerMaxTokens: cfg.Ai.AnswerMaxTokens,
	})

	// 4. Services
	// A nil *Publisher must stay a nil interface so the service can skip it.
	var eventPub service.EventPublisher
	if natsPub != nil {
		eventPub = natsPub
	}

	authService := service.NewAuthService(uowFactory, sysLogger)
	dialogueService := service.NewDialogueService(engine, sessionStore, tracker, uowFactory, eventPub, sysLogger)

	// Feed worker relays bus events to connected clients
	feedService := service.NewFeedService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go feedService.Start()
	}

	feedHandler := handler.NewFeedHandler(wsHub, wsLogger)

	// 5. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		DialogueController: controller.NewDialogueController(dialogueService),

		FeedHandler:  feedHandler,
		WebSocketHub: wsHub,

		Logger: sysLogger,
	}
}
