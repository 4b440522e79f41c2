package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"

	"chatauth/internal/bot"
	"chatauth/internal/bus"
	"chatauth/internal/config"
	"chatauth/internal/handlers"
	"chatauth/internal/repositories"
	"chatauth/internal/routes"
	"chatauth/internal/services"
)

func Run() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("БД недоступна: ", err)
	}

	// === Telegram ===
	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatal("Ошибка подключения к Telegram: ", err)
	}

	// === Repos ===
	codeRepo := repositories.NewCodeRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)

	// === Bus producer ===
	producer := bus.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.VerifyResponses, cfg.Kafka.Topics.RevokeRequests)
	defer func() {
		if err := producer.Close(); err != nil {
			log.Printf("[bus] close: %v", err)
		}
	}()

	// === Services ===
	codeService := services.NewCodeService(
		codeRepo,
		time.Duration(cfg.Verification.CodeTTLMinutes)*time.Minute,
		cfg.Verification.MaxCodeAttempts,
	)
	sessionService := services.NewSessionService(sessionRepo)
	notificationService := services.NewNotificationService(tg)
	verificationService := services.NewVerificationService(sessionService, notificationService, producer)
	confirmationService := services.NewConfirmationService(sessionService, notificationService, producer)
	sweeper := services.NewSweeper(
		codeService,
		sessionService,
		time.Duration(cfg.Verification.SweepIntervalMinutes)*time.Minute,
		time.Duration(cfg.Verification.SessionRetentionMinutes)*time.Minute,
	)

	// === Bus consumers ===
	verifyConsumer := bus.NewConsumer(
		cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topics.VerifyRequests,
		cfg.Kafka.Workers, bus.VerifyRequestHandler(verificationService),
	)
	revokeConsumer := bus.NewConsumer(
		cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topics.RevokeResponses,
		cfg.Kafka.Workers, bus.RevokeResponseHandler(verificationService),
	)

	// === Chat listener (медиатор: слушатель знает гейтвей и выдачу кодов,
	// отправитель уведомлений о слушателе не знает) ===
	listener := bot.NewListener(tg, codeService, confirmationService)

	go sweeper.Run(ctx)
	go verifyConsumer.Run(ctx)
	go revokeConsumer.Run(ctx)
	go listener.Run(ctx)

	// === Handlers / Gin ===
	sessionHandler := handlers.NewSessionHandler(sessionService)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	routes.SetupRoutes(router, sessionHandler)

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: listenAddr, Handler: router}
	go func() {
		log.Printf("Сервер запущен на %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Ошибка запуска сервера: ", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Останавливаемся…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
