package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"boutique/internal/app"
	"boutique/internal/cache"
	"boutique/internal/config"
	"boutique/internal/database"
	"boutique/internal/events"
	"boutique/internal/notifications"
	"boutique/internal/payment"
	"boutique/internal/repositories"
	"boutique/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2/middleware/session"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	store := repositories.NewStore(db)

	// --- Payment gateway ---
	var gateway payment.Gateway
	switch cfg.PaymentProvider {
	case "stripe":
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	default:
		mock := payment.NewMockGateway(cfg.StripeWebhookSecret)
		mock.AutoConfirm = true
		gateway = mock
		log.Println("Using the mock payment gateway: every checkout is confirmed on return")
	}

	// --- Order events ---
	var (
		publisher events.Publisher = events.Nop{}
		mqClient  *rabbitmq.Client
	)
	switch cfg.EventsBackend {
	case "rabbitmq":
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		publisher = events.NewAMQPPublisher(mqClient)
	case "kafka":
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer publisher.Close()

	// --- Cart cache and webhook dedup ---
	var (
		carts cache.CartCache    = cache.Nop{}
		dedup cache.Deduplicator = cache.Nop{}
	)
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr)
		defer client.Close()
		redisCache := cache.NewRedisCache(client)
		carts, dedup = redisCache, redisCache
	}

	svc := app.NewServices(app.Deps{
		Store:     store,
		Gateway:   gateway,
		Publisher: publisher,
		Carts:     carts,
		Dedup:     dedup,
		Pricing:   cfg.Pricing(),
		Currency:  cfg.Currency,
		JWTSecret: cfg.JWTSecret,
	})
	server := app.New(svc, session.New(), app.RedirectsFor(cfg.PublicBaseURL))

	// --- Order confirmation consumer ---
	if mqClient != nil {
		confirmations := notifications.NewConfirmations(notifications.LogSender{}, cfg.CurrencySuffix)
		go func() {
			log.Println("Starting RabbitMQ consumer for order confirmations...")
			if err := confirmations.Start(mqClient); err != nil {
				log.Printf("Order confirmation consumer stopped: %v", err)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := server.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
