package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/database"
	"github.com/stockpulse/stockpulse/internal/dispatcher"
	"github.com/stockpulse/stockpulse/internal/handlers"
	"github.com/stockpulse/stockpulse/internal/hub"
	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/middleware"
	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/monitor"
	"github.com/stockpulse/stockpulse/internal/pricefeed"
	"github.com/stockpulse/stockpulse/internal/queue"
	"github.com/stockpulse/stockpulse/internal/routes"
	"github.com/stockpulse/stockpulse/internal/services"
	"github.com/stockpulse/stockpulse/internal/sweep"
)

const shutdownGrace = 10 * time.Second

func main() {
	// Parse command line flags
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	usersFile := flag.String("users", "users.yaml", "Path to user directory file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", *configFile, err)
	}

	// Load user directory
	userDir, err := config.LoadUserDirectory(*usersFile)
	if err != nil {
		log.Fatalf("Failed to load user directory from %s: %v", *usersFile, err)
	}

	metrics.Init()

	// Initialize database with bounded startup retry; an unreachable store
	// is fatal.
	db, err := database.OpenWithRetry(cfg.Database.DSN, 5)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	alertService := services.NewAlertService(db)
	notificationService := services.NewNotificationService(db)
	preferenceService := services.NewPreferenceService(db)

	// Message channel: Kafka when brokers are configured, otherwise the
	// in-process channel for single-node and development deployments.
	var channel queue.Channel
	if len(cfg.Kafka.Brokers) > 0 {
		channel = queue.NewKafkaChannel(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		log.Printf("Using Kafka message channel (%v)", cfg.Kafka.Brokers)
	} else {
		channel = queue.NewMemoryChannel()
		log.Println("No Kafka brokers configured, using in-process message channel")
	}
	defer channel.Close()

	// Price feed
	var feed pricefeed.Feed
	switch cfg.PriceFeed.Provider {
	case "static":
		feed = pricefeed.NewStaticFeed()
		log.Println("Using static price feed")
	default:
		feed = pricefeed.NewBinanceFeed(cfg.PriceFeed.Binance.APIKey, cfg.PriceFeed.Binance.SecretKey)
		log.Println("Using Binance price feed")
	}

	realtimeHub := hub.New()
	clock := clockwork.NewRealClock()

	dispatch := dispatcher.New(
		notificationService,
		preferenceService,
		clock,
		dispatcher.NewInAppDeliverer(realtimeHub),
		dispatcher.NewEmailDeliverer(cfg.Email, userDir),
		dispatcher.NewPushDeliverer(),
	)

	alertMonitor := monitor.New(
		alertService,
		feed,
		channel,
		realtimeHub,
		time.Duration(cfg.Monitor.IntervalSeconds)*time.Second,
		clock,
	)
	reconciliation := sweep.New(
		notificationService,
		dispatch,
		sweep.Policy{
			MaxRetries:    cfg.Sweep.MaxRetries,
			RetryWindow:   time.Duration(cfg.Sweep.RetryWindowHours) * time.Hour,
			ReadRetention: time.Duration(cfg.Sweep.ReadRetentionDays) * 24 * time.Hour,
			MaxRetention:  time.Duration(cfg.Sweep.MaxRetentionDays) * 24 * time.Hour,
		},
		time.Duration(cfg.Sweep.IntervalMinutes)*time.Minute,
		clock,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		realtimeHub.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		alertMonitor.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		reconciliation.Run(ctx)
	}()

	// One consumer per queue. Handlers are invoked one message at a time
	// per queue.
	consumers := map[string]queue.Handler{
		queue.QueuePriceAlerts:         dispatch.HandleTriggerEvent,
		queue.QueuePortfolioUpdates:    dispatch.ChannelEventHandler(models.CategoryPortfolioUpdate),
		queue.QueueWatchlistUpdates:    dispatch.ChannelEventHandler(models.CategoryWatchlistUpdate),
		queue.QueueSystemAnnouncements: dispatch.ChannelEventHandler(models.CategorySystemAnnouncement),
	}
	for name, handler := range consumers {
		wg.Add(1)
		go func(name string, handler queue.Handler) {
			defer wg.Done()
			if err := channel.Subscribe(ctx, name, handler); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Consumer for %s stopped: %v", name, err)
			}
		}(name, handler)
	}

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())

	alertHandler := handlers.NewAlertHandler(alertService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, preferenceService)
	routes.SetupRoutes(r, alertHandler, notificationHandler, realtimeHub)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Printf("Starting server on %s", addr)
		log.Printf("Websocket endpoint: ws://%s/ws", addr)
		log.Printf("Health check: http://%s/health", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Shutdown complete")
}
