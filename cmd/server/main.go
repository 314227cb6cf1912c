package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bakery-erp/config"
	"bakery-erp/internal/api"
	"bakery-erp/internal/broker"
	"bakery-erp/internal/managerio"
	"bakery-erp/internal/redisclient"
	"bakery-erp/internal/service"
	"bakery-erp/internal/store"
	"bakery-erp/internal/util"
	"bakery-erp/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting bakery ERP service")

	tp, err := util.InitTracer("bakery-erp", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSync)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	managerClient, err := managerio.NewClient(
		cfg.Manager.APIURL, cfg.Manager.APIKey,
		cfg.Manager.PageSize, cfg.Manager.TimeoutSeconds)
	if err != nil {
		log.Fatalf("Failed to create Manager.io client: %v", err)
	}

	priceLedger := service.NewPriceLedger(db, eventPublisher)
	syncService := service.NewSyncService(managerClient, db, redisClient, priceLedger, eventPublisher)
	costingService := service.NewCostingService(db)
	plannerService := service.NewPlannerService(db, managerClient, eventPublisher, cfg.Production.AssignmentRules)
	orderService := service.NewOrderService(db, managerClient)

	ctx := context.Background()
	if err := managerClient.TestConnection(ctx); err != nil {
		log.Printf("Manager.io connection check failed: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	scheduler := worker.NewSyncScheduler(syncService, redisClient, cfg.Sync.IntervalMinutes)
	go func() {
		if err := scheduler.Start(workerCtx); err != nil {
			log.Printf("Sync scheduler error: %v", err)
		}
	}()

	alertConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSync, cfg.Kafka.ConsumerGroup)
	alertWorker := worker.NewPriceAlertWorker(alertConsumer)
	go func() {
		if err := alertWorker.Start(workerCtx); err != nil {
			log.Printf("Price alert worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(syncService, costingService, plannerService, orderService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	alertWorker.Stop()

	log.Println("Server exited")
}
