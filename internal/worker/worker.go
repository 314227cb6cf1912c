package worker

import (
	"context"
	"log"
	"time"

	"bakery-erp/internal/broker"
	"bakery-erp/internal/models"
	"bakery-erp/internal/redisclient"
	"bakery-erp/internal/service"
	"bakery-erp/internal/util"
)

const syncLockKey = "inventory-sync"

// SyncScheduler runs the inventory sync on a fixed interval. The redis lock
// keeps concurrent scheduler instances from overlapping; manual syncs through
// the API are not blocked by it.
type SyncScheduler struct {
	syncService *service.SyncService
	redis       *redisclient.Client
	interval    time.Duration
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(syncService *service.SyncService, redis *redisclient.Client, intervalMinutes int) *SyncScheduler {
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	return &SyncScheduler{
		syncService: syncService,
		redis:       redis,
		interval:    time.Duration(intervalMinutes) * time.Minute,
	}
}

// Start runs the scheduler loop until the context is cancelled.
func (s *SyncScheduler) Start(ctx context.Context) error {
	log.Printf("Starting sync scheduler, interval: %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sync scheduler context cancelled, stopping...")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SyncScheduler) runOnce(ctx context.Context) {
	acquired, err := s.redis.AcquireLock(ctx, syncLockKey, s.interval)
	if err != nil {
		log.Printf("Failed to acquire sync lock: %v", err)
		return
	}
	if !acquired {
		log.Println("Sync already running elsewhere, skipping this tick")
		return
	}
	defer func() {
		if err := s.redis.ReleaseLock(ctx, syncLockKey); err != nil {
			log.Printf("Failed to release sync lock: %v", err)
		}
	}()

	report := s.syncService.SyncInventory(ctx)
	log.Printf("Scheduled sync finished: status=%s processed=%d errors=%d",
		report.Status, report.Processed, report.ErrorsCount)
}

// PriceAlertWorker consumes price change events and surfaces the significant
// ones.
type PriceAlertWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewPriceAlertWorker creates a new price alert worker
func NewPriceAlertWorker(consumer *broker.Consumer) *PriceAlertWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnPriceChanged(handlePriceChanged)

	return &PriceAlertWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *PriceAlertWorker) Start(ctx context.Context) error {
	log.Println("Starting price alert worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PriceAlertWorker) Stop() error {
	log.Println("Stopping price alert worker...")
	return w.consumer.Close()
}

func handlePriceChanged(ctx context.Context, event *models.PriceChangedEvent) error {
	if !event.Significant {
		return nil
	}

	util.PriceAlertsTotal.Inc()
	log.Printf("PRICE ALERT: %s (%s) changed %s%% from %s to %s",
		event.Name, event.Code,
		event.ChangePercentage.StringFixed(2),
		event.OldPrice.String(), event.NewPrice.String())
	return nil
}
