package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bakery-erp/internal/broker"
	"bakery-erp/internal/managerio"
	"bakery-erp/internal/models"
	"bakery-erp/internal/redisclient"
	"bakery-erp/internal/store"
	"bakery-erp/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// maxReportedErrors bounds the error list carried in a sync report.
	maxReportedErrors = 5

	syncReportTTL = 24 * time.Hour

	syncSourceManager = "manager_sync"
)

// SyncService pulls inventory and customer data out of Manager.io and mirrors
// it into the local store.
type SyncService struct {
	manager        *managerio.Client
	store          *store.Store
	redis          *redisclient.Client
	ledger         *PriceLedger
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(
	manager *managerio.Client,
	store *store.Store,
	redis *redisclient.Client,
	ledger *PriceLedger,
	eventPublisher *broker.EventPublisher,
) *SyncService {
	return &SyncService{
		manager:        manager,
		store:          store,
		redis:          redis,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// SyncInventory mirrors all Manager.io inventory items into the local store.
// It always returns a structured report: fetch failures produce an error
// report, per-record failures are counted and the run continues.
func (s *SyncService) SyncInventory(ctx context.Context) *models.SyncReport {
	ctx, span := util.StartSpan(ctx, "SyncService.SyncInventory")
	defer span.End()

	report := &models.SyncReport{
		Status:         models.SyncReportSuccess,
		CategoryCounts: make(map[string]int),
		StartedAt:      time.Now(),
	}
	defer func() {
		report.FinishedAt = time.Now()
		util.SyncDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
		util.SyncRunsTotal.WithLabelValues(report.Status).Inc()
		s.finishRun(ctx, report)
	}()

	records, err := s.manager.FetchAll(ctx, "inventory-items")
	if err != nil {
		report.Status = models.SyncReportError
		report.ErrorType = errorType(err)
		report.Message = err.Error()
		s.logger.Error("Inventory fetch failed", zap.String("error_type", report.ErrorType), zap.Error(err))
		return report
	}

	report.TotalFetched = len(records)
	if len(records) == 0 {
		report.Status = models.SyncReportWarning
		report.Message = "Manager.io returned no inventory items"
		return report
	}

	for _, rec := range records {
		item, err := parseInventoryRecord(rec)
		if err != nil {
			report.Skipped++
			util.SyncItemsSkippedTotal.Inc()
			continue
		}

		existing, err := s.store.GetInventoryItemByManagerID(ctx, item.ManagerItemID)
		if err != nil {
			s.recordItemError(report, item.ManagerItemID, err)
			continue
		}

		if err := s.store.UpsertInventoryItem(ctx, item); err != nil {
			s.recordItemError(report, item.ManagerItemID, err)
			continue
		}

		if existing == nil {
			report.Created++
		} else {
			report.Updated++
			change, recorded, err := s.ledger.RecordChange(ctx, item, existing.UnitCost, item.UnitCost, syncSourceManager)
			if err != nil {
				// Ledger failures never fail the item itself.
				s.logger.Warn("Price history write failed",
					zap.String("manager_item_id", item.ManagerItemID), zap.Error(err))
			}
			if recorded {
				report.PriceChanges++
				if change.Significant {
					report.SignificantChanges = append(report.SignificantChanges, models.SignificantChange{
						ManagerItemID:    item.ManagerItemID,
						Code:             item.Code,
						Name:             item.Name,
						OldPrice:         existing.UnitCost,
						NewPrice:         item.UnitCost,
						ChangePercentage: change.Percentage,
					})
				}
			}
		}

		report.Processed++
		report.CategoryCounts[item.Category]++
		util.SyncItemsProcessedTotal.Inc()
	}

	if report.ErrorsCount > 0 {
		report.Status = models.SyncReportWarning
	}
	report.Message = fmt.Sprintf("Synced %d of %d inventory items (%d skipped, %d errors)",
		report.Processed, report.TotalFetched, report.Skipped, report.ErrorsCount)

	s.logger.Info("Inventory sync finished",
		zap.String("status", report.Status),
		zap.Int("total_fetched", report.TotalFetched),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("price_changes", report.PriceChanges),
		zap.Int("errors", report.ErrorsCount))

	return report
}

// SyncCustomers mirrors Manager.io customers into the local store with the
// same skip-and-count discipline as the inventory sync.
func (s *SyncService) SyncCustomers(ctx context.Context) *models.SyncReport {
	ctx, span := util.StartSpan(ctx, "SyncService.SyncCustomers")
	defer span.End()

	report := &models.SyncReport{
		Status:    models.SyncReportSuccess,
		StartedAt: time.Now(),
	}
	defer func() { report.FinishedAt = time.Now() }()

	records, err := s.manager.FetchAll(ctx, "customers")
	if err != nil {
		report.Status = models.SyncReportError
		report.ErrorType = errorType(err)
		report.Message = err.Error()
		s.logger.Error("Customer fetch failed", zap.String("error_type", report.ErrorType), zap.Error(err))
		return report
	}

	report.TotalFetched = len(records)
	for _, rec := range records {
		customer, err := parseCustomerRecord(rec)
		if err != nil {
			report.Skipped++
			continue
		}
		if err := s.store.UpsertCustomer(ctx, customer); err != nil {
			s.recordItemError(report, customer.ManagerCustomerID, err)
			continue
		}
		report.Processed++
	}

	if report.ErrorsCount > 0 {
		report.Status = models.SyncReportWarning
	}
	report.Message = fmt.Sprintf("Synced %d of %d customers (%d skipped, %d errors)",
		report.Processed, report.TotalFetched, report.Skipped, report.ErrorsCount)

	s.logger.Info("Customer sync finished",
		zap.String("status", report.Status),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped))
	return report
}

// CleanupDuplicates removes inventory rows that share an external identifier,
// keeping the lowest internal id of each group.
func (s *SyncService) CleanupDuplicates(ctx context.Context) (int64, error) {
	ctx, span := util.StartSpan(ctx, "SyncService.CleanupDuplicates")
	defer span.End()

	deleted, err := s.store.DeleteDuplicateInventoryItems(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Removed duplicate inventory items", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

// LastSyncReport returns the most recent cached inventory sync report, or
// (nil, nil) when none exists.
func (s *SyncService) LastSyncReport(ctx context.Context) (*models.SyncReport, error) {
	return s.redis.GetLastSyncReport(ctx)
}

// ListInventory lists synced inventory items, optionally filtered by category.
func (s *SyncService) ListInventory(ctx context.Context, category string) ([]models.InventoryItem, error) {
	return s.store.GetInventoryItems(ctx, category)
}

// InventoryStats returns live per-category row counts from the store.
func (s *SyncService) InventoryStats(ctx context.Context) (map[string]int, error) {
	return s.store.CountInventoryByCategory(ctx)
}

func (s *SyncService) recordItemError(report *models.SyncReport, id string, err error) {
	report.ErrorsCount++
	util.SyncItemErrorsTotal.Inc()
	if len(report.Errors) < maxReportedErrors {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", id, err))
	}
	s.logger.Warn("Failed to sync record", zap.String("manager_id", id), zap.Error(err))
}

// finishRun publishes the run event and caches the report. Both are
// best-effort and never alter the report.
func (s *SyncService) finishRun(ctx context.Context, report *models.SyncReport) {
	event := &models.SyncCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSyncCompleted,
			Timestamp: time.Now(),
		},
		Status:       report.Status,
		TotalFetched: report.TotalFetched,
		Processed:    report.Processed,
		Skipped:      report.Skipped,
		Created:      report.Created,
		Updated:      report.Updated,
		PriceChanges: report.PriceChanges,
	}
	if err := s.eventPublisher.PublishSyncCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish SyncCompleted event", zap.Error(err))
	}

	if err := s.redis.CacheSyncReport(ctx, report, syncReportTTL); err != nil {
		s.logger.Warn("Failed to cache sync report", zap.Error(err))
	}
	if len(report.CategoryCounts) > 0 {
		if err := s.redis.CacheInventorySnapshot(ctx, report.CategoryCounts, syncReportTTL); err != nil {
			s.logger.Warn("Failed to cache category counts", zap.Error(err))
		}
	}
}

// parseInventoryRecord maps one raw API record onto an InventoryItem. Records
// missing the external identifier, the code or the name are invalid.
func parseInventoryRecord(rec managerio.Record) (*models.InventoryItem, error) {
	managerItemID := managerio.ExtractString(rec, "key", "Key", "id", "Id", "uuid", "UUID")
	if managerItemID == "" {
		return nil, &managerio.ValidationError{Field: "key"}
	}

	code := managerio.ExtractString(rec, "ItemCode", "itemCode", "Code", "code")
	if code == "" {
		return nil, &managerio.ValidationError{Field: "ItemCode"}
	}
	name := managerio.ExtractString(rec, "ItemName", "itemName", "Name", "name", "Description", "description")
	if name == "" {
		return nil, &managerio.ValidationError{Field: "ItemName"}
	}

	return &models.InventoryItem{
		ManagerItemID: managerItemID,
		Code:          code,
		Name:          name,
		Unit:          managerio.ExtractString(rec, "UnitName", "unitName", "Unit", "unit"),
		UnitCost: managerio.ExtractAmount(rec, "averageCost",
			[]string{"AverageCost", "averageCost", "UnitCost", "unitCost", "Cost", "cost"}),
		SalesPrice: managerio.ExtractAmount(rec, "salePrice",
			[]string{"SalePrice", "salePrice", "DefaultSalesUnitPrice", "SalesPrice", "salesPrice"}),
		QuantityAvailable: managerio.ExtractAmount(rec, "qtyOwned",
			[]string{"QtyOwned", "qtyOwned", "QuantityAvailable", "quantityAvailable", "Qty", "qty"}),
		Category:     models.CategoryForCode(code),
		DivisionName: managerio.ExtractString(rec, "Division", "division", "DivisionName", "divisionName"),
	}, nil
}

// parseCustomerRecord maps one raw API record onto a Customer.
func parseCustomerRecord(rec managerio.Record) (*models.Customer, error) {
	managerCustomerID := managerio.ExtractString(rec, "key", "Key", "id", "Id", "uuid", "UUID")
	if managerCustomerID == "" {
		return nil, &managerio.ValidationError{Field: "key"}
	}

	name := managerio.ExtractString(rec, "Name", "name", "CustomerName", "customerName")
	if name == "" {
		return nil, &managerio.ValidationError{Field: "Name"}
	}

	status := managerio.ExtractString(rec, "Status", "status")
	if status == "" {
		status = "active"
	}

	return &models.Customer{
		ManagerCustomerID: managerCustomerID,
		Name:              name,
		Code:              managerio.ExtractString(rec, "Code", "code", "CustomerCode", "customerCode"),
		Status:            status,
		Balance: managerio.ExtractAmount(rec, "accountsReceivable",
			[]string{"Balance", "balance", "AccountsReceivable"}),
	}, nil
}

// errorType classifies a top-level fetch failure for the report.
func errorType(err error) string {
	var authErr *managerio.AuthenticationError
	var shapeErr *managerio.ShapeError
	var transportErr *managerio.TransportError
	switch {
	case errors.As(err, &authErr):
		return "authentication"
	case errors.As(err, &shapeErr):
		return "shape"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "unknown"
	}
}
