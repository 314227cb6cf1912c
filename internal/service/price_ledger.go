package service

import (
	"context"
	"fmt"
	"time"

	"bakery-erp/internal/broker"
	"bakery-erp/internal/models"
	"bakery-erp/internal/store"
	"bakery-erp/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// Deltas below this are treated as rounding noise, not changes.
	priceNoiseThreshold = decimal.NewFromFloat(0.01)

	// Changes above this percentage are flagged as significant.
	significanceThreshold = decimal.NewFromInt(5)

	oneHundred = decimal.NewFromInt(100)
)

// PriceChange is the computed delta between two unit costs.
type PriceChange struct {
	Amount      decimal.Decimal
	Percentage  decimal.Decimal
	Significant bool
}

// ComputeChange compares two prices and reports whether the delta counts as a
// change. A previous price of zero is reported as a 100% change.
func ComputeChange(oldPrice, newPrice decimal.Decimal) (PriceChange, bool) {
	amount := newPrice.Sub(oldPrice)
	if amount.Abs().LessThan(priceNoiseThreshold) {
		return PriceChange{}, false
	}

	var pct decimal.Decimal
	if oldPrice.IsZero() {
		pct = oneHundred
	} else {
		pct = amount.Div(oldPrice).Mul(oneHundred)
	}

	return PriceChange{
		Amount:      amount,
		Percentage:  pct,
		Significant: pct.Abs().GreaterThan(significanceThreshold),
	}, true
}

// PriceLedger appends price change entries and publishes price events.
type PriceLedger struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewPriceLedger creates a new price ledger
func NewPriceLedger(store *store.Store, eventPublisher *broker.EventPublisher) *PriceLedger {
	return &PriceLedger{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// RecordChange appends a ledger entry for a unit cost change on an item and
// returns the computed change. Deltas below the noise threshold record
// nothing. The entry is append-only; existing history is never touched.
func (l *PriceLedger) RecordChange(ctx context.Context, item *models.InventoryItem, oldPrice, newPrice decimal.Decimal, source string) (PriceChange, bool, error) {
	change, ok := ComputeChange(oldPrice, newPrice)
	if !ok {
		return PriceChange{}, false, nil
	}

	entry := &models.PriceHistoryEntry{
		InventoryItemID:  item.ID,
		OldPrice:         oldPrice,
		NewPrice:         newPrice,
		ChangeAmount:     change.Amount,
		ChangePercentage: change.Percentage,
		SyncSource:       source,
	}
	if err := l.store.CreatePriceHistory(ctx, entry); err != nil {
		return change, false, fmt.Errorf("failed to record price change for item %d: %w", item.ID, err)
	}

	util.PriceChangesTotal.Inc()
	if change.Significant {
		util.SignificantPriceChangesTotal.Inc()
		l.logger.Warn("Significant price change",
			zap.String("code", item.Code),
			zap.String("name", item.Name),
			zap.String("old_price", oldPrice.String()),
			zap.String("new_price", newPrice.String()),
			zap.String("change_pct", change.Percentage.StringFixed(2)))
	}

	event := &models.PriceChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePriceChanged,
			Timestamp: time.Now(),
		},
		ManagerItemID:    item.ManagerItemID,
		Code:             item.Code,
		Name:             item.Name,
		OldPrice:         oldPrice,
		NewPrice:         newPrice,
		ChangePercentage: change.Percentage,
		Significant:      change.Significant,
		Source:           source,
	}
	if err := l.eventPublisher.PublishPriceChanged(ctx, event); err != nil {
		l.logger.Error("Failed to publish PriceChanged event", zap.Error(err))
	}

	return change, true, nil
}
