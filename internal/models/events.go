package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSyncCompleted            = "INVENTORY_SYNC_COMPLETED"
	EventTypePriceChanged             = "INVENTORY_PRICE_CHANGED"
	EventTypeProductionOrderCreated   = "PRODUCTION_ORDER_CREATED"
	EventTypeProductionOrderSubmitted = "PRODUCTION_ORDER_SUBMITTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncCompletedEvent is published after every inventory sync run.
type SyncCompletedEvent struct {
	BaseEvent
	Status       string `json:"status"`
	TotalFetched int    `json:"total_fetched"`
	Processed    int    `json:"processed"`
	Skipped      int    `json:"skipped"`
	Created      int    `json:"created"`
	Updated      int    `json:"updated"`
	PriceChanges int    `json:"price_changes"`
}

// PriceChangedEvent is published for every recorded price change.
type PriceChangedEvent struct {
	BaseEvent
	ManagerItemID    string          `json:"manager_item_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	OldPrice         decimal.Decimal `json:"old_price"`
	NewPrice         decimal.Decimal `json:"new_price"`
	ChangePercentage decimal.Decimal `json:"change_percentage"`
	Significant      bool            `json:"significant"`
	Source           string          `json:"source"`
}

// ProductionOrderCreatedEvent is published when a production order is planned.
type ProductionOrderCreatedEvent struct {
	BaseEvent
	OrderID         int64           `json:"order_id"`
	ItemName        string          `json:"item_name"`
	ItemCode        string          `json:"item_code"`
	PlannedQuantity decimal.Decimal `json:"planned_quantity"`
	AssignedTo      string          `json:"assigned_to"`
	IsSplit         bool            `json:"is_split"`
}

// ProductionOrderSubmittedEvent is published after a successful submission to
// the accounting system.
type ProductionOrderSubmittedEvent struct {
	BaseEvent
	OrderID        int64  `json:"order_id"`
	ManagerOrderID string `json:"manager_order_id"`
	ItemCode       string `json:"item_code"`
}
