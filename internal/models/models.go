package models

import (
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Inventory item categories, derived from the item code prefix.
const (
	CategoryRawMaterial  = "RAW_MATERIAL"
	CategoryFinishedGood = "FINISHED_GOOD"
	CategoryAccessory    = "ACCESSORY"
	CategoryOther        = "OTHER"
)

// CategoryForCode derives the inventory category from the code prefix.
// Matching is case-insensitive: RM -> raw material, FG -> finished good,
// ACS -> accessory, anything else -> other.
func CategoryForCode(code string) string {
	upper := strings.ToUpper(code)
	switch {
	case strings.HasPrefix(upper, "RM"):
		return CategoryRawMaterial
	case strings.HasPrefix(upper, "FG"):
		return CategoryFinishedGood
	case strings.HasPrefix(upper, "ACS"):
		return CategoryAccessory
	default:
		return CategoryOther
	}
}

// InventoryItem mirrors one inventory item in Manager.io. ManagerItemID is
// the sync key: one row per external identifier, immutable once set.
type InventoryItem struct {
	ID                int64           `db:"id" json:"id"`
	ManagerItemID     string          `db:"manager_item_id" json:"manager_item_id"`
	Code              string          `db:"code" json:"code"`
	Name              string          `db:"name" json:"name"`
	Unit              string          `db:"unit" json:"unit"`
	UnitCost          decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	SalesPrice        decimal.Decimal `db:"sales_price" json:"sales_price"`
	QuantityAvailable decimal.Decimal `db:"quantity_available" json:"quantity_available"`
	ThresholdQuantity decimal.Decimal `db:"threshold_quantity" json:"threshold_quantity"`
	Category          string          `db:"category" json:"category"`
	DivisionName      string          `db:"division_name" json:"division_name"`
	LastSynced        time.Time       `db:"last_synced" json:"last_synced"`
}

func (i *InventoryItem) IsLowStock() bool {
	return i.QuantityAvailable.LessThanOrEqual(i.ThresholdQuantity)
}

// PriceHistoryEntry is one append-only cost change record for an inventory
// item. Entries are never mutated or deleted by sync logic; they are
// cascade-deleted with their item.
type PriceHistoryEntry struct {
	ID               int64           `db:"id" json:"id"`
	InventoryItemID  int64           `db:"inventory_item_id" json:"inventory_item_id"`
	OldPrice         decimal.Decimal `db:"old_price" json:"old_price"`
	NewPrice         decimal.Decimal `db:"new_price" json:"new_price"`
	ChangeAmount     decimal.Decimal `db:"change_amount" json:"change_amount"`
	ChangePercentage decimal.Decimal `db:"change_percentage" json:"change_percentage"`
	ChangedAt        time.Time       `db:"changed_at" json:"changed_at"`
	SyncSource       string          `db:"sync_source" json:"sync_source"`
}

// Customer mirrors a Manager.io customer.
type Customer struct {
	ID                int64           `db:"id" json:"id"`
	ManagerCustomerID string          `db:"manager_customer_id" json:"manager_customer_id"`
	Name              string          `db:"name" json:"name"`
	Code              string          `db:"code" json:"code"`
	Status            string          `db:"status" json:"status"`
	Balance           decimal.Decimal `db:"balance" json:"balance"`
	LastSynced        time.Time       `db:"last_synced" json:"last_synced"`
}

// Recipe costs are always derived from current inventory prices, never
// cached at recipe creation.
type Recipe struct {
	ID                     int64           `db:"id" json:"id"`
	Name                   string          `db:"name" json:"name"`
	Category               string          `db:"category" json:"category"`
	YieldQuantity          decimal.Decimal `db:"yield_quantity" json:"yield_quantity"`
	YieldUnit              string          `db:"yield_unit" json:"yield_unit"`
	ManagerInventoryItemID string          `db:"manager_inventory_item_id" json:"manager_inventory_item_id"`
	CreatedAt              time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at" json:"updated_at"`
}

type RecipeIngredient struct {
	ID              int64           `db:"id" json:"id"`
	RecipeID        int64           `db:"recipe_id" json:"recipe_id"`
	InventoryItemID int64           `db:"inventory_item_id" json:"inventory_item_id"`
	Quantity        decimal.Decimal `db:"quantity" json:"quantity"`
}

// RecipeIngredientDetail is an ingredient joined with its current inventory
// row, used by the costing engine.
type RecipeIngredientDetail struct {
	RecipeIngredient
	ItemName          string          `db:"item_name" json:"item_name"`
	ItemCode          string          `db:"item_code" json:"item_code"`
	Unit              string          `db:"unit" json:"unit"`
	UnitCost          decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	QuantityAvailable decimal.Decimal `db:"quantity_available" json:"quantity_available"`
	ManagerItemID     string          `db:"manager_item_id" json:"manager_item_id"`
}

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Sync statuses for outbound order submission
const (
	SyncStatusNotSynced = "not_synced"
	SyncStatusPending   = "pending"
	SyncStatusSynced    = "synced"
	SyncStatusFailed    = "failed"
)

// Production statuses on customer orders (downstream fulfillment, tracked
// independently of sync status)
const (
	ProductionStatusNotStarted = "not_started"
	ProductionStatusPlanned    = "planned"
	ProductionStatusInProgress = "in_progress"
	ProductionStatusCompleted  = "completed"
)

// Order is a customer order header.
type Order struct {
	ID               int64           `db:"id" json:"id"`
	CustomerID       string          `db:"customer_id" json:"customer_id"`
	CustomerName     string          `db:"customer_name" json:"customer_name"`
	CustomerCode     string          `db:"customer_code" json:"customer_code"`
	OrderDate        time.Time       `db:"order_date" json:"order_date"`
	Notes            string          `db:"notes" json:"notes"`
	Status           string          `db:"status" json:"status"`
	PaymentStatus    string          `db:"payment_status" json:"payment_status"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	TaxAmount        decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	ManagerOrderID   string          `db:"manager_order_id" json:"manager_order_id,omitempty"`
	SyncStatus       string          `db:"sync_status" json:"sync_status"`
	ProductionStatus string          `db:"production_status" json:"production_status"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

type OrderItem struct {
	ID              int64           `db:"id" json:"id"`
	OrderID         int64           `db:"order_id" json:"order_id"`
	InventoryItemID string          `db:"inventory_item_id" json:"inventory_item_id"`
	Name            string          `db:"name" json:"name"`
	Code            string          `db:"code" json:"code"`
	Quantity        decimal.Decimal `db:"quantity" json:"quantity"`
	Unit            string          `db:"unit" json:"unit"`
	Price           decimal.Decimal `db:"price" json:"price"`
	Type            string          `db:"type" json:"type"`
}

func (i *OrderItem) IsFinishedGood() bool {
	return i.Type == "finished_good" || strings.HasPrefix(strings.ToUpper(i.Code), "FG")
}

// ProductionShift defines a working shift production orders can be scheduled
// into.
type ProductionShift struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	ShiftType string `db:"shift_type" json:"shift_type"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
	IsActive  bool   `db:"is_active" json:"is_active"`
}

// Production order statuses
const (
	ProductionOrderPlanned    = "planned"
	ProductionOrderInProgress = "in_progress"
	ProductionOrderCompleted  = "completed"
	ProductionOrderCancelled  = "cancelled"
	ProductionOrderPartial    = "partial"
)

// ProductionOrder is a planned production batch, optionally backed by a
// recipe and optionally split into child orders. ManagerOrderID is set once
// on submission and immutable thereafter.
type ProductionOrder struct {
	ID                     int64               `db:"id" json:"id"`
	RecipeID               sql.NullInt64       `db:"recipe_id" json:"recipe_id"`
	ItemName               string              `db:"item_name" json:"item_name"`
	ItemCode               string              `db:"item_code" json:"item_code"`
	PlannedQuantity        decimal.Decimal     `db:"planned_quantity" json:"planned_quantity"`
	ActualQuantity         decimal.NullDecimal `db:"actual_quantity" json:"actual_quantity"`
	RemainingQuantity      decimal.Decimal     `db:"remaining_quantity" json:"remaining_quantity"`
	ProductionCategoryCode string              `db:"production_category_code" json:"production_category_code"`
	AssignedTo             string              `db:"assigned_to" json:"assigned_to"`
	ScheduledDate          time.Time           `db:"scheduled_date" json:"scheduled_date"`
	ShiftID                sql.NullInt64       `db:"shift_id" json:"shift_id"`
	Status                 string              `db:"status" json:"status"`
	IsSplitOrder           bool                `db:"is_split_order" json:"is_split_order"`
	ParentOrderID          sql.NullInt64       `db:"parent_order_id" json:"parent_order_id"`
	VarianceReason         string              `db:"variance_reason" json:"variance_reason"`
	WasteQuantity          decimal.Decimal     `db:"waste_quantity" json:"waste_quantity"`
	Notes                  string              `db:"notes" json:"notes"`
	SourceOrders           pq.Int64Array       `db:"source_orders" json:"source_orders"`
	ManagerOrderID         string              `db:"manager_order_id" json:"manager_order_id,omitempty"`
	CreatedAt              time.Time           `db:"created_at" json:"created_at"`
	CompletedAt            sql.NullTime        `db:"completed_at" json:"completed_at"`
}

// varianceTolerance is the planned-vs-actual noise threshold.
var varianceTolerance = decimal.NewFromFloat(0.01)

func (o *ProductionOrder) HasVariance() bool {
	if !o.ActualQuantity.Valid {
		return false
	}
	return o.PlannedQuantity.Sub(o.ActualQuantity.Decimal).Abs().GreaterThan(varianceTolerance)
}

func (o *ProductionOrder) VariancePercentage() decimal.Decimal {
	if !o.ActualQuantity.Valid || o.PlannedQuantity.IsZero() {
		return decimal.Zero
	}
	return o.ActualQuantity.Decimal.Sub(o.PlannedQuantity).
		Div(o.PlannedQuantity).
		Mul(decimal.NewFromInt(100))
}

// ProductionRequirement is the planning-stage aggregate per
// (date, shift, finished good).
type ProductionRequirement struct {
	ID                     int64               `db:"id" json:"id"`
	Date                   time.Time           `db:"date" json:"date"`
	ShiftID                sql.NullInt64       `db:"shift_id" json:"shift_id"`
	FinishedGoodID         int64               `db:"finished_good_id" json:"finished_good_id"`
	RecipeID               sql.NullInt64       `db:"recipe_id" json:"recipe_id"`
	TotalOrdered           decimal.Decimal     `db:"total_ordered" json:"total_ordered"`
	CurrentStock           decimal.Decimal     `db:"current_stock" json:"current_stock"`
	NetRequired            decimal.Decimal     `db:"net_required" json:"net_required"`
	RecommendedProduction  decimal.Decimal     `db:"recommended_production" json:"recommended_production"`
	ManualOverride         decimal.NullDecimal `db:"manual_override" json:"manual_override"`
	ProductionCategoryCode string              `db:"production_category_code" json:"production_category_code"`
	AssignedTo             string              `db:"assigned_to" json:"assigned_to"`
	Status                 string              `db:"status" json:"status"`
	IsApproved             bool                `db:"is_approved" json:"is_approved"`
	CreatedAt              time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time           `db:"updated_at" json:"updated_at"`
}

// FinalProductionQuantity is the manual override when present, otherwise the
// recommended quantity.
func (r *ProductionRequirement) FinalProductionQuantity() decimal.Decimal {
	if r.ManualOverride.Valid {
		return r.ManualOverride.Decimal
	}
	return r.RecommendedProduction
}
