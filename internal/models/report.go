package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sync report statuses
const (
	SyncReportSuccess = "success"
	SyncReportWarning = "warning"
	SyncReportError   = "error"
)

// SyncReport is the structured result of an inventory or customer sync run.
// The sync entry points always return one of these, never a bare error.
type SyncReport struct {
	Status             string              `json:"status"`
	Message            string              `json:"message"`
	TotalFetched       int                 `json:"total_fetched"`
	Processed          int                 `json:"processed"`
	Skipped            int                 `json:"skipped"`
	Created            int                 `json:"created"`
	Updated            int                 `json:"updated"`
	PriceChanges       int                 `json:"price_changes"`
	SignificantChanges []SignificantChange `json:"significant_changes,omitempty"`
	CategoryCounts     map[string]int      `json:"category_counts,omitempty"`
	ErrorsCount        int                 `json:"errors_count"`
	Errors             []string            `json:"errors,omitempty"`
	ErrorType          string              `json:"error_type,omitempty"`
	StartedAt          time.Time           `json:"started_at"`
	FinishedAt         time.Time           `json:"finished_at"`
}

// SignificantChange identifies a price delta above the 5% threshold.
type SignificantChange struct {
	ManagerItemID    string          `json:"manager_item_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	OldPrice         decimal.Decimal `json:"old_price"`
	NewPrice         decimal.Decimal `json:"new_price"`
	ChangePercentage decimal.Decimal `json:"change_percentage"`
}

// DemandItem is one analyzed finished good in a production planning run.
type DemandItem struct {
	FGKey                  string          `json:"fg_key"`
	ItemCode               string          `json:"item_code"`
	ItemName               string          `json:"item_name"`
	InventoryItemID        string          `json:"inventory_item_id,omitempty"`
	TotalOrdered           decimal.Decimal `json:"total_ordered"`
	CurrentStock           decimal.Decimal `json:"current_stock"`
	NetRequired            decimal.Decimal `json:"net_required"`
	RecommendedProduction  decimal.Decimal `json:"recommended_production"`
	RecipeID               int64           `json:"recipe_id,omitempty"`
	RecipeName             string          `json:"recipe_name,omitempty"`
	ProductionCategoryCode string          `json:"production_category_code"`
	AssignedTo             string          `json:"assigned_to"`
	Orders                 []int64         `json:"orders"`
}

// OrderFinancials summarizes the derived money view of a production order.
type OrderFinancials struct {
	Cost       decimal.Decimal `json:"cost"`
	SalesValue decimal.Decimal `json:"sales_value"`
	Margin     decimal.Decimal `json:"margin"`
}

// CostImpact aggregates price-history impact on a recipe over a window.
type CostImpact struct {
	TotalCostImpact     decimal.Decimal    `json:"total_cost_impact"`
	AffectedIngredients []IngredientImpact `json:"affected_ingredients"`
	PeriodDays          int                `json:"period_days"`
	HasChanges          bool               `json:"has_changes"`
}

type IngredientImpact struct {
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	RecipeImpact decimal.Decimal `json:"recipe_impact"`
	ChangesCount int             `json:"changes_count"`
}

// MaterialRequirement is one raw material line in a materials-required
// report.
type MaterialRequirement struct {
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Unit           string          `json:"unit"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	AvailableStock decimal.Decimal `json:"available_stock"`
	Sufficient     bool            `json:"sufficient"`
	Recipes        []string        `json:"recipes"`
}
