package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bakery-erp/internal/models"

	"github.com/shopspring/decimal"
)

// CreateProductionOrder creates a new production order
func (s *Store) CreateProductionOrder(ctx context.Context, order *models.ProductionOrder) error {
	query := `
		INSERT INTO production_orders
			(recipe_id, item_name, item_code, planned_quantity, actual_quantity,
			 remaining_quantity, production_category_code, assigned_to, scheduled_date,
			 shift_id, status, is_split_order, parent_order_id, variance_reason,
			 waste_quantity, notes, source_orders)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, order, query,
		order.RecipeID, order.ItemName, order.ItemCode, order.PlannedQuantity,
		order.ActualQuantity, order.RemainingQuantity, order.ProductionCategoryCode,
		order.AssignedTo, order.ScheduledDate, order.ShiftID, order.Status,
		order.IsSplitOrder, order.ParentOrderID, order.VarianceReason,
		order.WasteQuantity, order.Notes, order.SourceOrders)
}

// GetProductionOrderByID retrieves a production order by ID
func (s *Store) GetProductionOrderByID(ctx context.Context, id int64) (*models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := s.db.GetContext(ctx, &order, "SELECT * FROM production_orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("production order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetProductionOrdersByAssignee retrieves active production orders for one
// assignee on a date.
func (s *Store) GetProductionOrdersByAssignee(ctx context.Context, assignedTo string, date time.Time) ([]models.ProductionOrder, error) {
	var orders []models.ProductionOrder
	err := s.db.SelectContext(ctx, &orders, `
		SELECT * FROM production_orders
		WHERE assigned_to = $1 AND scheduled_date = $2 AND status IN ($3, $4)
		ORDER BY production_category_code, item_name`,
		assignedTo, date.Format("2006-01-02"),
		models.ProductionOrderPlanned, models.ProductionOrderInProgress)
	return orders, err
}

// GetProductionOrdersByDate retrieves all production orders scheduled for a
// date.
func (s *Store) GetProductionOrdersByDate(ctx context.Context, date time.Time) ([]models.ProductionOrder, error) {
	var orders []models.ProductionOrder
	err := s.db.SelectContext(ctx, &orders, `
		SELECT * FROM production_orders
		WHERE scheduled_date = $1
		ORDER BY production_category_code, item_name`,
		date.Format("2006-01-02"))
	return orders, err
}

// SetProductionOrderManagerID records the external submission identifier and
// completes the order. The identifier is set once and immutable; a second
// submission finds zero updatable rows.
func (s *Store) SetProductionOrderManagerID(ctx context.Context, orderID int64, managerOrderID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE production_orders
		SET manager_order_id = $1, status = $2, completed_at = NOW()
		WHERE id = $3 AND manager_order_id = ''`,
		managerOrderID, models.ProductionOrderCompleted, orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("production order %d already submitted", orderID)
	}
	return nil
}

// UpdateProductionOrderStatus updates a production order's status
func (s *Store) UpdateProductionOrderStatus(ctx context.Context, orderID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE production_orders SET status = $1 WHERE id = $2", status, orderID)
	return err
}

// RecordProductionActuals records the completed quantity and variance data.
func (s *Store) RecordProductionActuals(ctx context.Context, order *models.ProductionOrder) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE production_orders
		SET actual_quantity = $1, remaining_quantity = $2, waste_quantity = $3,
		    variance_reason = $4, status = $5, completed_at = NOW()
		WHERE id = $6`,
		order.ActualQuantity, order.RemainingQuantity, order.WasteQuantity,
		order.VarianceReason, order.Status, order.ID)
	return err
}

// GetProductionShiftByID retrieves a shift by ID. Returns (nil, nil) when no
// row exists.
func (s *Store) GetProductionShiftByID(ctx context.Context, id int64) (*models.ProductionShift, error) {
	var shift models.ProductionShift
	err := s.db.GetContext(ctx, &shift, "SELECT * FROM production_shifts WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// UpsertProductionRequirement inserts or refreshes the planning aggregate
// keyed by (date, shift, finished good). Shiftless requirements conflict on
// their own partial index since a NULL shift_id never matches the composite
// one.
func (s *Store) UpsertProductionRequirement(ctx context.Context, req *models.ProductionRequirement) error {
	conflict := "(date, shift_id, finished_good_id) WHERE shift_id IS NOT NULL"
	if !req.ShiftID.Valid {
		conflict = "(date, finished_good_id) WHERE shift_id IS NULL"
	}

	query := `
		INSERT INTO production_requirements
			(date, shift_id, finished_good_id, recipe_id, total_ordered, current_stock,
			 net_required, recommended_production, manual_override,
			 production_category_code, assigned_to, status, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT ` + conflict + ` DO UPDATE SET
			recipe_id = EXCLUDED.recipe_id,
			total_ordered = EXCLUDED.total_ordered,
			current_stock = EXCLUDED.current_stock,
			net_required = EXCLUDED.net_required,
			recommended_production = EXCLUDED.recommended_production,
			production_category_code = EXCLUDED.production_category_code,
			assigned_to = EXCLUDED.assigned_to,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, req, query,
		req.Date, req.ShiftID, req.FinishedGoodID, req.RecipeID,
		req.TotalOrdered, req.CurrentStock, req.NetRequired,
		req.RecommendedProduction, req.ManualOverride,
		req.ProductionCategoryCode, req.AssignedTo, req.Status, req.IsApproved)
}

// LinkRequirementOrder links a planning requirement to one of its source
// orders.
func (s *Store) LinkRequirementOrder(ctx context.Context, requirementID, orderID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requirement_orders (requirement_id, order_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, requirementID, orderID)
	return err
}

// SetRequirementOverride records a manual production quantity override.
func (s *Store) SetRequirementOverride(ctx context.Context, requirementID int64, override decimal.NullDecimal) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE production_requirements
		SET manual_override = $1, updated_at = NOW()
		WHERE id = $2`, override, requirementID)
	return err
}
