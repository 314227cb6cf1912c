package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bakery-erp/internal/models"
)

// CreateOrder creates a new customer order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders
			(customer_id, customer_name, customer_code, order_date, notes,
			 status, payment_status, total_amount, tax_amount, sync_status, production_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.CustomerID, order.CustomerName, order.CustomerCode,
		order.OrderDate, order.Notes, order.Status, order.PaymentStatus,
		order.TotalAmount, order.TaxAmount, order.SyncStatus, order.ProductionStatus)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetPendingOrdersByDate retrieves pending orders for a target date.
func (s *Store) GetPendingOrdersByDate(ctx context.Context, date time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE order_date = $1 AND status = $2 ORDER BY id",
		date.Format("2006-01-02"), models.OrderStatusPending)
	return orders, err
}

// CreateOrderItem creates a new order line item
func (s *Store) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, inventory_item_id, name, code, quantity, unit, price, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	return s.db.GetContext(ctx, &item.ID, query,
		item.OrderID, item.InventoryItemID, item.Name, item.Code,
		item.Quantity, item.Unit, item.Price, item.Type)
}

// GetOrderItemsByOrderID retrieves all line items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// SetOrderManagerID records the external submission identifier and marks the
// order synced. The identifier is only ever set once.
func (s *Store) SetOrderManagerID(ctx context.Context, orderID int64, managerOrderID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET manager_order_id = $1, sync_status = $2, updated_at = NOW()
		WHERE id = $3 AND manager_order_id = ''`,
		managerOrderID, models.SyncStatusSynced, orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("order %d already submitted", orderID)
	}
	return nil
}

// UpdateOrderSyncStatus updates the submission state of an order.
func (s *Store) UpdateOrderSyncStatus(ctx context.Context, orderID int64, syncStatus string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET sync_status = $1, updated_at = NOW() WHERE id = $2",
		syncStatus, orderID)
	return err
}

// UpdateOrderProductionStatus updates downstream fulfillment state,
// independent of sync status.
func (s *Store) UpdateOrderProductionStatus(ctx context.Context, orderID int64, productionStatus string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET production_status = $1, updated_at = NOW() WHERE id = $2",
		productionStatus, orderID)
	return err
}
