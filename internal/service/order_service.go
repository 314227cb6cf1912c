package service

import (
	"context"
	"fmt"
	"time"

	"bakery-erp/internal/managerio"
	"bakery-erp/internal/models"
	"bakery-erp/internal/store"
	"bakery-erp/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService manages customer orders and their submission to Manager.io as
// sales orders.
type OrderService struct {
	store   *store.Store
	manager *managerio.Client
	logger  *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, manager *managerio.Client) *OrderService {
	return &OrderService{
		store:   store,
		manager: manager,
		logger:  util.GetLogger(),
	}
}

// OrderItemRequest is one line on a requested customer order.
type OrderItemRequest struct {
	InventoryItemID string          `json:"inventory_item_id"`
	Name            string          `json:"name" binding:"required"`
	Code            string          `json:"code"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Unit            string          `json:"unit"`
	Price           decimal.Decimal `json:"price"`
	Type            string          `json:"type"`
}

// CreateOrderRequest represents a request to create a customer order
type CreateOrderRequest struct {
	CustomerID   string             `json:"customer_id"`
	CustomerName string             `json:"customer_name" binding:"required"`
	CustomerCode string             `json:"customer_code"`
	OrderDate    string             `json:"order_date" binding:"required"`
	Notes        string             `json:"notes"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1"`
}

// CreateOrder creates a customer order with its line items. The total is
// derived from the lines, never taken from the request.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	orderDate, err := time.Parse("2006-01-02", req.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("invalid order date %q: %w", req.OrderDate, err)
	}

	total := calculateOrderTotal(req.Items)

	order := &models.Order{
		CustomerID:       req.CustomerID,
		CustomerName:     req.CustomerName,
		CustomerCode:     req.CustomerCode,
		OrderDate:        orderDate,
		Notes:            req.Notes,
		Status:           models.OrderStatusPending,
		TotalAmount:      total,
		SyncStatus:       models.SyncStatusNotSynced,
		ProductionStatus: models.ProductionStatusNotStarted,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range req.Items {
		orderItem := &models.OrderItem{
			OrderID:         order.ID,
			InventoryItemID: item.InventoryItemID,
			Name:            item.Name,
			Code:            item.Code,
			Quantity:        item.Quantity,
			Unit:            item.Unit,
			Price:           item.Price,
			Type:            item.Type,
		}
		if err := s.store.CreateOrderItem(ctx, orderItem); err != nil {
			return nil, fmt.Errorf("failed to create order item %q: %w", item.Name, err)
		}
	}

	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("customer", order.CustomerName),
		zap.Int("items", len(req.Items)))
	return order, nil
}

// calculateOrderTotal sums quantity times price across order lines.
func calculateOrderTotal(items []OrderItemRequest) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Quantity.Mul(item.Price))
	}
	return total
}

// GetOrder retrieves an order with its line items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// SubmitOrder posts an order to Manager.io as a sales order and records the
// returned key. Resubmitting an already-synced order returns the existing key
// without a second API call.
func (s *OrderService) SubmitOrder(ctx context.Context, orderID int64) (string, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SubmitOrder")
	defer span.End()

	order, items, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	if order.ManagerOrderID != "" {
		s.logger.Info("Order already submitted",
			zap.Int64("order_id", orderID),
			zap.String("manager_order_id", order.ManagerOrderID))
		return order.ManagerOrderID, nil
	}

	customerID := order.CustomerID
	if customerID == "" {
		customerID, err = s.manager.CreateCustomer(ctx, managerio.CustomerForm{
			Name: order.CustomerName,
			CustomFields2: map[string]interface{}{
				"Strings": map[string]string{"Code": order.CustomerCode},
			},
		})
		if err != nil {
			_ = s.store.UpdateOrderSyncStatus(ctx, orderID, models.SyncStatusFailed)
			return "", fmt.Errorf("failed to create customer %q: %w", order.CustomerName, err)
		}
	}

	lines := make([]managerio.SalesOrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, managerio.SalesOrderLine{
			Item:            item.InventoryItemID,
			LineDescription: item.Name,
			Qty:             item.Quantity.InexactFloat64(),
			SalesUnitPrice:  item.Price.InexactFloat64(),
		})
	}

	form := managerio.SalesOrderForm{
		Date:        order.OrderDate.Format("2006-01-02T15:04:05"),
		Reference:   fmt.Sprintf("ORD-%d", order.ID),
		Customer:    customerID,
		Description: order.Notes,
		Lines:       lines,
	}

	key, err := s.manager.CreateSalesOrder(ctx, form)
	if err != nil {
		_ = s.store.UpdateOrderSyncStatus(ctx, orderID, models.SyncStatusFailed)
		return "", fmt.Errorf("failed to submit order %d: %w", orderID, err)
	}

	if err := s.store.SetOrderManagerID(ctx, orderID, key); err != nil {
		return "", err
	}

	s.logger.Info("Order submitted",
		zap.Int64("order_id", orderID), zap.String("manager_order_id", key))
	return key, nil
}

// ListCustomers lists synced customers
func (s *OrderService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return s.store.GetCustomers(ctx)
}
