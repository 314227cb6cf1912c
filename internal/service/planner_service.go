package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"bakery-erp/config"
	"bakery-erp/internal/broker"
	"bakery-erp/internal/managerio"
	"bakery-erp/internal/models"
	"bakery-erp/internal/store"
	"bakery-erp/internal/util"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const unassignedWorker = "Unassigned"

// PlannerService turns pending customer orders into production orders and
// submits completed ones to Manager.io.
type PlannerService struct {
	store          *store.Store
	manager        *managerio.Client
	eventPublisher *broker.EventPublisher
	rules          []config.AssignmentRule
	logger         *zap.Logger
}

// NewPlannerService creates a new planner service
func NewPlannerService(
	store *store.Store,
	manager *managerio.Client,
	eventPublisher *broker.EventPublisher,
	rules []config.AssignmentRule,
) *PlannerService {
	return &PlannerService{
		store:          store,
		manager:        manager,
		eventPublisher: eventPublisher,
		rules:          rules,
		logger:         util.GetLogger(),
	}
}

// inferAssignment maps a recipe category onto a production category code and
// default assignee via the configured keyword rules.
func (p *PlannerService) inferAssignment(recipeCategory string) (string, string) {
	category := strings.ToLower(recipeCategory)
	for _, rule := range p.rules {
		if strings.Contains(category, rule.Keyword) {
			return rule.CategoryCode, rule.AssignedTo
		}
	}
	return "", unassignedWorker
}

// AnalyzeDemand aggregates pending-order finished good lines for a date into
// net production demand. When fgKeys is non-empty only lines whose code or
// name matches a key are analyzed.
func (p *PlannerService) AnalyzeDemand(ctx context.Context, date time.Time, fgKeys []string) ([]models.DemandItem, error) {
	ctx, span := util.StartSpan(ctx, "PlannerService.AnalyzeDemand")
	defer span.End()

	orders, err := p.store.GetPendingOrdersByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending orders: %w", err)
	}

	keyFilter := make(map[string]struct{}, len(fgKeys))
	for _, key := range fgKeys {
		keyFilter[strings.ToLower(key)] = struct{}{}
	}

	demand := make(map[string]*models.DemandItem)
	var keys []string

	for _, order := range orders {
		items, err := p.store.GetOrderItemsByOrderID(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load items for order %d: %w", order.ID, err)
		}

		for _, line := range items {
			if !line.IsFinishedGood() {
				continue
			}

			key := line.Code
			if key == "" {
				key = line.Name
			}
			key = strings.ToLower(key)
			if len(keyFilter) > 0 {
				if _, ok := keyFilter[key]; !ok {
					continue
				}
			}

			entry, ok := demand[key]
			if !ok {
				entry = &models.DemandItem{
					FGKey:    key,
					ItemCode: line.Code,
					ItemName: line.Name,
				}
				demand[key] = entry
				keys = append(keys, key)
			}
			entry.TotalOrdered = entry.TotalOrdered.Add(line.Quantity)
			entry.Orders = append(entry.Orders, order.ID)
		}
	}

	sort.Strings(keys)
	result := make([]models.DemandItem, 0, len(keys))
	for _, key := range keys {
		entry := demand[key]

		inv, err := p.store.FindInventoryItemByCodeOrName(ctx, entry.ItemCode, entry.ItemName)
		if err != nil {
			return nil, err
		}
		var managerItemID string
		if inv != nil {
			managerItemID = inv.ManagerItemID
			entry.InventoryItemID = inv.ManagerItemID
			entry.CurrentStock = inv.QuantityAvailable
		}

		entry.NetRequired = entry.TotalOrdered.Sub(entry.CurrentStock)
		if entry.NetRequired.LessThan(decimal.Zero) {
			entry.NetRequired = decimal.Zero
		}
		entry.RecommendedProduction = entry.NetRequired

		var recipeCategory string
		recipe, err := p.store.FindRecipeForItem(ctx, managerItemID, entry.ItemName)
		if err != nil {
			return nil, err
		}
		if recipe != nil {
			entry.RecipeID = recipe.ID
			entry.RecipeName = recipe.Name
			recipeCategory = recipe.Category
		}
		entry.ProductionCategoryCode, entry.AssignedTo = p.inferAssignment(recipeCategory)

		result = append(result, *entry)
	}

	p.logger.Info("Demand analysis complete",
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("pending_orders", len(orders)),
		zap.Int("demand_items", len(result)))
	return result, nil
}

// SplitRequest carves an independent child order out of a split production
// order.
type SplitRequest struct {
	Quantity     decimal.Decimal `json:"quantity"`
	AssignedTo   string          `json:"assigned_to"`
	CategoryCode string          `json:"category_code"`
	ShiftID      int64           `json:"shift_id"`
}

// ProductionOrderRequest is one requested production order.
type ProductionOrderRequest struct {
	ItemName     string          `json:"item_name" binding:"required"`
	ItemCode     string          `json:"item_code"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	RecipeID     int64           `json:"recipe_id"`
	CategoryCode string          `json:"category_code"`
	AssignedTo   string          `json:"assigned_to"`
	ShiftID      int64           `json:"shift_id"`
	Notes        string          `json:"notes"`
	SourceOrders []int64         `json:"source_orders"`
	Splits       []SplitRequest  `json:"splits"`
}

// CreateProductionOrders creates production orders for a date. Each request is
// isolated: a failure is recorded and the remaining requests still run. Split
// requests create a parent plus one child per split with independent
// quantity, assignee, category and shift; siblings of a failed child are kept.
func (p *PlannerService) CreateProductionOrders(ctx context.Context, date time.Time, reqs []ProductionOrderRequest) ([]models.ProductionOrder, []string) {
	ctx, span := util.StartSpan(ctx, "PlannerService.CreateProductionOrders")
	defer span.End()

	var created []models.ProductionOrder
	var errs []string

	for _, req := range reqs {
		if req.ShiftID > 0 {
			shift, err := p.store.GetProductionShiftByID(ctx, req.ShiftID)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", req.ItemName, err))
				continue
			}
			if shift == nil || !shift.IsActive {
				errs = append(errs, fmt.Sprintf("%s: shift %d is not active", req.ItemName, req.ShiftID))
				continue
			}
		}

		categoryCode, assignedTo := req.CategoryCode, req.AssignedTo
		if categoryCode == "" || assignedTo == "" {
			inferredCode, inferredWorker := p.inferForRequest(ctx, &req)
			if categoryCode == "" {
				categoryCode = inferredCode
			}
			if assignedTo == "" {
				assignedTo = inferredWorker
			}
		}

		parent := &models.ProductionOrder{
			RecipeID:               nullInt64(req.RecipeID),
			ItemName:               req.ItemName,
			ItemCode:               req.ItemCode,
			PlannedQuantity:        req.Quantity,
			RemainingQuantity:      req.Quantity,
			ProductionCategoryCode: categoryCode,
			AssignedTo:             assignedTo,
			ScheduledDate:          date,
			ShiftID:                nullInt64(req.ShiftID),
			Status:                 models.ProductionOrderPlanned,
			IsSplitOrder:           len(req.Splits) > 0,
			Notes:                  req.Notes,
			SourceOrders:           pq.Int64Array(req.SourceOrders),
		}

		if err := p.store.CreateProductionOrder(ctx, parent); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", req.ItemName, err))
			util.ProductionOrderFailedTotal.WithLabelValues("db_error").Inc()
			p.logger.Error("Failed to create production order",
				zap.String("item", req.ItemName), zap.Error(err))
			continue
		}
		created = append(created, *parent)
		p.announceCreated(ctx, parent)

		for i, split := range req.Splits {
			child := &models.ProductionOrder{
				RecipeID:               parent.RecipeID,
				ItemName:               req.ItemName,
				ItemCode:               req.ItemCode,
				PlannedQuantity:        split.Quantity,
				RemainingQuantity:      split.Quantity,
				ProductionCategoryCode: defaultString(split.CategoryCode, categoryCode),
				AssignedTo:             defaultString(split.AssignedTo, assignedTo),
				ScheduledDate:          date,
				ShiftID:                nullInt64(split.ShiftID),
				Status:                 models.ProductionOrderPlanned,
				ParentOrderID:          sql.NullInt64{Int64: parent.ID, Valid: true},
				SourceOrders:           pq.Int64Array(req.SourceOrders),
			}
			if err := p.store.CreateProductionOrder(ctx, child); err != nil {
				errs = append(errs, fmt.Sprintf("%s split %d: %v", req.ItemName, i+1, err))
				util.ProductionOrderFailedTotal.WithLabelValues("db_error").Inc()
				continue
			}
			created = append(created, *child)
			p.announceCreated(ctx, child)
		}

		for _, orderID := range req.SourceOrders {
			if err := p.store.UpdateOrderProductionStatus(ctx, orderID, models.ProductionStatusPlanned); err != nil {
				p.logger.Warn("Failed to mark source order planned",
					zap.Int64("order_id", orderID), zap.Error(err))
			}
		}
	}

	return created, errs
}

func (p *PlannerService) inferForRequest(ctx context.Context, req *ProductionOrderRequest) (string, string) {
	var category string
	if req.RecipeID > 0 {
		if recipe, err := p.store.GetRecipeByID(ctx, req.RecipeID); err == nil {
			category = recipe.Category
		}
	} else if recipe, err := p.store.FindRecipeForItem(ctx, "", req.ItemName); err == nil && recipe != nil {
		category = recipe.Category
	}
	return p.inferAssignment(category)
}

func (p *PlannerService) announceCreated(ctx context.Context, order *models.ProductionOrder) {
	util.ProductionOrdersCreatedTotal.Inc()
	event := &models.ProductionOrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductionOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:         order.ID,
		ItemName:        order.ItemName,
		ItemCode:        order.ItemCode,
		PlannedQuantity: order.PlannedQuantity,
		AssignedTo:      order.AssignedTo,
		IsSplit:         order.IsSplitOrder,
	}
	if err := p.eventPublisher.PublishProductionOrderCreated(ctx, event); err != nil {
		p.logger.Error("Failed to publish ProductionOrderCreated event", zap.Error(err))
	}
}

// RecordActualsRequest carries the completion data for a production order.
type RecordActualsRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity" binding:"required"`
	WasteQuantity  decimal.Decimal `json:"waste_quantity"`
	VarianceReason string          `json:"variance_reason"`
}

// RecordActuals records produced quantities on an order. A variance beyond
// the tolerance requires a reason. Underproduction leaves the order partial
// with the shortfall as remaining quantity.
func (p *PlannerService) RecordActuals(ctx context.Context, orderID int64, req *RecordActualsRequest) (*models.ProductionOrder, error) {
	ctx, span := util.StartSpan(ctx, "PlannerService.RecordActuals")
	defer span.End()

	order, err := p.store.GetProductionOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ManagerOrderID != "" {
		return nil, fmt.Errorf("production order %d is already submitted", orderID)
	}

	order.ActualQuantity = decimal.NewNullDecimal(req.ActualQuantity)
	order.WasteQuantity = req.WasteQuantity
	order.VarianceReason = req.VarianceReason

	if order.HasVariance() && req.VarianceReason == "" {
		return nil, fmt.Errorf("variance of %s%% requires a reason",
			order.VariancePercentage().StringFixed(2))
	}

	order.RemainingQuantity = order.PlannedQuantity.Sub(req.ActualQuantity)
	if order.RemainingQuantity.LessThanOrEqual(decimal.Zero) {
		order.RemainingQuantity = decimal.Zero
		order.Status = models.ProductionOrderCompleted
	} else {
		order.Status = models.ProductionOrderPartial
	}

	if err := p.store.RecordProductionActuals(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to record actuals for order %d: %w", orderID, err)
	}

	p.logger.Info("Production actuals recorded",
		zap.Int64("order_id", orderID),
		zap.String("status", order.Status),
		zap.String("actual", req.ActualQuantity.String()))
	return order, nil
}

// allowed production order status transitions
var statusTransitions = map[string][]string{
	models.ProductionOrderPlanned:    {models.ProductionOrderInProgress, models.ProductionOrderCancelled},
	models.ProductionOrderInProgress: {models.ProductionOrderCompleted, models.ProductionOrderPartial, models.ProductionOrderCancelled},
	models.ProductionOrderPartial:    {models.ProductionOrderCompleted, models.ProductionOrderCancelled},
}

// UpdateStatus transitions a production order between workflow states.
func (p *PlannerService) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	order, err := p.store.GetProductionOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	for _, allowed := range statusTransitions[order.Status] {
		if status == allowed {
			return p.store.UpdateProductionOrderStatus(ctx, orderID, status)
		}
	}
	return fmt.Errorf("cannot transition production order %d from %s to %s", orderID, order.Status, status)
}

// SubmitProductionOrder posts a completed production order to Manager.io and
// records the returned key. Resubmitting an order that already carries an
// external key returns that key without a second API call.
func (p *PlannerService) SubmitProductionOrder(ctx context.Context, orderID int64) (string, error) {
	ctx, span := util.StartSpan(ctx, "PlannerService.SubmitProductionOrder")
	defer span.End()

	order, err := p.store.GetProductionOrderByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	return p.submitOrder(ctx, order)
}

func (p *PlannerService) submitOrder(ctx context.Context, order *models.ProductionOrder) (string, error) {
	if order.ManagerOrderID != "" {
		p.logger.Info("Production order already submitted",
			zap.Int64("order_id", order.ID),
			zap.String("manager_order_id", order.ManagerOrderID))
		return order.ManagerOrderID, nil
	}

	if !order.RecipeID.Valid {
		util.ProductionOrderFailedTotal.WithLabelValues("no_recipe").Inc()
		return "", fmt.Errorf("production order %d has no linked recipe", order.ID)
	}
	recipe, err := p.store.GetRecipeByID(ctx, order.RecipeID.Int64)
	if err != nil {
		return "", err
	}
	if recipe.ManagerInventoryItemID == "" {
		util.ProductionOrderFailedTotal.WithLabelValues("unlinked_recipe").Inc()
		return "", fmt.Errorf("recipe %q is not linked to a Manager.io inventory item", recipe.Name)
	}

	quantity := order.PlannedQuantity
	if order.ActualQuantity.Valid {
		quantity = order.ActualQuantity.Decimal
	}

	multiplier := decimal.NewFromInt(1)
	if recipe.YieldQuantity.GreaterThan(decimal.Zero) {
		multiplier = quantity.Div(recipe.YieldQuantity)
	}

	ingredients, err := p.store.GetRecipeIngredients(ctx, recipe.ID)
	if err != nil {
		return "", err
	}
	lines := make([]managerio.BillOfMaterialsLine, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.ManagerItemID == "" {
			p.logger.Warn("Skipping unlinked ingredient in submission",
				zap.Int64("order_id", order.ID), zap.String("ingredient", ing.ItemName))
			continue
		}
		lines = append(lines, managerio.BillOfMaterialsLine{
			BillOfMaterials: ing.ManagerItemID,
			Qty:             ing.Quantity.Mul(multiplier).InexactFloat64(),
		})
	}

	form := managerio.ProductionOrderForm{
		Date:                  order.ScheduledDate.Format("2006-01-02T15:04:05"),
		FinishedInventoryItem: recipe.ManagerInventoryItemID,
		Qty:                   quantity.InexactFloat64(),
		BillOfMaterials:       lines,
	}

	key, err := p.manager.SubmitProductionOrder(ctx, form)
	if err != nil {
		util.ProductionOrderFailedTotal.WithLabelValues("api_error").Inc()
		return "", fmt.Errorf("failed to submit production order %d: %w", order.ID, err)
	}

	if err := p.store.SetProductionOrderManagerID(ctx, order.ID, key); err != nil {
		return "", err
	}

	util.ProductionOrdersSubmittedTotal.Inc()
	p.logger.Info("Production order submitted",
		zap.Int64("order_id", order.ID), zap.String("manager_order_id", key))

	event := &models.ProductionOrderSubmittedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductionOrderSubmitted,
			Timestamp: time.Now(),
		},
		OrderID:        order.ID,
		ManagerOrderID: key,
		ItemCode:       order.ItemCode,
	}
	if err := p.eventPublisher.PublishProductionOrderSubmitted(ctx, event); err != nil {
		p.logger.Error("Failed to publish ProductionOrderSubmitted event", zap.Error(err))
	}

	return key, nil
}

// MaterialsRequired consolidates raw material needs across the production
// orders of one assignee (or all orders on the date when assignee is empty).
// With detailed set, each contributing recipe is listed with its batch share.
func (p *PlannerService) MaterialsRequired(ctx context.Context, assignee string, date time.Time, detailed bool) ([]models.MaterialRequirement, error) {
	ctx, span := util.StartSpan(ctx, "PlannerService.MaterialsRequired")
	defer span.End()

	var orders []models.ProductionOrder
	var err error
	if assignee != "" {
		orders, err = p.store.GetProductionOrdersByAssignee(ctx, assignee, date)
	} else {
		orders, err = p.store.GetProductionOrdersByDate(ctx, date)
	}
	if err != nil {
		return nil, err
	}

	type accumulator struct {
		req     models.MaterialRequirement
		recipes map[string]struct{}
	}
	materials := make(map[string]*accumulator)

	for _, order := range orders {
		if !order.RecipeID.Valid {
			continue
		}
		recipe, err := p.store.GetRecipeByID(ctx, order.RecipeID.Int64)
		if err != nil {
			return nil, err
		}

		multiplier := decimal.NewFromInt(1)
		if recipe.YieldQuantity.GreaterThan(decimal.Zero) {
			multiplier = order.PlannedQuantity.Div(recipe.YieldQuantity)
		}

		ingredients, err := p.store.GetRecipeIngredients(ctx, recipe.ID)
		if err != nil {
			return nil, err
		}

		for _, ing := range ingredients {
			acc, ok := materials[ing.ItemCode]
			if !ok {
				acc = &accumulator{
					req: models.MaterialRequirement{
						Name:           ing.ItemName,
						Code:           ing.ItemCode,
						Unit:           ing.Unit,
						AvailableStock: ing.QuantityAvailable,
					},
					recipes: make(map[string]struct{}),
				}
				materials[ing.ItemCode] = acc
			}
			acc.req.TotalQuantity = acc.req.TotalQuantity.Add(ing.Quantity.Mul(multiplier))

			label := recipe.Name
			if detailed {
				label = fmt.Sprintf("%s (x%s)", recipe.Name, multiplier.StringFixed(2))
			}
			acc.recipes[label] = struct{}{}
		}
	}

	result := make([]models.MaterialRequirement, 0, len(materials))
	for _, acc := range materials {
		for recipe := range acc.recipes {
			acc.req.Recipes = append(acc.req.Recipes, recipe)
		}
		sort.Strings(acc.req.Recipes)
		acc.req.Sufficient = acc.req.AvailableStock.GreaterThanOrEqual(acc.req.TotalQuantity)
		result = append(result, acc.req)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })

	return result, nil
}

// SaveRequirements persists analyzed demand as production requirements for a
// date and shift. Items without a matching inventory row cannot be keyed and
// are skipped.
func (p *PlannerService) SaveRequirements(ctx context.Context, date time.Time, shiftID int64, items []models.DemandItem) error {
	for _, item := range items {
		inv, err := p.store.FindInventoryItemByCodeOrName(ctx, item.ItemCode, item.ItemName)
		if err != nil {
			return err
		}
		if inv == nil {
			p.logger.Warn("No inventory row for demand item, skipping requirement",
				zap.String("fg_key", item.FGKey))
			continue
		}

		req := &models.ProductionRequirement{
			Date:                   date,
			ShiftID:                nullInt64(shiftID),
			FinishedGoodID:         inv.ID,
			RecipeID:               nullInt64(item.RecipeID),
			TotalOrdered:           item.TotalOrdered,
			CurrentStock:           item.CurrentStock,
			NetRequired:            item.NetRequired,
			RecommendedProduction:  item.RecommendedProduction,
			ProductionCategoryCode: item.ProductionCategoryCode,
			AssignedTo:             item.AssignedTo,
			Status:                 models.ProductionStatusPlanned,
		}
		if err := p.store.UpsertProductionRequirement(ctx, req); err != nil {
			return fmt.Errorf("failed to save requirement for %s: %w", item.FGKey, err)
		}

		for _, orderID := range item.Orders {
			if err := p.store.LinkRequirementOrder(ctx, req.ID, orderID); err != nil {
				p.logger.Warn("Failed to link requirement to order",
					zap.Int64("requirement_id", req.ID),
					zap.Int64("order_id", orderID), zap.Error(err))
			}
		}
	}
	return nil
}

// OverrideRequirement sets or clears the manual production quantity on a
// requirement.
func (p *PlannerService) OverrideRequirement(ctx context.Context, requirementID int64, override decimal.NullDecimal) error {
	return p.store.SetRequirementOverride(ctx, requirementID, override)
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v > 0}
}

func defaultString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
