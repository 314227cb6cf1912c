package service

import (
	"context"
	"fmt"
	"time"

	"bakery-erp/internal/models"
	"bakery-erp/internal/store"
	"bakery-erp/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CostingService derives recipe and production order costs from current
// inventory prices. Costs are never cached; every call reflects the latest
// synced unit costs.
type CostingService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCostingService creates a new costing service
func NewCostingService(store *store.Store) *CostingService {
	return &CostingService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// RecipeIngredientRequest is one ingredient line on a recipe request.
type RecipeIngredientRequest struct {
	InventoryItemID int64           `json:"inventory_item_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
}

// CreateRecipeRequest represents a request to create a recipe
type CreateRecipeRequest struct {
	Name                   string                    `json:"name" binding:"required"`
	Category               string                    `json:"category"`
	YieldQuantity          decimal.Decimal           `json:"yield_quantity" binding:"required"`
	YieldUnit              string                    `json:"yield_unit"`
	ManagerInventoryItemID string                    `json:"manager_inventory_item_id"`
	Ingredients            []RecipeIngredientRequest `json:"ingredients" binding:"required,min=1"`
}

// CreateRecipe creates a recipe with its ingredient list. Ingredient
// quantities are stored per batch; costs are always derived at read time.
func (c *CostingService) CreateRecipe(ctx context.Context, req *CreateRecipeRequest) (*models.Recipe, error) {
	ctx, span := util.StartSpan(ctx, "CostingService.CreateRecipe")
	defer span.End()

	recipe := &models.Recipe{
		Name:                   req.Name,
		Category:               req.Category,
		YieldQuantity:          req.YieldQuantity,
		YieldUnit:              req.YieldUnit,
		ManagerInventoryItemID: req.ManagerInventoryItemID,
	}
	if err := c.store.CreateRecipe(ctx, recipe); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	for _, ing := range req.Ingredients {
		ingredient := &models.RecipeIngredient{
			RecipeID:        recipe.ID,
			InventoryItemID: ing.InventoryItemID,
			Quantity:        ing.Quantity,
		}
		if err := c.store.AddRecipeIngredient(ctx, ingredient); err != nil {
			return nil, fmt.Errorf("failed to add ingredient %d: %w", ing.InventoryItemID, err)
		}
	}

	c.logger.Info("Recipe created",
		zap.String("name", recipe.Name),
		zap.Int("ingredients", len(req.Ingredients)))
	return recipe, nil
}

// ListRecipes lists all recipes
func (c *CostingService) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	return c.store.GetRecipes(ctx)
}

// BatchQuantity converts a planned output quantity into whole recipe batches.
// At least one batch is always produced.
func BatchQuantity(planned, yield decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if yield.LessThanOrEqual(decimal.Zero) {
		return one
	}
	batches := planned.Div(yield).Floor()
	if batches.LessThan(one) {
		return one
	}
	return batches
}

// RecipeTotalCost sums ingredient quantity times current unit cost for one
// batch of a recipe.
func (c *CostingService) RecipeTotalCost(ctx context.Context, recipeID int64) (decimal.Decimal, []models.RecipeIngredientDetail, error) {
	ingredients, err := c.store.GetRecipeIngredients(ctx, recipeID)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to load ingredients for recipe %d: %w", recipeID, err)
	}

	total := decimal.Zero
	for _, ing := range ingredients {
		total = total.Add(ing.Quantity.Mul(ing.UnitCost))
	}
	return total, ingredients, nil
}

// RecipeUnitCost is the per-unit cost of a recipe's output, batch cost divided
// by yield.
func (c *CostingService) RecipeUnitCost(ctx context.Context, recipeID int64) (decimal.Decimal, error) {
	recipe, err := c.store.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return decimal.Zero, err
	}

	total, _, err := c.RecipeTotalCost(ctx, recipeID)
	if err != nil {
		return decimal.Zero, err
	}
	if recipe.YieldQuantity.LessThanOrEqual(decimal.Zero) {
		return total, nil
	}
	return total.Div(recipe.YieldQuantity), nil
}

// OrderFinancials derives cost, sales value and margin for a production
// order. Both sides are planned-quantity views: recorded actuals only shape
// the submission payload, never the financials. Without a linked recipe the
// cost side is zero; without a resolvable inventory item the sales side is
// zero.
func (c *CostingService) OrderFinancials(ctx context.Context, productionOrderID int64) (*models.OrderFinancials, error) {
	ctx, span := util.StartSpan(ctx, "CostingService.OrderFinancials")
	defer span.End()

	order, err := c.store.GetProductionOrderByID(ctx, productionOrderID)
	if err != nil {
		return nil, err
	}

	batchCost := decimal.Zero
	yield := decimal.Zero
	var managerItemID string
	if order.RecipeID.Valid {
		recipe, err := c.store.GetRecipeByID(ctx, order.RecipeID.Int64)
		if err != nil {
			return nil, err
		}
		managerItemID = recipe.ManagerInventoryItemID
		yield = recipe.YieldQuantity

		batchCost, _, err = c.RecipeTotalCost(ctx, recipe.ID)
		if err != nil {
			return nil, err
		}
	}

	salesPrice, err := c.resolveSalesPrice(ctx, managerItemID, order.ItemCode, order.ItemName)
	if err != nil {
		return nil, err
	}

	return financialsFrom(order.PlannedQuantity, yield, batchCost, salesPrice), nil
}

// financialsFrom computes the planned-quantity financial view: cost is whole
// batches times batch cost, sales value is planned output times unit price.
func financialsFrom(planned, yield, batchCost, salesPrice decimal.Decimal) *models.OrderFinancials {
	cost := BatchQuantity(planned, yield).Mul(batchCost)
	salesValue := planned.Mul(salesPrice)
	return &models.OrderFinancials{
		Cost:       cost,
		SalesValue: salesValue,
		Margin:     salesValue.Sub(cost),
	}
}

// resolveSalesPrice finds the unit sales price of an item by external
// identifier first, then exact code, then name substring. Unresolvable items
// price at zero.
func (c *CostingService) resolveSalesPrice(ctx context.Context, managerItemID, code, name string) (decimal.Decimal, error) {
	if managerItemID != "" {
		item, err := c.store.GetInventoryItemByManagerID(ctx, managerItemID)
		if err != nil {
			return decimal.Zero, err
		}
		if item != nil {
			return item.SalesPrice, nil
		}
	}

	item, err := c.store.FindInventoryItemByCodeOrName(ctx, code, name)
	if err != nil {
		return decimal.Zero, err
	}
	if item != nil {
		return item.SalesPrice, nil
	}

	c.logger.Debug("No sales price found for item",
		zap.String("code", code), zap.String("name", name))
	return decimal.Zero, nil
}

// CostImpact aggregates ledger entries over a trailing window into the cost
// impact on one batch of a recipe.
func (c *CostingService) CostImpact(ctx context.Context, recipeID int64, days int) (*models.CostImpact, error) {
	ctx, span := util.StartSpan(ctx, "CostingService.CostImpact")
	defer span.End()

	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	_, ingredients, err := c.RecipeTotalCost(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	impact := &models.CostImpact{
		TotalCostImpact:     decimal.Zero,
		AffectedIngredients: []models.IngredientImpact{},
		PeriodDays:          days,
	}

	for _, ing := range ingredients {
		entries, err := c.store.GetPriceHistorySince(ctx, ing.InventoryItemID, since)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			continue
		}

		netChange := decimal.Zero
		for _, entry := range entries {
			netChange = netChange.Add(entry.ChangeAmount)
		}

		recipeImpact := netChange.Mul(ing.Quantity)
		impact.TotalCostImpact = impact.TotalCostImpact.Add(recipeImpact)
		impact.AffectedIngredients = append(impact.AffectedIngredients, models.IngredientImpact{
			Name:         ing.ItemName,
			Code:         ing.ItemCode,
			RecipeImpact: recipeImpact,
			ChangesCount: len(entries),
		})
	}

	impact.HasChanges = len(impact.AffectedIngredients) > 0
	return impact, nil
}
