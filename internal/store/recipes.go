package store

import (
	"context"
	"database/sql"
	"fmt"

	"bakery-erp/internal/models"
)

// CreateRecipe creates a new recipe
func (s *Store) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	query := `
		INSERT INTO recipes (name, category, yield_quantity, yield_unit, manager_inventory_item_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, recipe, query,
		recipe.Name, recipe.Category, recipe.YieldQuantity,
		recipe.YieldUnit, recipe.ManagerInventoryItemID)
}

// GetRecipeByID retrieves a recipe by ID
func (s *Store) GetRecipeByID(ctx context.Context, id int64) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.GetContext(ctx, &recipe, "SELECT * FROM recipes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recipe not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// FindRecipeForItem resolves the recipe for a finished good by linked
// external identifier first, then by name substring. Returns (nil, nil) when
// nothing matches.
func (s *Store) FindRecipeForItem(ctx context.Context, managerItemID, name string) (*models.Recipe, error) {
	var recipe models.Recipe
	if managerItemID != "" {
		err := s.db.GetContext(ctx, &recipe,
			"SELECT * FROM recipes WHERE manager_inventory_item_id = $1 LIMIT 1", managerItemID)
		if err == nil {
			return &recipe, nil
		}
		if err != sql.ErrNoRows {
			return nil, err
		}
	}
	if name != "" {
		err := s.db.GetContext(ctx, &recipe,
			"SELECT * FROM recipes WHERE name ILIKE '%' || $1 || '%' LIMIT 1", name)
		if err == nil {
			return &recipe, nil
		}
		if err != sql.ErrNoRows {
			return nil, err
		}
	}
	return nil, nil
}

// AddRecipeIngredient adds an ingredient to a recipe. The
// (recipe, inventory item) pair is unique.
func (s *Store) AddRecipeIngredient(ctx context.Context, ingredient *models.RecipeIngredient) error {
	query := `
		INSERT INTO recipe_ingredients (recipe_id, inventory_item_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id`

	return s.db.GetContext(ctx, &ingredient.ID, query,
		ingredient.RecipeID, ingredient.InventoryItemID, ingredient.Quantity)
}

// GetRecipeIngredients retrieves a recipe's ingredients joined with the
// current inventory row, so callers always see live unit costs.
func (s *Store) GetRecipeIngredients(ctx context.Context, recipeID int64) ([]models.RecipeIngredientDetail, error) {
	var ingredients []models.RecipeIngredientDetail
	err := s.db.SelectContext(ctx, &ingredients, `
		SELECT ri.id, ri.recipe_id, ri.inventory_item_id, ri.quantity,
		       ii.name AS item_name, ii.code AS item_code, ii.unit,
		       ii.unit_cost, ii.quantity_available, ii.manager_item_id
		FROM recipe_ingredients ri
		JOIN inventory_items ii ON ii.id = ri.inventory_item_id
		WHERE ri.recipe_id = $1
		ORDER BY ri.id`, recipeID)
	return ingredients, err
}

// GetRecipes retrieves all recipes
func (s *Store) GetRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.SelectContext(ctx, &recipes, "SELECT * FROM recipes ORDER BY name")
	return recipes, err
}
