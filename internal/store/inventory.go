package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bakery-erp/internal/models"
)

// GetInventoryItemByManagerID retrieves an inventory item by its external
// identifier. Returns (nil, nil) when no row exists.
func (s *Store) GetInventoryItemByManagerID(ctx context.Context, managerItemID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM inventory_items WHERE manager_item_id = $1", managerItemID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetInventoryItemByCode retrieves an inventory item by its human-facing code.
// Returns (nil, nil) when no row exists.
func (s *Store) GetInventoryItemByCode(ctx context.Context, code string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM inventory_items WHERE code = $1 ORDER BY id LIMIT 1", code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindInventoryItemByName finds the first inventory item whose name contains
// the given substring, case-insensitively. Returns (nil, nil) on no match.
func (s *Store) FindInventoryItemByName(ctx context.Context, name string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM inventory_items WHERE name ILIKE '%' || $1 || '%' LIMIT 1", name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindInventoryItemByCodeOrName resolves an item by exact code first, then by
// name substring.
func (s *Store) FindInventoryItemByCodeOrName(ctx context.Context, code, name string) (*models.InventoryItem, error) {
	if code != "" {
		item, err := s.GetInventoryItemByCode(ctx, code)
		if err != nil || item != nil {
			return item, err
		}
	}
	if name != "" {
		return s.FindInventoryItemByName(ctx, name)
	}
	return nil, nil
}

// UpsertInventoryItem inserts or fully replaces the mutable fields of an
// inventory item keyed by manager_item_id. The identifier itself is never
// updated. The row id is written back into the model.
func (s *Store) UpsertInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory_items
			(manager_item_id, code, name, unit, unit_cost, sales_price,
			 quantity_available, threshold_quantity, category, division_name, last_synced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (manager_item_id) DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			unit = EXCLUDED.unit,
			unit_cost = EXCLUDED.unit_cost,
			sales_price = EXCLUDED.sales_price,
			quantity_available = EXCLUDED.quantity_available,
			threshold_quantity = EXCLUDED.threshold_quantity,
			category = EXCLUDED.category,
			division_name = EXCLUDED.division_name,
			last_synced = NOW()
		RETURNING id, last_synced`

	return s.db.GetContext(ctx, item, query,
		item.ManagerItemID, item.Code, item.Name, item.Unit,
		item.UnitCost, item.SalesPrice, item.QuantityAvailable,
		item.ThresholdQuantity, item.Category, item.DivisionName)
}

// GetInventoryItems retrieves all inventory items, optionally filtered by
// category.
func (s *Store) GetInventoryItems(ctx context.Context, category string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if category != "" {
		err := s.db.SelectContext(ctx, &items,
			"SELECT * FROM inventory_items WHERE category = $1 ORDER BY code", category)
		return items, err
	}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM inventory_items ORDER BY code")
	return items, err
}

// CountInventoryByCategory returns row counts per category.
func (s *Store) CountInventoryByCategory(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Category string `db:"category"`
		Count    int    `db:"count"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT category, COUNT(*) AS count FROM inventory_items GROUP BY category")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Count
	}
	return counts, nil
}

// DeleteDuplicateInventoryItems removes rows sharing a manager_item_id,
// keeping the lowest internal id of each group as the canonical record.
// Returns the number of rows deleted.
func (s *Store) DeleteDuplicateInventoryItems(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM inventory_items
		WHERE id NOT IN (
			SELECT MIN(id) FROM inventory_items GROUP BY manager_item_id
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicate inventory items: %w", err)
	}
	return res.RowsAffected()
}

// CreatePriceHistory appends a price change entry. Entries are append-only.
func (s *Store) CreatePriceHistory(ctx context.Context, entry *models.PriceHistoryEntry) error {
	query := `
		INSERT INTO price_history
			(inventory_item_id, old_price, new_price, change_amount, change_percentage, sync_source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, changed_at`

	return s.db.GetContext(ctx, entry, query,
		entry.InventoryItemID, entry.OldPrice, entry.NewPrice,
		entry.ChangeAmount, entry.ChangePercentage, entry.SyncSource)
}

// GetPriceHistorySince retrieves price changes for an item newer than the
// cutoff, most recent first.
func (s *Store) GetPriceHistorySince(ctx context.Context, inventoryItemID int64, since time.Time) ([]models.PriceHistoryEntry, error) {
	var entries []models.PriceHistoryEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT * FROM price_history
		WHERE inventory_item_id = $1 AND changed_at >= $2
		ORDER BY changed_at DESC`, inventoryItemID, since)
	return entries, err
}

// UpsertCustomer inserts or replaces a customer keyed by its external
// identifier.
func (s *Store) UpsertCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (manager_customer_id, name, code, status, balance, last_synced)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (manager_customer_id) DO UPDATE SET
			name = EXCLUDED.name,
			code = EXCLUDED.code,
			status = EXCLUDED.status,
			balance = EXCLUDED.balance,
			last_synced = NOW()
		RETURNING id, last_synced`

	return s.db.GetContext(ctx, customer, query,
		customer.ManagerCustomerID, customer.Name, customer.Code,
		customer.Status, customer.Balance)
}

// GetCustomers retrieves all synced customers.
func (s *Store) GetCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.SelectContext(ctx, &customers, "SELECT * FROM customers ORDER BY name")
	return customers, err
}
