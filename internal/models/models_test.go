package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCategoryForCode(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"RM-0001", CategoryRawMaterial},
		{"rm-0001", CategoryRawMaterial},
		{"FG-CAKE-01", CategoryFinishedGood},
		{"fg-bread", CategoryFinishedGood},
		{"ACS-BOX", CategoryAccessory},
		{"acs-ribbon", CategoryAccessory},
		{"XX-123", CategoryOther},
		{"", CategoryOther},
		{"R-0001", CategoryOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CategoryForCode(tt.code), "code %q", tt.code)
	}
}

func TestIsLowStock(t *testing.T) {
	item := &InventoryItem{
		QuantityAvailable: decimal.NewFromInt(5),
		ThresholdQuantity: decimal.NewFromInt(10),
	}
	assert.True(t, item.IsLowStock())

	item.QuantityAvailable = decimal.NewFromInt(11)
	assert.False(t, item.IsLowStock())
}

func TestIsFinishedGood(t *testing.T) {
	assert.True(t, (&OrderItem{Type: "finished_good"}).IsFinishedGood())
	assert.True(t, (&OrderItem{Code: "FG-CAKE-01"}).IsFinishedGood())
	assert.True(t, (&OrderItem{Code: "fg-cake-01"}).IsFinishedGood())
	assert.False(t, (&OrderItem{Code: "RM-0001", Type: "raw_material"}).IsFinishedGood())
}

func TestProductionOrderVariance(t *testing.T) {
	order := &ProductionOrder{
		PlannedQuantity: decimal.NewFromInt(100),
	}
	assert.False(t, order.HasVariance(), "no actual quantity means no variance")

	order.ActualQuantity = decimal.NewNullDecimal(decimal.NewFromInt(100))
	assert.False(t, order.HasVariance())

	order.ActualQuantity = decimal.NewNullDecimal(decimal.NewFromInt(90))
	assert.True(t, order.HasVariance())
	assert.True(t, decimal.NewFromInt(-10).Equal(order.VariancePercentage()))
}

func TestFinalProductionQuantity(t *testing.T) {
	req := &ProductionRequirement{
		RecommendedProduction: decimal.NewFromInt(50),
	}
	assert.True(t, decimal.NewFromInt(50).Equal(req.FinalProductionQuantity()))

	req.ManualOverride = decimal.NewNullDecimal(decimal.NewFromInt(80))
	assert.True(t, decimal.NewFromInt(80).Equal(req.FinalProductionQuantity()))
}
