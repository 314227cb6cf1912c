package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateOrderTotal(t *testing.T) {
	items := []OrderItemRequest{
		{Name: "Chocolate Cake", Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(1200)},
		{Name: "Croissant", Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(80)},
	}

	total := calculateOrderTotal(items)
	assert.True(t, decimal.NewFromInt(2*1200+10*80).Equal(total))
}

func TestCalculateOrderTotalEmpty(t *testing.T) {
	assert.True(t, calculateOrderTotal(nil).IsZero())
}
