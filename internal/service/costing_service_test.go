package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBatchQuantityFloors(t *testing.T) {
	batches := BatchQuantity(decimal.NewFromInt(250), decimal.NewFromInt(100))
	assert.True(t, decimal.NewFromInt(2).Equal(batches))
}

func TestBatchQuantityMinimumOne(t *testing.T) {
	batches := BatchQuantity(decimal.NewFromInt(50), decimal.NewFromInt(100))
	assert.True(t, decimal.NewFromInt(1).Equal(batches))

	batches = BatchQuantity(decimal.Zero, decimal.NewFromInt(100))
	assert.True(t, decimal.NewFromInt(1).Equal(batches))
}

func TestBatchQuantityExactMultiple(t *testing.T) {
	batches := BatchQuantity(decimal.NewFromInt(300), decimal.NewFromInt(100))
	assert.True(t, decimal.NewFromInt(3).Equal(batches))
}

func TestBatchQuantityZeroYield(t *testing.T) {
	batches := BatchQuantity(decimal.NewFromInt(250), decimal.Zero)
	assert.True(t, decimal.NewFromInt(1).Equal(batches))
}

func TestFinancialsUsePlannedQuantity(t *testing.T) {
	// 250 planned at a yield of 100 is 2 whole batches regardless of what
	// was actually produced.
	fin := financialsFrom(
		decimal.NewFromInt(250),
		decimal.NewFromInt(100),
		decimal.NewFromInt(500),
		decimal.NewFromInt(12),
	)

	assert.True(t, decimal.NewFromInt(1000).Equal(fin.Cost))
	assert.True(t, decimal.NewFromInt(3000).Equal(fin.SalesValue))
	assert.True(t, decimal.NewFromInt(2000).Equal(fin.Margin))
}

func TestFinancialsWithoutRecipe(t *testing.T) {
	fin := financialsFrom(
		decimal.NewFromInt(40),
		decimal.Zero,
		decimal.Zero,
		decimal.NewFromInt(150),
	)

	assert.True(t, fin.Cost.IsZero())
	assert.True(t, decimal.NewFromInt(6000).Equal(fin.SalesValue))
	assert.True(t, decimal.NewFromInt(6000).Equal(fin.Margin))
}
