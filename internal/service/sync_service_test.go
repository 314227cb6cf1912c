package service

import (
	"errors"
	"testing"

	"bakery-erp/internal/managerio"
	"bakery-erp/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInventoryRecord(t *testing.T) {
	rec := managerio.Record{
		"key":         "uuid-1",
		"ItemCode":    "RM-0042",
		"ItemName":    "Flour 50kg",
		"UnitName":    "bag",
		"qtyOwned":    float64(12),
		"salePrice":   map[string]interface{}{"value": float64(2500)},
		"AverageCost": float64(2100.50),
		"Division":    "Main Bakery",
	}

	item, err := parseInventoryRecord(rec)
	require.NoError(t, err)

	assert.Equal(t, "uuid-1", item.ManagerItemID)
	assert.Equal(t, "RM-0042", item.Code)
	assert.Equal(t, "Flour 50kg", item.Name)
	assert.Equal(t, "bag", item.Unit)
	assert.Equal(t, models.CategoryRawMaterial, item.Category)
	assert.Equal(t, "Main Bakery", item.DivisionName)
	assert.True(t, decimal.NewFromInt(12).Equal(item.QuantityAvailable))
	assert.True(t, decimal.NewFromInt(2500).Equal(item.SalesPrice))
	assert.True(t, decimal.NewFromFloat(2100.50).Equal(item.UnitCost))
}

func TestParseInventoryRecordMissingIdentifier(t *testing.T) {
	rec := managerio.Record{
		"ItemCode": "RM-0042",
		"ItemName": "Flour",
	}

	_, err := parseInventoryRecord(rec)
	var valErr *managerio.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "key", valErr.Field)
}

func TestParseInventoryRecordSentinelCode(t *testing.T) {
	rec := managerio.Record{
		"key":      "uuid-1",
		"ItemCode": "null",
		"ItemName": "Flour",
	}

	_, err := parseInventoryRecord(rec)
	var valErr *managerio.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "ItemCode", valErr.Field)
}

func TestParseInventoryRecordMissingCode(t *testing.T) {
	rec := managerio.Record{
		"key":  "uuid-2",
		"name": "Chocolate Cake",
	}

	_, err := parseInventoryRecord(rec)
	var valErr *managerio.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "ItemCode", valErr.Field)
}

func TestParseInventoryRecordMissingName(t *testing.T) {
	rec := managerio.Record{
		"key":      "uuid-3",
		"ItemCode": "FG-0007",
		"ItemName": "  ",
	}

	_, err := parseInventoryRecord(rec)
	var valErr *managerio.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "ItemName", valErr.Field)
}

func TestParseCustomerRecord(t *testing.T) {
	rec := managerio.Record{
		"key":  "cust-1",
		"Name": "Cafe Dhaka",
		"Code": "C-001",
	}

	customer, err := parseCustomerRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", customer.ManagerCustomerID)
	assert.Equal(t, "Cafe Dhaka", customer.Name)
	assert.Equal(t, "active", customer.Status)
}

func TestParseCustomerRecordMissingName(t *testing.T) {
	rec := managerio.Record{"key": "cust-2"}

	_, err := parseCustomerRecord(rec)
	var valErr *managerio.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "authentication", errorType(&managerio.AuthenticationError{URL: "x"}))
	assert.Equal(t, "shape", errorType(&managerio.ShapeError{Resource: "inventory-items"}))
	assert.Equal(t, "transport", errorType(&managerio.TransportError{Op: "GET", StatusCode: 502}))
	assert.Equal(t, "unknown", errorType(errors.New("boom")))
}
