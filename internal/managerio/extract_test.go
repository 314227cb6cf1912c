package managerio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExtractStringPriority(t *testing.T) {
	rec := Record{
		"ItemCode": "RM-0042",
		"Code":     "legacy-code",
	}

	// ItemCode wins because it comes first in the candidate list.
	value := ExtractString(rec, "ItemCode", "itemCode", "Code", "code")
	assert.Equal(t, "RM-0042", value)
}

func TestExtractStringSkipsSentinels(t *testing.T) {
	rec := Record{
		"ItemCode": "undefined",
		"Code":     "  FG-001  ",
	}

	value := ExtractString(rec, "ItemCode", "Code")
	assert.Equal(t, "FG-001", value)
}

func TestExtractStringSentinelsCaseInsensitive(t *testing.T) {
	for _, sentinel := range []string{"", "null", "NULL", "None", "UNDEFINED"} {
		rec := Record{"Name": sentinel}
		assert.Empty(t, ExtractString(rec, "Name"), "sentinel %q should be rejected", sentinel)
	}
}

func TestExtractStringMissing(t *testing.T) {
	rec := Record{"other": "value"}
	assert.Empty(t, ExtractString(rec, "Name", "name"))
}

func TestExtractStringNilValue(t *testing.T) {
	rec := Record{"Name": nil, "name": "flour"}
	assert.Equal(t, "flour", ExtractString(rec, "Name", "name"))
}

func TestExtractDecimal(t *testing.T) {
	rec := Record{
		"qtyOwned": float64(42.5),
	}

	value := ExtractDecimal(rec, []string{"QtyOwned", "qtyOwned"}, decimal.Zero)
	assert.True(t, decimal.NewFromFloat(42.5).Equal(value))
}

func TestExtractDecimalStringValue(t *testing.T) {
	rec := Record{"Cost": "12.75"}
	value := ExtractDecimal(rec, []string{"Cost"}, decimal.Zero)
	assert.True(t, decimal.NewFromFloat(12.75).Equal(value))
}

func TestExtractDecimalDefaultOnGarbage(t *testing.T) {
	rec := Record{"Cost": "not-a-number"}
	def := decimal.NewFromInt(7)
	value := ExtractDecimal(rec, []string{"Cost"}, def)
	assert.True(t, def.Equal(value))
}

func TestExtractAmountNestedShape(t *testing.T) {
	rec := Record{
		"salePrice": map[string]interface{}{"value": float64(99.99)},
		"SalePrice": float64(11.11),
	}

	value := ExtractAmount(rec, "salePrice", []string{"SalePrice"})
	assert.True(t, decimal.NewFromFloat(99.99).Equal(value), "nested value shape must win over flat candidates")
}

func TestExtractAmountFlatFallback(t *testing.T) {
	rec := Record{"AverageCost": float64(3.5)}
	value := ExtractAmount(rec, "averageCost", []string{"AverageCost"})
	assert.True(t, decimal.NewFromFloat(3.5).Equal(value))
}

func TestExtractAmountMissing(t *testing.T) {
	rec := Record{}
	value := ExtractAmount(rec, "salePrice", []string{"SalePrice"})
	assert.True(t, value.IsZero())
}
