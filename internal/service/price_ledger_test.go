package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeChangeFivePercent(t *testing.T) {
	change, ok := ComputeChange(d("100"), d("105"))
	require.True(t, ok)

	assert.True(t, d("5").Equal(change.Amount))
	assert.True(t, d("5").Equal(change.Percentage))
	assert.False(t, change.Significant, "exactly 5% is not above the threshold")
}

func TestComputeChangeSignificant(t *testing.T) {
	change, ok := ComputeChange(d("100"), d("110"))
	require.True(t, ok)
	assert.True(t, change.Significant)

	change, ok = ComputeChange(d("100"), d("89"))
	require.True(t, ok)
	assert.True(t, d("-11").Equal(change.Amount))
	assert.True(t, change.Significant)
}

func TestComputeChangeZeroOldPrice(t *testing.T) {
	change, ok := ComputeChange(decimal.Zero, d("50"))
	require.True(t, ok)

	assert.True(t, d("50").Equal(change.Amount))
	assert.True(t, d("100").Equal(change.Percentage))
	assert.True(t, change.Significant)
}

func TestComputeChangeSuppressesNoise(t *testing.T) {
	_, ok := ComputeChange(d("10.001"), d("10.005"))
	assert.False(t, ok)

	_, ok = ComputeChange(d("10"), d("10"))
	assert.False(t, ok)

	// Exactly the threshold counts as a change.
	_, ok = ComputeChange(d("10.00"), d("10.01"))
	assert.True(t, ok)
}

func TestComputeChangeNegativeDelta(t *testing.T) {
	change, ok := ComputeChange(d("80"), d("76"))
	require.True(t, ok)

	assert.True(t, d("-4").Equal(change.Amount))
	assert.True(t, d("-5").Equal(change.Percentage))
	assert.False(t, change.Significant)
}
