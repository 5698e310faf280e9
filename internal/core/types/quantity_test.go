package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityFromString(t *testing.T) {
	q, err := QuantityFromString("12.5000")
	require.NoError(t, err)
	assert.True(t, q.Equal(NewQuantity(12.5)))

	_, err = QuantityFromString("not a number")
	assert.Error(t, err)
}

func TestQuantityExactSum(t *testing.T) {
	// 0.1 added ten times is exactly 1 with decimals, unlike float64.
	sum := ZeroQuantity()
	tenth := MustQuantity("0.1")
	for i := 0; i < 10; i++ {
		sum = sum.Add(tenth)
	}
	assert.True(t, sum.Equal(MustQuantity("1")))
}

func TestMustQuantityPanics(t *testing.T) {
	assert.Panics(t, func() { MustQuantity("bogus") })
}
