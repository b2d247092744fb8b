package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSellingPrice(t *testing.T) {
	tests := []struct {
		buying   float64
		expected string
	}{
		{100, "115.00"},
		{0, "0.00"},
		{9.99, "11.49"},
		{12.5, "14.38"},
		{1234.56, "1419.74"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, SellingPrice(tt.buying))
		})
	}
}

func TestTotal_AvoidsFloatDrift(t *testing.T) {
	lines := []float64{0.1, 0.2}
	total := Total(LineTotal(lines[0], 1), LineTotal(lines[1], 1))
	assert.Equal(t, 0.3, total)

	assert.Equal(t, 59.97, Total(LineTotal(19.99, 3)))
	assert.Equal(t, 0.0, Total())
}

func TestParsePrice(t *testing.T) {
	v, err := ParsePrice(SellingPrice(100))
	require.NoError(t, err)
	assert.Equal(t, 115.0, v)

	_, err = ParsePrice("abc")
	assert.Error(t, err)
}

func TestRoundAndFormat(t *testing.T) {
	assert.Equal(t, 10.13, Round(10.125))
	assert.Equal(t, "7.50", FormatPrice(7.5))
}
