package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0 €"},
		{"25000", "25 000 €"},
		{"1234.56", "1 234,56 €"},
		{"1234.5", "1 234,50 €"},
		{"999.999", "1 000 €"},
		{"1000000.10", "1 000 000,10 €"},
		{"-1500.25", "-1 500,25 €"},
		{"5.99", "5,99 €"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(decimal.RequireFromString(tc.in), "€"), tc.in)
	}
	assert.Equal(t, "12", Format(decimal.NewFromInt(12), ""))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2500), MinorUnits(decimal.RequireFromString("25")))
	assert.Equal(t, int64(599), MinorUnits(decimal.RequireFromString("5.99")))
	assert.Equal(t, int64(1235), MinorUnits(decimal.RequireFromString("12.345")))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "66.67", Percent(2, 3).StringFixed(2))
	assert.Equal(t, "33.33", Percent(1, 3).StringFixed(2))
	assert.True(t, Percent(0, 0).IsZero())
	assert.Equal(t, "100", Percent(4, 4).String())
}
