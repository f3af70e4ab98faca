package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFromFloat(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  Money
	}{
		{"whole amount", 1000, 100000},
		{"two decimals", 1210.50, 121050},
		{"rounds half up", 0.005, 1},
		{"rounds down below half", 0.004, 0},
		{"float drift input", 0.1 + 0.2, 30},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromFloat(tt.input))
		})
	}
}

func TestParse(t *testing.T) {
	m, err := Parse("1210.00")
	assert.NoError(t, err)
	assert.Equal(t, Money(121000), m)

	_, err = Parse("not-a-number")
	assert.Error(t, err)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name   string
		amount Money
		rate   decimal.Decimal
		want   Money
	}{
		{"21 percent of 1000", FromFloat(1000), decimal.NewFromInt(21), FromFloat(210)},
		{"zero rate", FromFloat(500), decimal.Zero, 0},
		{"rounds once", FromFloat(0.10), decimal.NewFromInt(21), Money(2)}, // 2.1 cents -> 2
		{"half cent rounds up", FromFloat(0.50), decimal.NewFromInt(21), Money(11)}, // 10.5 cents -> 11
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.amount.Percent(tt.rate))
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := FromFloat(1000)
	b := FromFloat(210)

	assert.Equal(t, FromFloat(1210), a.Add(b))
	assert.Equal(t, FromFloat(790), a.Sub(b))
	assert.True(t, b.Sub(a).IsNegative())
	assert.True(t, a.GreaterThan(b))
}

func TestString(t *testing.T) {
	assert.Equal(t, "1210.00", FromFloat(1210).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "710.00", FromFloat(1210).Sub(FromFloat(500)).String())
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(FromFloat(1210.5))
	assert.NoError(t, err)
	assert.Equal(t, "1210.50", string(data))

	var m Money
	assert.NoError(t, json.Unmarshal([]byte("500.00"), &m))
	assert.Equal(t, FromFloat(500), m)

	assert.NoError(t, json.Unmarshal([]byte(`"99.99"`), &m))
	assert.Equal(t, Money(9999), m)
}

func TestScan(t *testing.T) {
	var m Money
	assert.NoError(t, m.Scan([]byte("1210.00")))
	assert.Equal(t, FromFloat(1210), m)

	assert.NoError(t, m.Scan("0.01"))
	assert.Equal(t, Money(1), m)

	assert.NoError(t, m.Scan(nil))
	assert.Equal(t, Money(0), m)

	assert.Error(t, m.Scan(true))
}

func TestValue(t *testing.T) {
	v, err := FromFloat(1210).Value()
	assert.NoError(t, err)
	assert.Equal(t, "1210.00", v)
}
