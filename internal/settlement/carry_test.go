package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_LinearInTimeAndCapital(t *testing.T) {
	c := NewCarryModel(CarryConfig{DailyRate: 0.005, MaxCarryPct: 0.02})

	calc := c.Calculate(100, 48)

	assert.Equal(t, 2.0, calc.DaysToResolution)
	// 100 * 0.005 * 2 = 1.0
	assert.InDelta(t, 1.0, calc.TotalCost, 1e-9)
	assert.InDelta(t, 0.01, calc.CostPctOfCapital, 1e-9)
	assert.True(t, calc.IsAcceptable)
}

func TestCalculate_OverCarryCeiling(t *testing.T) {
	c := NewCarryModel(CarryConfig{DailyRate: 0.005, MaxCarryPct: 0.02})

	calc := c.Calculate(100, 120) // 5 días → 2.5% > 2%

	assert.InDelta(t, 0.025, calc.CostPctOfCapital, 1e-9)
	assert.False(t, calc.IsAcceptable)
}

func TestCalculate_ZeroCapital(t *testing.T) {
	c := NewCarryModel(CarryConfig{DailyRate: 0.005, MaxCarryPct: 0.02})

	calc := c.Calculate(0, 48)

	assert.Equal(t, 0.0, calc.TotalCost)
	assert.Equal(t, 0.0, calc.CostPctOfCapital)
	assert.True(t, calc.IsAcceptable)
}

func TestMinRequiredProfit_DoublesCarry(t *testing.T) {
	c := NewCarryModel(CarryConfig{DailyRate: 0.005, MaxCarryPct: 0.02})

	assert.Equal(t, 3.0, c.MinRequiredProfit(1.5))
}

func TestMaxHoldDays(t *testing.T) {
	c := NewCarryModel(CarryConfig{DailyRate: 0.005, MaxCarryPct: 0.02})

	// beneficio 2.5 con capital 100 a 0.5%/día → 5 días
	assert.InDelta(t, 5, c.MaxHoldDays(2.5, 100), 1e-9)
	assert.Equal(t, 0.0, c.MaxHoldDays(2.5, 0))

	flat := NewCarryModel(CarryConfig{DailyRate: 0, MaxCarryPct: 0.02})
	assert.Equal(t, 0.0, flat.MaxHoldDays(2.5, 100))
}
