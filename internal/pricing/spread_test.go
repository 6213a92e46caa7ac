package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultConfig(model Model) Config {
	return Config{
		Model:            model,
		DefaultSpreadBPS: 50,
		MinSpreadBPS:     10,
		MaxSpreadBPS:     200,
		MaxPriceShiftPct: 0.02,
	}
}

func TestCalculate_FixedCanonicalPair(t *testing.T) {
	s := NewSpreadModel(defaultConfig(ModelFixed))

	calc := s.Calculate(0.50, 0, 0)

	// 50 bps sobre mid 0.50: half = 0.50*0.050/2 = 0.0125
	assert.InDelta(t, 0.4875, calc.Bid, 1e-9)
	assert.InDelta(t, 0.5125, calc.Ask, 1e-9)
	assert.InDelta(t, 50, calc.SpreadBPS, 1e-9)
	assert.True(t, calc.IsAcceptable)
}

func TestCalculate_RejectsInvalidMid(t *testing.T) {
	s := NewSpreadModel(defaultConfig(ModelFixed))

	for _, mid := range []float64{0, -0.1, 1, 1.5} {
		calc := s.Calculate(mid, 0, 0)
		assert.False(t, calc.IsAcceptable, "mid %v", mid)
		assert.Contains(t, calc.Reason, "outside (0,1)")
	}
}

func TestCalculate_PositiveSkewShiftsBothPricesDown(t *testing.T) {
	s := NewSpreadModel(defaultConfig(ModelFixed))

	neutral := s.Calculate(0.50, 0, 0)
	long := s.Calculate(0.50, 0, 1) // inventario largo: favorecer venta

	assert.Less(t, long.Bid, neutral.Bid)
	assert.Less(t, long.Ask, neutral.Ask)
	// shift máximo: 0.02 * 0.50 = 0.01
	assert.InDelta(t, neutral.Ask-0.01, long.Ask, 1e-9)
}

func TestCalculate_NegativeSkewShiftsBothPricesUp(t *testing.T) {
	s := NewSpreadModel(defaultConfig(ModelFixed))

	neutral := s.Calculate(0.50, 0, 0)
	short := s.Calculate(0.50, 0, -1)

	assert.Greater(t, short.Bid, neutral.Bid)
	assert.Greater(t, short.Ask, neutral.Ask)
}

func TestCalculate_VolatilityWidensSpread(t *testing.T) {
	s := NewSpreadModel(defaultConfig(ModelVolatility))

	calm := s.Calculate(0.50, 0, 0)
	rough := s.Calculate(0.50, 0.9, 0)

	assert.Greater(t, rough.SpreadBPS, calm.SpreadBPS)
	// base * (1 + 2*0.9) = 140 bps, dentro de [10, 200]
	assert.InDelta(t, 140, rough.SpreadBPS, 1e-6)
}

func TestCalculate_InventoryModelWidensOnSkew(t *testing.T) {
	s := NewSpreadModel(defaultConfig(ModelInventory))

	// skew solo ensancha; el término de shift no cambia el spread realizado
	noSkew := s.Calculate(0.50, 0.5, 0)
	skewed := s.Calculate(0.50, 0.5, 0.8)

	assert.Greater(t, skewed.SpreadBPS, noSkew.SpreadBPS)
}

func TestCalculate_ClampedSpreadRejectedWithReason(t *testing.T) {
	cfg := defaultConfig(ModelFixed)
	cfg.DefaultSpreadBPS = 500 // por encima del máximo permitido
	s := NewSpreadModel(cfg)

	calc := s.Calculate(0.50, 0, 0)

	assert.False(t, calc.IsAcceptable)
	assert.Contains(t, calc.Reason, "above maximum")
}

func TestCalculate_ExtremeMidKeepsValidPrices(t *testing.T) {
	s := NewSpreadModel(defaultConfig(ModelFixed))

	calc := s.Calculate(0.999, 0, -1)

	assert.Greater(t, calc.Bid, 0.0)
	assert.Less(t, calc.Ask, 1.0)
	assert.Less(t, calc.Bid, 0.999)
	assert.Greater(t, calc.Ask, 0.999)
}

func TestBaseSpreadBPS_UnknownModelFallsBack(t *testing.T) {
	cfg := defaultConfig(Model("wat"))
	s := NewSpreadModel(cfg)

	calc := s.Calculate(0.50, 0.9, 0)

	assert.InDelta(t, 50, calc.SpreadBPS, 1e-9)
}
