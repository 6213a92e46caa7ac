package tailrisk

import (
	"testing"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHedger() *HedgeEvaluator {
	return NewHedgeEvaluator(HedgeConfig{
		MinHedgeRatio:   0.5,
		MaxHedgeCostPct: 0.1,
	})
}

func TestEvaluate_PicksCheapestEffectiveHedge(t *testing.T) {
	h := testHedger()
	candidates := []domain.Market{
		{MarketID: "h1", YesPrice: 0.08, NoPrice: 0.92},
		{MarketID: "h2", YesPrice: 0.03, NoPrice: 0.97},
	}

	// hedge size = 100*0.5 = 50; h2 cuesta 50*0.03 = 1.50, h1 50*0.08 = 4
	hedge, ok := h.Evaluate("orig", 100, 100, candidates)

	require.True(t, ok)
	assert.Equal(t, "h2", hedge.HedgeMarketID)
	assert.Equal(t, 50.0, hedge.HedgeSizeUSDC)
	assert.InDelta(t, 1.5, hedge.CostUSDC, 1e-9)
	// reducción: 100*0.5 - 1.5 = 48.5
	assert.InDelta(t, 48.5, hedge.RiskReduction, 1e-9)
}

func TestEvaluate_SkipsOriginalMarketAndInvalidPrices(t *testing.T) {
	h := testHedger()
	candidates := []domain.Market{
		{MarketID: "orig", YesPrice: 0.01, NoPrice: 0.99},
		{MarketID: "bad", YesPrice: 0, NoPrice: 0.95},
	}

	_, ok := h.Evaluate("orig", 100, 100, candidates)

	assert.False(t, ok)
}

func TestEvaluate_RejectsWhenCostExceedsCeiling(t *testing.T) {
	h := testHedger()
	// coste 50*0.25 = 12.5 → 12.5/100 = 12.5% > 10%
	candidates := []domain.Market{
		{MarketID: "pricey", YesPrice: 0.25, NoPrice: 0.75},
	}

	_, ok := h.Evaluate("orig", 100, 100, candidates)

	assert.False(t, ok)
}

func TestEvaluate_DiscardsNonPositiveReduction(t *testing.T) {
	h := testHedger()
	// coste 50*0.99... el lado barato es min(yes,no)=0.45: coste 22.5 < 50 aún
	// reduce, así que forzamos worst case bajo para que la reducción sea <= 0
	candidates := []domain.Market{
		{MarketID: "h1", YesPrice: 0.45, NoPrice: 0.55},
	}

	_, ok := h.Evaluate("orig", 100, 40, candidates)

	// reducción = 40*0.5 - 22.5 = -2.5
	assert.False(t, ok)
}

func TestEvaluate_ZeroSizeNeverHedges(t *testing.T) {
	h := testHedger()

	_, ok := h.Evaluate("orig", 0, 100, []domain.Market{
		{MarketID: "h1", YesPrice: 0.05, NoPrice: 0.95},
	})

	assert.False(t, ok)
}

func TestMetrics_AggregatesHedgeBook(t *testing.T) {
	h := testHedger()
	_, ok := h.Evaluate("orig", 100, 100, []domain.Market{
		{MarketID: "h1", YesPrice: 0.05, NoPrice: 0.95},
	})
	require.True(t, ok)

	m := h.Metrics()

	assert.Equal(t, 1.0, m["hedge_count"])
	assert.InDelta(t, 2.5, m["total_cost_usdc"], 1e-9)
	assert.InDelta(t, 47.5, m["total_risk_reduced"], 1e-9)
}
