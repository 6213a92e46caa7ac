package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/tailrisk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTailRisk(t *testing.T) *TailRisk {
	t.Helper()
	selector := tailrisk.NewSelector(tailrisk.SelectorConfig{
		MinTailProbability: 0.01,
		MaxTailProbability: 0.15,
		MinPayoutRatio:     5,
	})
	sizer := tailrisk.NewSizer(tailrisk.SizerConfig{
		CapitalUSDC:            10000,
		KellyMultiplier:        0.25,
		MaxPositionLossUSDC:    150,
		MaxClusterExposureUSDC: 300,
		MinStakeUSDC:           10,
	})
	hedger := tailrisk.NewHedgeEvaluator(tailrisk.HedgeConfig{
		MinHedgeRatio:   0.5,
		MaxHedgeCostPct: 0.1,
	})
	s := NewTailRisk(TailRiskConfig{Enabled: true, EdgeMultiplier: 1.5}, selector, sizer, hedger)
	s.SetNow(func() time.Time { return testNow })
	return s
}

func tailMarket() domain.Market {
	return domain.Market{
		MarketID: "tail-1",
		Question: "Will a nuclear weapon be used in the war this year?",
		YesPrice: 0.05,
		NoPrice:  0.95,
	}
}

func TestTailRisk_EmitsTailBuySignal(t *testing.T) {
	s := newTailRisk(t)

	sig, ok := s.Evaluate(context.Background(), tailMarket(),
		domain.OrderBook{}, domain.OrderBook{})

	require.True(t, ok)
	assert.Equal(t, domain.SignalTypeTailBuy, sig.Type)
	assert.Equal(t, "tail_risk", sig.Strategy)
	assert.Equal(t, domain.TailRiskRiskTags, sig.RiskTags)
	assert.Equal(t, "geopolitical_other", sig.Cluster)
	assert.Greater(t, sig.KellyFraction, 0.0)

	// stake = 10000 * kelly(0.075, 19) * 0.25 ≈ $65.79
	assert.InDelta(t, 65.79, sig.TradeSize, 0.01)
	assert.Equal(t, sig.TradeSize, sig.WorstCaseLoss)
	// profit por unidad: 19*0.075 - 1 = 0.425
	assert.InDelta(t, 0.425*sig.TradeSize, sig.ExpectedProfit, 0.01)
	assert.Nil(t, sig.Hedge)
}

func TestTailRisk_HedgesWhenUniverseHasCheapOffset(t *testing.T) {
	s := newTailRisk(t)
	s.SetHedgeUniverse([]domain.Market{
		tailMarket(), // el propio mercado se ignora
		{MarketID: "hedge-1", Question: "offset", YesPrice: 0.01, NoPrice: 0.99},
	})

	sig, ok := s.Evaluate(context.Background(), tailMarket(),
		domain.OrderBook{}, domain.OrderBook{})

	require.True(t, ok)
	require.NotNil(t, sig.Hedge)
	assert.Equal(t, "hedge-1", sig.Hedge.HedgeMarketID)
	assert.Equal(t, "tail-1", sig.Hedge.OriginalMarketID)
	assert.Contains(t, sig.Reason, "hedged via hedge-1")
}

func TestTailRisk_NoEdgeNoSignal(t *testing.T) {
	s := newTailRisk(t)
	s.cfg.EdgeMultiplier = 1.0 // prob implícita pura: EV negativo siempre

	_, ok := s.Evaluate(context.Background(), tailMarket(),
		domain.OrderBook{}, domain.OrderBook{})

	assert.False(t, ok)
}

func TestTailRisk_SelectorRejectsMidRangeMarket(t *testing.T) {
	s := newTailRisk(t)
	m := tailMarket()
	m.YesPrice = 0.40
	m.NoPrice = 0.60

	_, ok := s.Evaluate(context.Background(), m, domain.OrderBook{}, domain.OrderBook{})

	assert.False(t, ok)
}

func TestTailRisk_ClusterCapStopsRepeatSignals(t *testing.T) {
	s := newTailRisk(t)

	// cada señal aceptada reserva ~$65.79 contra el cluster de $300
	fired := 0
	for i := 0; i < 10; i++ {
		if _, ok := s.Evaluate(context.Background(), tailMarket(),
			domain.OrderBook{}, domain.OrderBook{}); ok {
			fired++
		}
	}

	// 4 caben completos, el quinto se trunca al remanente y el resto se rechaza
	assert.Equal(t, 5, fired)
}

func TestTailRisk_Disabled(t *testing.T) {
	s := newTailRisk(t)
	s.cfg.Enabled = false

	_, ok := s.Evaluate(context.Background(), tailMarket(),
		domain.OrderBook{}, domain.OrderBook{})

	assert.False(t, ok)
}
