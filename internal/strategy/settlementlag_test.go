package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettlementLag(t *testing.T, dailyRate float64) *SettlementLag {
	t.Helper()
	detector := settlement.NewDetector(settlement.DetectorConfig{
		MinWindowHours:     1,
		MaxWindowHours:     72,
		MinVolume24h:       1000,
		MaxSpreadBPS:       500,
		MinLiquidityScore:  0.4,
		MaxVolatilityScore: 0.8,
	})
	detector.SetNow(func() time.Time { return testNow })
	dispute := settlement.NewDisputeFilter(settlement.DisputeConfig{
		MaxDisputeRisk:            0.3,
		MaxVolatilityContribution: 0.5,
	})
	carry := settlement.NewCarryModel(settlement.CarryConfig{
		DailyRate:   dailyRate,
		MaxCarryPct: 0.02,
	})
	s := NewSettlementLag(SettlementLagConfig{
		Enabled:        true,
		TradeSizeUSDC:  100,
		MaxWindowHours: 72,
	}, detector, dispute, carry)
	s.SetNow(func() time.Time { return testNow })
	return s
}

func discountedMarket() domain.Market {
	return domain.Market{
		MarketID:  "m1",
		Question:  "Will it rain in Madrid tomorrow?",
		YesPrice:  0.40,
		NoPrice:   0.55,
		EndDate:   testNow.Add(48 * time.Hour),
		Volume24h: 5000,
	}
}

func TestSettlementLag_EmitsBuyBothSignal(t *testing.T) {
	s := newSettlementLag(t, 0.005) // 48h → carry 1% del capital

	sig, ok := s.Evaluate(context.Background(), discountedMarket(),
		makeBook(0.49, 0.51, 20000), domain.OrderBook{})

	require.True(t, ok)
	assert.Equal(t, domain.SignalTypeBuyBoth, sig.Type)
	assert.Equal(t, "settlement_lag", sig.Strategy)
	// gross 0.05, carry 0.01 → net 0.04 sobre $100
	assert.InDelta(t, 4.0, sig.ExpectedProfit, 1e-9)
	assert.InDelta(t, 1.0, sig.CarryCost, 1e-9)
	assert.Equal(t, domain.SettlementLagRiskTags, sig.RiskTags)
	assert.Greater(t, sig.Confidence, 0.5)
}

func TestSettlementLag_CarryEatsTheEdge(t *testing.T) {
	// 0.03/día por 2 días = 6% > techo del 2%: el carry no es aceptable
	s := newSettlementLag(t, 0.03)

	_, ok := s.Evaluate(context.Background(), discountedMarket(),
		makeBook(0.49, 0.51, 20000), domain.OrderBook{})

	assert.False(t, ok)
}

func TestSettlementLag_NoGrossDiscount(t *testing.T) {
	s := newSettlementLag(t, 0.005)
	m := discountedMarket()
	m.YesPrice = 0.50
	m.NoPrice = 0.55 // suma > 1: no hay descuento que capturar

	_, ok := s.Evaluate(context.Background(), m,
		makeBook(0.49, 0.51, 20000), domain.OrderBook{})

	assert.False(t, ok)
}

func TestSettlementLag_UnsuitableMarketState(t *testing.T) {
	s := newSettlementLag(t, 0.005)
	m := discountedMarket()
	m.Volume24h = 10

	_, ok := s.Evaluate(context.Background(), m,
		makeBook(0.49, 0.51, 20000), domain.OrderBook{})

	assert.False(t, ok)
}

func TestSettlementLag_DisputeRiskBlocks(t *testing.T) {
	s := newSettlementLag(t, 0.005)
	m := discountedMarket()
	m.Question = "Will the war end after the invasion and a nuclear ultimatum and a coup and a default?"

	_, ok := s.Evaluate(context.Background(), m,
		makeBook(0.49, 0.51, 20000), domain.OrderBook{})

	assert.False(t, ok)
}

func TestSettlementLag_Disabled(t *testing.T) {
	s := newSettlementLag(t, 0.005)
	s.cfg.Enabled = false

	_, ok := s.Evaluate(context.Background(), discountedMarket(),
		makeBook(0.49, 0.51, 20000), domain.OrderBook{})

	assert.False(t, ok)
}
