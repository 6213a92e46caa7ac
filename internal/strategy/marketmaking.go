package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/inventory"
	"github.com/alejandrodnm/polyquant/internal/pricing"
	"github.com/alejandrodnm/polyquant/internal/quotes"
	"github.com/alejandrodnm/polyquant/internal/settlement"
)

// Pesos de confianza del market making; suman 1.
const (
	mmLiquidityWeight  = 0.4
	mmVolatilityWeight = 0.3
	mmSpreadWeight     = 0.3
)

// MarketMakingConfig parametriza la estrategia de quoting.
type MarketMakingConfig struct {
	Enabled       bool
	OrderSizeUSDC float64
	MaxSpreadBPS  float64 // normaliza el componente de spread de la confianza
}

// MarketMaking cotiza ambos lados de un mercado, dimensionado contra el
// ledger de inventario y con precios del modelo de spread. Cada evaluación
// aceptada crea y postea una quote post-only a través del manager.
type MarketMaking struct {
	cfg    MarketMakingConfig
	ledger *inventory.Ledger
	quotes *quotes.Manager
	spread *pricing.SpreadModel
	now    func() time.Time
}

// NewMarketMaking conecta la estrategia con su ledger, el manager de quotes
// y el modelo de precios.
func NewMarketMaking(cfg MarketMakingConfig, ledger *inventory.Ledger, qm *quotes.Manager, sm *pricing.SpreadModel) *MarketMaking {
	return &MarketMaking{cfg: cfg, ledger: ledger, quotes: qm, spread: sm, now: time.Now}
}

// SetNow inyecta el reloj para tests deterministas.
func (s *MarketMaking) SetNow(now func() time.Time) { s.now = now }

// Name implementa Strategy.
func (s *MarketMaking) Name() string { return "market_making" }

// Evaluate ejecuta el pipeline en orden fijo: flag de habilitado, mid
// válido, pricing del spread, límites de inventario, creación de la quote,
// confianza. Gana el primer rechazo.
func (s *MarketMaking) Evaluate(_ context.Context, m domain.Market, yesBook, _ domain.OrderBook) (domain.Signal, bool) {
	if !s.cfg.Enabled {
		return domain.Signal{}, false
	}

	mid := yesBook.Midpoint()
	if mid <= 0 || mid >= 1 {
		return domain.Signal{}, false
	}

	depth := yesBook.TotalDepthUSDC()
	volatility := settlement.VolatilityScore(depth)
	liquidity := settlement.LiquidityScore(depth)

	metrics := s.ledger.Metrics()
	calc := s.spread.Calculate(mid, volatility, metrics.InventorySkew)
	if !calc.IsAcceptable {
		return domain.Signal{}, false
	}

	if ok, _ := s.ledger.CanOpenPosition(m.MarketID, s.cfg.OrderSizeUSDC, domain.SideBuy); !ok {
		return domain.Signal{}, false
	}

	spreadPct := (calc.Ask - calc.Bid) / mid
	expectedProfit := spreadPct * s.cfg.OrderSizeUSDC

	quote := s.quotes.CreateQuote(m.MarketID, calc.Bid, calc.Ask, s.cfg.OrderSizeUSDC)
	if err := s.quotes.PostQuote(quote.ID); err != nil {
		return domain.Signal{}, false
	}

	spreadScore := 0.0
	if s.cfg.MaxSpreadBPS > 0 {
		spreadScore = clamp01(calc.SpreadBPS / s.cfg.MaxSpreadBPS)
	}
	confidence := clamp01(mmLiquidityWeight*liquidity +
		mmVolatilityWeight*(1-volatility) +
		mmSpreadWeight*spreadScore)

	return domain.Signal{
		Strategy:       s.Name(),
		MarketID:       m.MarketID,
		Question:       m.Question,
		Type:           domain.SignalTypeQuote,
		ExpectedProfit: expectedProfit,
		TradeSize:      s.cfg.OrderSizeUSDC,
		YesPrice:       m.YesPrice,
		NoPrice:        m.NoPrice,
		Bid:            calc.Bid,
		Ask:            calc.Ask,
		Confidence:     confidence,
		Reason: fmt.Sprintf("quoting %.4f/%.4f at %.0f bps, skew %.2f",
			calc.Bid, calc.Ask, calc.SpreadBPS, metrics.InventorySkew),
		RiskTags:      domain.MarketMakingRiskTags,
		CreatedAt:     s.now(),
		InventorySkew: metrics.InventorySkew,
		SpreadBPS:     calc.SpreadBPS,
		QuoteID:       quote.ID,
	}, true
}
