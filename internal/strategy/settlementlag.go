package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/settlement"
)

// Pesos de confianza del settlement lag; suman 1.
const (
	slDisputeWeight   = 0.35
	slLiquidityWeight = 0.25
	slProfitWeight    = 0.2
	slTimeWeight      = 0.2

	// slProfitNorm es el beneficio neto por unidad que satura el componente
	// de beneficio de la confianza.
	slProfitNorm = 0.05
)

// SettlementLagConfig parametriza la estrategia de ventana de resolución.
type SettlementLagConfig struct {
	Enabled        bool
	TradeSizeUSDC  float64
	MaxWindowHours float64 // normaliza el componente temporal de la confianza
}

// SettlementLag compra YES+NO bajo la paridad en mercados cercanos a la
// resolución: el set combinado se redime por $1, así que cualquier descuento
// por encima del carry cost es beneficio. El detector, el filtro de disputa
// y el modelo de carry filtran el trade.
type SettlementLag struct {
	cfg      SettlementLagConfig
	detector *settlement.Detector
	dispute  *settlement.DisputeFilter
	carry    *settlement.CarryModel
	now      func() time.Time
}

// NewSettlementLag conecta la estrategia con su cadena de detectores.
func NewSettlementLag(cfg SettlementLagConfig, d *settlement.Detector, f *settlement.DisputeFilter, c *settlement.CarryModel) *SettlementLag {
	return &SettlementLag{cfg: cfg, detector: d, dispute: f, carry: c, now: time.Now}
}

// SetNow inyecta el reloj para tests deterministas.
func (s *SettlementLag) SetNow(now func() time.Time) { s.now = now }

// Name implementa Strategy.
func (s *SettlementLag) Name() string { return "settlement_lag" }

// Evaluate ejecuta el pipeline en orden fijo: flag de habilitado, aptitud
// del mercado, riesgo de disputa, beneficio bruto, carry cost, beneficio
// neto, confianza. El beneficio debe ser positivo antes y después de restar
// el carry.
func (s *SettlementLag) Evaluate(_ context.Context, m domain.Market, yesBook, _ domain.OrderBook) (domain.Signal, bool) {
	if !s.cfg.Enabled {
		return domain.Signal{}, false
	}

	state := s.detector.Detect(m, yesBook)
	if !state.IsSuitable {
		return domain.Signal{}, false
	}

	// los books finos resuelven de forma ambigua más a menudo; la iliquidez
	// es el input de incertidumbre de resolución
	uncertainty := 1 - state.LiquidityScore
	assessment := s.dispute.Assess(m.Question, state.VolatilityScore, uncertainty)
	if !assessment.IsAcceptable {
		return domain.Signal{}, false
	}

	grossProfit := 1 - (m.YesPrice + m.NoPrice)
	if grossProfit <= 0 {
		return domain.Signal{}, false
	}

	carry := s.carry.Calculate(s.cfg.TradeSizeUSDC, state.HoursToResolution)
	if !carry.IsAcceptable {
		return domain.Signal{}, false
	}

	netProfit := grossProfit - carry.CostPctOfCapital
	if netProfit <= 0 {
		return domain.Signal{}, false
	}

	timeScore := 0.0
	if s.cfg.MaxWindowHours > 0 {
		timeScore = clamp01(1 - state.HoursToResolution/s.cfg.MaxWindowHours)
	}
	confidence := clamp01(slDisputeWeight*(1-assessment.RiskScore) +
		slLiquidityWeight*state.LiquidityScore +
		slProfitWeight*clamp01(netProfit/slProfitNorm) +
		slTimeWeight*timeScore)

	return domain.Signal{
		Strategy:       s.Name(),
		MarketID:       m.MarketID,
		Question:       m.Question,
		Type:           domain.SignalTypeBuyBoth,
		ExpectedProfit: netProfit * s.cfg.TradeSizeUSDC,
		TradeSize:      s.cfg.TradeSizeUSDC,
		YesPrice:       m.YesPrice,
		NoPrice:        m.NoPrice,
		Confidence:     confidence,
		Reason: fmt.Sprintf("YES+NO at %.4f, gross %.4f, net %.4f after carry, resolves in %.1fh",
			m.YesPrice+m.NoPrice, grossProfit, netProfit, state.HoursToResolution),
		RiskTags:     domain.SettlementLagRiskTags,
		CreatedAt:    s.now(),
		DisputeScore: assessment.RiskScore,
		CarryCost:    carry.TotalCost,
	}, true
}
