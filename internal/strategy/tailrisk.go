package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/tailrisk"
)

// Pesos de confianza del tail risk; suman 1.
const (
	trPayoutWeight  = 0.4
	trClusterWeight = 0.3
	trEdgeWeight    = 0.3

	// trPayoutNorm es el múltiplo de payout que satura el componente de payout.
	trPayoutNorm = 20.0

	// maxEstimatedProb limita la probabilidad ajustada por debajo de la certeza.
	maxEstimatedProb = 0.99
)

// TailRiskConfig parametriza la estrategia de eventos de cola.
type TailRiskConfig struct {
	Enabled bool
	// EdgeMultiplier escala la probabilidad de cola implícita en el precio
	// hacia la estimación propia del bot. A 1.0 la fórmula de beneficio
	// esperado es negativa para cualquier mercado bien precificado y la
	// estrategia nunca dispara; valores por encima de 1 codifican la tesis
	// de que las colas están sistemáticamente infravaloradas.
	EdgeMultiplier float64
}

// TailRisk compra resultados de cola baratos dimensionados por el sizer de
// Kelly y opcionalmente cubiertos en un mercado correlacionado. El motor
// refresca el universo de coberturas en cada ciclo.
type TailRisk struct {
	cfg      TailRiskConfig
	selector *tailrisk.Selector
	sizer    *tailrisk.Sizer
	hedger   *tailrisk.HedgeEvaluator
	universe []domain.Market
	now      func() time.Time
}

// NewTailRisk conecta la estrategia con su selector, sizer y evaluador de coberturas.
func NewTailRisk(cfg TailRiskConfig, sel *tailrisk.Selector, sz *tailrisk.Sizer, h *tailrisk.HedgeEvaluator) *TailRisk {
	return &TailRisk{cfg: cfg, selector: sel, sizer: sz, hedger: h, now: time.Now}
}

// SetNow inyecta el reloj para tests deterministas.
func (s *TailRisk) SetNow(now func() time.Time) { s.now = now }

// SetHedgeUniverse reemplaza la lista de candidatos para buscar coberturas.
func (s *TailRisk) SetHedgeUniverse(markets []domain.Market) {
	s.universe = markets
}

// Name implementa Strategy.
func (s *TailRisk) Name() string { return "tail_risk" }

// Evaluate ejecuta el pipeline en orden fijo: flag de habilitado, selección
// del candidato, rentabilidad con la probabilidad ajustada, sizing de Kelly
// contra los caps de cluster, cobertura opcional, confianza. El sizing va
// después del filtro de rentabilidad para que los candidatos no rentables
// nunca toquen el ledger de clusters.
func (s *TailRisk) Evaluate(_ context.Context, m domain.Market, _, _ domain.OrderBook) (domain.Signal, bool) {
	if !s.cfg.Enabled {
		return domain.Signal{}, false
	}

	candidate, ok, _ := s.selector.Select(m)
	if !ok {
		return domain.Signal{}, false
	}

	estimatedProb := candidate.TailProbability * s.cfg.EdgeMultiplier
	if estimatedProb > maxEstimatedProb {
		estimatedProb = maxEstimatedProb
	}

	// beneficio esperado por unidad de stake: payout*p - stake, con stake = 1
	profitPerUnit := candidate.PotentialPayout*estimatedProb - 1
	if profitPerUnit <= 0 {
		return domain.Signal{}, false
	}

	sized := s.sizer.Size(candidate, estimatedProb)
	if !sized.IsAcceptable {
		return domain.Signal{}, false
	}

	var hedge *domain.HedgePosition
	if h, found := s.hedger.Evaluate(candidate.MarketID, sized.StakeUSDC, sized.WorstCaseLoss, s.universe); found {
		hedge = &h
	}

	confidence := clamp01(trPayoutWeight*clamp01(candidate.PotentialPayout/trPayoutNorm) +
		trClusterWeight*(1-s.sizer.ClusterUtilization(candidate.Cluster)) +
		trEdgeWeight*clamp01(profitPerUnit))

	reason := fmt.Sprintf("%s tail at %.4f, payout %.1fx, stake $%.2f",
		candidate.Category, candidate.TailProbability, candidate.PotentialPayout, sized.StakeUSDC)
	if hedge != nil {
		reason += fmt.Sprintf(", hedged via %s for $%.2f", hedge.HedgeMarketID, hedge.CostUSDC)
	}

	return domain.Signal{
		Strategy:       s.Name(),
		MarketID:       m.MarketID,
		Question:       m.Question,
		Type:           domain.SignalTypeTailBuy,
		ExpectedProfit: profitPerUnit * sized.StakeUSDC,
		TradeSize:      sized.StakeUSDC,
		YesPrice:       m.YesPrice,
		NoPrice:        m.NoPrice,
		Confidence:     confidence,
		Reason:         reason,
		RiskTags:       domain.TailRiskRiskTags,
		CreatedAt:      s.now(),
		WorstCaseLoss:  sized.WorstCaseLoss,
		Cluster:        candidate.Cluster,
		KellyFraction:  sized.KellyFraction,
		Hedge:          hedge,
	}, true
}
