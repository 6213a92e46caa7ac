package tailrisk

import (
	"github.com/alejandrodnm/polyquant/internal/domain"
)

// HedgeConfig acota la selección de coberturas.
type HedgeConfig struct {
	MinHedgeRatio   float64 // fracción de la posición original a compensar
	MaxHedgeCostPct float64 // techo sobre coste / tamaño original
}

// HedgeEvaluator busca opcionalmente una posición compensatoria en un
// mercado correlacionado. La cobertura siempre es opcional: si ningún
// candidato pasa el corte, la posición original se queda sin cubrir.
type HedgeEvaluator struct {
	cfg    HedgeConfig
	hedges []domain.HedgePosition
}

// NewHedgeEvaluator crea un evaluador con el libro de coberturas vacío.
func NewHedgeEvaluator(cfg HedgeConfig) *HedgeEvaluator {
	return &HedgeEvaluator{cfg: cfg}
}

// Evaluate puntúa cada mercado candidato a cobertura:
//
//	hedge size = original_size * min_hedge_ratio
//	hedge cost = hedge_size * min(hedge_yes, hedge_no)
//	reduction  = worst_case_loss * min_hedge_ratio - hedge_cost
//
// Los candidatos con reducción no positiva se descartan; entre el resto gana
// el de menor coste, y solo se acepta si coste/tamaño original se mantiene
// dentro de MaxHedgeCostPct.
func (h *HedgeEvaluator) Evaluate(originalMarketID string, originalSize, worstCaseLoss float64, candidates []domain.Market) (domain.HedgePosition, bool) {
	if originalSize <= 0 {
		return domain.HedgePosition{}, false
	}

	var best domain.HedgePosition
	found := false

	for _, m := range candidates {
		if m.MarketID == originalMarketID || !m.HasValidPrices() {
			continue
		}

		hedgeSize := originalSize * h.cfg.MinHedgeRatio
		tailPrice := m.YesPrice
		if m.NoPrice < tailPrice {
			tailPrice = m.NoPrice
		}
		cost := hedgeSize * tailPrice
		reduction := worstCaseLoss*h.cfg.MinHedgeRatio - cost
		if reduction <= 0 {
			continue
		}

		if !found || cost < best.CostUSDC {
			best = domain.HedgePosition{
				OriginalMarketID: originalMarketID,
				HedgeMarketID:    m.MarketID,
				HedgeRatio:       h.cfg.MinHedgeRatio,
				HedgeSizeUSDC:    hedgeSize,
				CostUSDC:         cost,
				RiskReduction:    reduction,
			}
			found = true
		}
	}

	if !found {
		return domain.HedgePosition{}, false
	}
	if best.CostUSDC/originalSize > h.cfg.MaxHedgeCostPct {
		return domain.HedgePosition{}, false
	}

	h.hedges = append(h.hedges, best)
	return best, true
}

// Metrics devuelve un snapshot del libro de coberturas.
func (h *HedgeEvaluator) Metrics() map[string]float64 {
	m := map[string]float64{
		"hedge_count":        float64(len(h.hedges)),
		"total_cost_usdc":    0,
		"total_risk_reduced": 0,
	}
	for _, hp := range h.hedges {
		m["total_cost_usdc"] += hp.CostUSDC
		m["total_risk_reduced"] += hp.RiskReduction
	}
	return m
}
