package settlement

import (
	"strings"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// Los sets de keywords son fijos: las preguntas que mencionan estos términos
// tienen históricamente más disputas de resolución (redacción ambigua,
// resultados cuestionados, challenges de UMA).
var (
	highRiskKeywords = []string{
		"war", "invasion", "nuclear", "coup", "assassinat", "dies", "death",
		"impeach", "resign", "arrest", "indict", "annex", "collapse", "default",
	}

	mediumRiskKeywords = []string{
		"election", "court", "ruling", "supreme", "sanction", "ceasefire",
		"tariff", "recession", "strike", "protest", "pandemic", "ban",
	}
)

// Pesos de los tres componentes de riesgo; suman 1.
const (
	keywordWeight     = 0.5
	volatilityWeight  = 0.3
	uncertaintyWeight = 0.2
)

// DisputeConfig acota el filtro de riesgo de disputa.
type DisputeConfig struct {
	MaxDisputeRisk            float64 // techo de aceptación sobre el score total
	MaxVolatilityContribution float64 // cap del componente de volatilidad
}

// DisputeFilter puntúa el riesgo de disputa de resolución de un mercado a
// partir del texto de su pregunta y la volatilidad actual.
type DisputeFilter struct {
	cfg DisputeConfig
}

// NewDisputeFilter crea el filtro con los límites dados.
func NewDisputeFilter(cfg DisputeConfig) *DisputeFilter {
	return &DisputeFilter{cfg: cfg}
}

// Assess calcula el score de riesgo de disputa:
//
//	keyword     = min(0.15*high + 0.05*medium, 1.0)
//	volatility  = min(volatilityScore, maxVolatilityContribution)
//	uncertainty = resolutionUncertainty * (1 - volatility)
//	total       = 0.5*keyword + 0.3*volatility + 0.2*uncertainty
func (f *DisputeFilter) Assess(question string, volatilityScore, resolutionUncertainty float64) domain.DisputeRiskAssessment {
	q := strings.ToLower(question)

	var matched []string
	var highCount, mediumCount int
	for _, kw := range highRiskKeywords {
		if strings.Contains(q, kw) {
			highCount++
			matched = append(matched, kw)
		}
	}
	for _, kw := range mediumRiskKeywords {
		if strings.Contains(q, kw) {
			mediumCount++
			matched = append(matched, kw)
		}
	}

	keywordRisk := 0.15*float64(highCount) + 0.05*float64(mediumCount)
	if keywordRisk > 1 {
		keywordRisk = 1
	}

	volatilityRisk := volatilityScore
	if volatilityRisk > f.cfg.MaxVolatilityContribution {
		volatilityRisk = f.cfg.MaxVolatilityContribution
	}

	uncertaintyRisk := resolutionUncertainty * (1 - volatilityRisk)

	total := keywordWeight*keywordRisk + volatilityWeight*volatilityRisk + uncertaintyWeight*uncertaintyRisk

	return domain.DisputeRiskAssessment{
		RiskScore:       total,
		Level:           disputeLevel(total),
		MatchedKeywords: matched,
		KeywordRisk:     keywordRisk,
		VolatilityRisk:  volatilityRisk,
		UncertaintyRisk: uncertaintyRisk,
		IsAcceptable:    total <= f.cfg.MaxDisputeRisk,
	}
}

// disputeLevel clasifica el score total: <=0.1 low, <=0.3 medium,
// <=0.6 high, resto extreme.
func disputeLevel(score float64) domain.DisputeLevel {
	switch {
	case score <= 0.1:
		return domain.DisputeLevelLow
	case score <= 0.3:
		return domain.DisputeLevelMedium
	case score <= 0.6:
		return domain.DisputeLevelHigh
	default:
		return domain.DisputeLevelExtreme
	}
}
