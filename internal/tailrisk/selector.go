package tailrisk

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// categoryRule asocia una categoría de cola a su set de keywords. Las reglas
// se evalúan en orden de declaración y los empates van a la primera con el
// máximo, así la asignación es reproducible entre ejecuciones.
type categoryRule struct {
	category domain.TailCategory
	keywords []string
}

var categoryRules = []categoryRule{
	{domain.CategoryGeopolitical, []string{
		"war", "invasion", "military", "nuclear", "treaty", "nato", "coup",
		"sanction", "missile", "ceasefire",
	}},
	{domain.CategoryEconomic, []string{
		"recession", "inflation", "fed", "interest rate", "default", "gdp",
		"unemployment", "debt ceiling", "crash", "bailout",
	}},
	{domain.CategoryTechnology, []string{
		"ai ", "artificial intelligence", "cyberattack", "hack", "outage",
		"quantum", "chip", "agi",
	}},
	{domain.CategoryEnvironmental, []string{
		"hurricane", "earthquake", "flood", "wildfire", "climate", "drought",
		"temperature", "storm",
	}},
	{domain.CategorySocial, []string{
		"pandemic", "outbreak", "strike", "protest", "riot", "migration",
		"epidemic",
	}},
}

// themeRule mapea substrings de la pregunta a una clave de región o tema.
// Gana el primer match, el orden es parte del contrato.
type themeRule struct {
	theme      string
	substrings []string
}

var themeRules = []themeRule{
	{"us", []string{"united states", "u.s.", "us ", "america", "biden", "trump", "congress"}},
	{"china", []string{"china", "chinese", "taiwan", "beijing"}},
	{"europe", []string{"europe", "eu ", "european", "germany", "france", "uk "}},
	{"russia_ukraine", []string{"russia", "ukraine", "putin", "kyiv", "moscow"}},
	{"ai", []string{"ai ", "artificial intelligence", "openai", "agi"}},
	{"climate", []string{"climate", "temperature", "hurricane", "emission"}},
	{"elections", []string{"election", "president", "vote", "ballot"}},
}

const defaultTheme = "other"

// SelectorConfig filtra qué mercados califican como candidatos de tail risk.
type SelectorConfig struct {
	MinTailProbability float64
	MaxTailProbability float64
	MinPayoutRatio     float64
}

// Selector clasifica mercados en categorías de evento de cola y clusters de
// correlación, y filtra por probabilidad de cola y ratio de payout. Sin estado.
type Selector struct {
	cfg SelectorConfig
}

// NewSelector crea un selector con la banda dada.
func NewSelector(cfg SelectorConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Select evalúa un mercado. El lado con precio menos probable se asume como
// el evento de cola: probabilidad de cola = min(yes, no), payout potencial =
// 1/precio_cola - 1, pérdida en el peor caso = una unidad de stake. Devuelve
// false con el motivo cuando algún filtro rechaza.
func (s *Selector) Select(m domain.Market) (domain.TailRiskCandidate, bool, string) {
	if !m.HasValidPrices() {
		return domain.TailRiskCandidate{}, false,
			fmt.Sprintf("invalid prices yes=%.4f no=%.4f", m.YesPrice, m.NoPrice)
	}

	tailProb := m.YesPrice
	if m.NoPrice < tailProb {
		tailProb = m.NoPrice
	}

	if tailProb < s.cfg.MinTailProbability || tailProb > s.cfg.MaxTailProbability {
		return domain.TailRiskCandidate{}, false,
			fmt.Sprintf("tail probability %.4f outside [%.4f, %.4f]",
				tailProb, s.cfg.MinTailProbability, s.cfg.MaxTailProbability)
	}

	payout := 1/tailProb - 1
	const worstCaseLoss = 1.0 // apuesta binaria: se pierde el stake, nada más

	if payout/worstCaseLoss < s.cfg.MinPayoutRatio {
		return domain.TailRiskCandidate{}, false,
			fmt.Sprintf("payout ratio %.2f below minimum %.2f", payout, s.cfg.MinPayoutRatio)
	}

	category := Classify(m.Question)

	return domain.TailRiskCandidate{
		MarketID:        m.MarketID,
		Question:        m.Question,
		Category:        category,
		YesPrice:        m.YesPrice,
		NoPrice:         m.NoPrice,
		TailProbability: tailProb,
		PotentialPayout: payout,
		WorstCaseLoss:   worstCaseLoss,
		Cluster:         ClusterKey(category, m.Question),
	}, true, ""
}

// Classify elige la categoría de cola con más keywords encontradas; los
// empates van a la primera regla en orden de declaración y cero matches cae
// en black_swan.
func Classify(question string) domain.TailCategory {
	q := strings.ToLower(question)

	best := domain.CategoryBlackSwan
	bestCount := 0
	for _, rule := range categoryRules {
		count := 0
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				count++
			}
		}
		if count > bestCount {
			best = rule.category
			bestCount = count
		}
	}
	return best
}

// ClusterKey construye la clave de cluster de correlación
// "{category}_{theme}" usando el primer substring de tema que encaje.
func ClusterKey(category domain.TailCategory, question string) string {
	q := strings.ToLower(question)
	for _, rule := range themeRules {
		for _, sub := range rule.substrings {
			if strings.Contains(q, sub) {
				return string(category) + "_" + rule.theme
			}
		}
	}
	return string(category) + "_" + defaultTheme
}
