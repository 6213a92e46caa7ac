package domain

// TailCategory es la categoría de evento de cola de un mercado.
type TailCategory string

const (
	CategoryGeopolitical  TailCategory = "geopolitical"
	CategoryEconomic      TailCategory = "economic"
	CategoryTechnology    TailCategory = "technology"
	CategoryEnvironmental TailCategory = "environmental"
	CategorySocial        TailCategory = "social"
	CategoryBlackSwan     TailCategory = "black_swan"
)

// TailRiskCandidate es un mercado que pasó los filtros de selección de cola.
type TailRiskCandidate struct {
	MarketID        string
	Question        string
	Category        TailCategory
	YesPrice        float64
	NoPrice         float64
	TailProbability float64 // min(yes, no): el lado barato es el evento de cola
	PotentialPayout float64 // 1/tail_price - 1, múltiplo por unidad apostada
	WorstCaseLoss   float64 // 1 unidad de stake en apuestas binarias
	Cluster         string  // "{categoría}_{región-o-tema}"
}

// PayoutRatio devuelve payout potencial / pérdida máxima.
func (c TailRiskCandidate) PayoutRatio() float64 {
	if c.WorstCaseLoss <= 0 {
		return 0
	}
	return c.PotentialPayout / c.WorstCaseLoss
}

// PositionSize es el resultado del sizing Kelly de una apuesta de cola.
type PositionSize struct {
	StakeUSDC     float64
	WorstCaseLoss float64 // = stake en apuestas binarias
	KellyFraction float64 // fracción final tras multiplicador conservador
	PayoutRatio   float64
	IsAcceptable  bool
	Reason        string
}

// ClusterMetrics es la exposición agregada de un cluster de correlación.
type ClusterMetrics struct {
	Cluster        string
	ExposureUSDC   float64
	WorstCaseLoss  float64
	UtilizationPct float64
	PositionCount  int
}

// HedgePosition enlaza una posición original con su hedge en un mercado
// correlacionado. El hedging es siempre opcional, nunca forzado.
type HedgePosition struct {
	OriginalMarketID string
	HedgeMarketID    string
	HedgeRatio       float64
	HedgeSizeUSDC    float64
	CostUSDC         float64
	RiskReduction    float64 // reducción neta de pérdida máxima tras coste
}
